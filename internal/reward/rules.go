// Package reward infers rewards and episode termination from observations.
package reward

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Event is the semantic class a detection belongs to
type Event string

const (
	EventNone              Event = "none"
	EventChapterFinished   Event = "chapter_finished"
	EventBonusCollected    Event = "bonus_collected"
	EventMissionIncomplete Event = "mission_incomplete"
)

// priority is the required evaluation order of the known events
var priority = map[Event]int{
	EventChapterFinished:   0,
	EventBonusCollected:    1,
	EventMissionIncomplete: 2,
}

// Rule maps a group of template variants to a reward
type Rule struct {
	Event     Event    `yaml:"event"`
	Templates []string `yaml:"templates"`
	Reward    float64  `yaml:"reward"`
	Terminal  bool     `yaml:"terminal,omitempty"`
}

// Rules are evaluated in order; the first match wins
type Rules []Rule

// Template names of the stock assets
const (
	TemplateSpellCardBonus    = "get_spell_card_bonus"
	TemplateMissionIncomplete = "mission_incomplete"
)

// ChapterFinishTemplates are the stock chapter-finish variants
var ChapterFinishTemplates = []string{
	"chapter_finish_1",
	"chapter_finish_2",
	"chapter_finish_3",
	"chapter_finish_4",
	"chapter_finish_5",
}

// DefaultRules returns the stock reward table
func DefaultRules() Rules {
	return Rules{
		{Event: EventChapterFinished, Templates: append([]string(nil), ChapterFinishTemplates...), Reward: 100},
		{Event: EventBonusCollected, Templates: []string{TemplateSpellCardBonus}, Reward: 500},
		{Event: EventMissionIncomplete, Templates: []string{TemplateMissionIncomplete}, Reward: -100, Terminal: true},
	}
}

// Validate checks that every known event appears once, in priority order,
// and that only mission_incomplete ends an episode
func (rs Rules) Validate() error {
	seen := make(map[Event]bool)
	last := -1
	for i, r := range rs {
		p, known := priority[r.Event]
		if !known {
			return fmt.Errorf("rule %d: unknown event %q", i+1, r.Event)
		}
		if seen[r.Event] {
			return fmt.Errorf("rule %d: duplicate event %q", i+1, r.Event)
		}
		if p < last {
			return fmt.Errorf("rule %d: %q must come before the previous rule", i+1, r.Event)
		}
		if len(r.Templates) == 0 {
			return fmt.Errorf("rule %d (%s): no templates", i+1, r.Event)
		}
		if r.Terminal != (r.Event == EventMissionIncomplete) {
			return fmt.Errorf("rule %d (%s): terminal must be %v", i+1, r.Event, !r.Terminal)
		}
		seen[r.Event] = true
		last = p
	}

	for e := range priority {
		if !seen[e] {
			return fmt.Errorf("missing rule for %q", e)
		}
	}
	return nil
}

// TemplateNames lists every template referenced by the rules, in order
func (rs Rules) TemplateNames() []string {
	var names []string
	for _, r := range rs {
		names = append(names, r.Templates...)
	}
	return names
}

// ErrUnknownTemplate is returned by CheckTemplates.
var ErrUnknownTemplate = errors.New("reward rule references an unregistered template")

// TemplateCatalog is implemented by template sources that know their names
// up front.
type TemplateCatalog interface {
	Has(name string) bool
}

// CheckTemplates fails with ErrUnknownTemplate naming every template the
// catalog does not register.
func (rs Rules) CheckTemplates(c TemplateCatalog) error {
	var missing []string
	for _, name := range rs.TemplateNames() {
		if !c.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTemplate, strings.Join(missing, ", "))
	}
	return nil
}

type rulesFile struct {
	Rewards Rules `yaml:"rewards"`
}

// ParseRules reads a `rewards:` list. Empty content yields DefaultRules.
func ParseRules(data []byte) (Rules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reward rules: %w", err)
	}
	if len(f.Rewards) == 0 {
		return DefaultRules(), nil
	}
	if err := f.Rewards.Validate(); err != nil {
		return nil, err
	}
	return f.Rewards, nil
}

// LoadRules reads reward rules from a YAML file
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read reward rules %s: %w", path, err)
	}
	return ParseRules(data)
}
