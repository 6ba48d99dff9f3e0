package reward

import (
	"bytes"
	"errors"
	"image"
	"math/rand"
	"strings"
	"testing"

	"jordanella.com/kanjuden-gym/internal/cv"
	"jordanella.com/kanjuden-gym/internal/logging"
)

type mapSource map[string]*image.Gray

func (m mapSource) Image(name string) (*image.Gray, cv.Template, error) {
	img, ok := m[name]
	if !ok {
		return nil, cv.Template{Name: name}, errors.New("template image not found")
	}
	return img, cv.Template{Name: name, Threshold: cv.DefaultThreshold}, nil
}

func noiseFrame(w, h int, seed int64) cv.Frame {
	rng := rand.New(rand.NewSource(seed))
	f := cv.Frame{Width: w, Height: h, Channels: 1, Pix: make([]uint8, w*h)}
	rng.Read(f.Pix)
	return f
}

func patch(f cv.Frame, r image.Rectangle) *image.Gray {
	return f.Gray().SubImage(r).(*image.Gray)
}

func noise(w, h int, seed int64) *image.Gray {
	return noiseFrame(w, h, seed).Gray()
}

func TestDetectPriority(t *testing.T) {
	frame := noiseFrame(160, 120, 1)
	chapter := patch(frame, image.Rect(10, 10, 40, 30))
	mission := patch(frame, image.Rect(100, 80, 140, 100))

	source := mapSource{
		"chapter_finish_1":        noise(30, 20, 50),
		"chapter_finish_2":        chapter,
		TemplateSpellCardBonus:    noise(30, 20, 51),
		TemplateMissionIncomplete: mission,
	}
	d, err := NewDetector(DefaultRules(), source)
	if err != nil {
		t.Fatal(err)
	}

	got := d.Detect(frame)
	if got.Event != EventChapterFinished || got.Reward != 100 || got.Terminal {
		t.Errorf("Detect() = %+v, want chapter finished +100 non-terminal", got)
	}
	if got.Template != "chapter_finish_2" {
		t.Errorf("template = %s", got.Template)
	}
	if got.Score < cv.DefaultThreshold {
		t.Errorf("score = %f", got.Score)
	}
}

func TestDetectEachEvent(t *testing.T) {
	frame := noiseFrame(160, 120, 2)
	hit := patch(frame, image.Rect(60, 40, 90, 70))

	tests := []struct {
		name     string
		template string
		want     Event
		reward   float64
		terminal bool
	}{
		{"chapter", "chapter_finish_5", EventChapterFinished, 100, false},
		{"bonus", TemplateSpellCardBonus, EventBonusCollected, 500, false},
		{"mission", TemplateMissionIncomplete, EventMissionIncomplete, -100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := mapSource{}
			for i, name := range DefaultRules().TemplateNames() {
				source[name] = noise(30, 30, int64(100+i))
			}
			source[tt.template] = hit

			d, err := NewDetector(DefaultRules(), source)
			if err != nil {
				t.Fatal(err)
			}
			got := d.Detect(frame)
			if got.Event != tt.want || got.Reward != tt.reward || got.Terminal != tt.terminal {
				t.Errorf("Detect() = %+v", got)
			}
			if !got.Detected() {
				t.Error("Detected() = false")
			}
		})
	}
}

func TestDetectNothing(t *testing.T) {
	frame := noiseFrame(100, 80, 3)
	source := mapSource{}
	for i, name := range DefaultRules().TemplateNames() {
		source[name] = noise(20, 20, int64(200+i))
	}
	d, _ := NewDetector(DefaultRules(), source)

	got := d.Detect(frame)
	if got.Detected() || got.Reward != 0 || got.Terminal {
		t.Errorf("Detect() = %+v, want none", got)
	}
}

func TestDetectMissingTemplatesAreNoMatch(t *testing.T) {
	frame := noiseFrame(100, 80, 4)
	mission := patch(frame, image.Rect(0, 0, 25, 25))
	d, _ := NewDetector(DefaultRules(), mapSource{TemplateMissionIncomplete: mission})

	got := d.Detect(frame)
	if got.Event != EventMissionIncomplete {
		t.Errorf("Detect() = %+v, want mission incomplete", got)
	}
}

func TestDetectWarnsOncePerMissingTemplate(t *testing.T) {
	frame := noiseFrame(60, 40, 7)
	d, _ := NewDetector(DefaultRules(), mapSource{})
	var buf bytes.Buffer
	d.logger = logging.NewLogger("Reward").SetOutput(&buf)

	for i := 0; i < 3; i++ {
		d.Detect(frame)
	}

	out := buf.String()
	if n := strings.Count(out, "Template unavailable"); n != len(DefaultRules().TemplateNames()) {
		t.Errorf("logged %d warnings, want one per template:\n%s", n, out)
	}
	if n := strings.Count(out, TemplateMissionIncomplete); n != 1 {
		t.Errorf("%s reported %d times", TemplateMissionIncomplete, n)
	}
}

func TestDetectTemplateLargerThanFrame(t *testing.T) {
	frame := noiseFrame(20, 20, 5)
	source := mapSource{TemplateMissionIncomplete: noise(40, 40, 6)}
	d, _ := NewDetector(DefaultRules(), source)

	if got := d.Detect(frame); got.Detected() {
		t.Errorf("Detect() = %+v, want none", got)
	}
}

func TestDetectColorFrame(t *testing.T) {
	gray := noiseFrame(80, 60, 7)
	color := cv.Frame{Width: 80, Height: 60, Channels: 3, Pix: make([]uint8, 80*60*3)}
	for i, v := range gray.Pix {
		color.Pix[i*3], color.Pix[i*3+1], color.Pix[i*3+2] = v, v, v
	}
	source := mapSource{TemplateSpellCardBonus: patch(gray, image.Rect(30, 20, 50, 40))}
	d, _ := NewDetector(DefaultRules(), source)

	if got := d.Detect(color); got.Event != EventBonusCollected {
		t.Errorf("Detect(color) = %+v, want bonus", got)
	}
}

func TestRulesValidate(t *testing.T) {
	swapped := DefaultRules()
	swapped[0], swapped[2] = swapped[2], swapped[0]

	noTemplates := DefaultRules()
	noTemplates[1].Templates = nil

	terminalBonus := DefaultRules()
	terminalBonus[1].Terminal = true

	tests := []struct {
		name  string
		rules Rules
		want  string
	}{
		{"default", DefaultRules(), ""},
		{"out of order", swapped, "must come before"},
		{"missing", DefaultRules()[:2], "missing rule"},
		{"duplicate", append(DefaultRules(), DefaultRules()[2]), "duplicate"},
		{"unknown", append(DefaultRules(), Rule{Event: "power_up", Templates: []string{"x"}}), "unknown event"},
		{"no templates", noTemplates, "no templates"},
		{"terminal bonus", terminalBonus, "terminal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rules.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules([]byte("startup: []\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rules) != 3 || rules[0].Event != EventChapterFinished {
		t.Errorf("empty rewards should fall back to defaults, got %+v", rules)
	}

	custom := `
rewards:
  - event: chapter_finished
    templates: [chapter_finish_1]
    reward: 50
  - event: bonus_collected
    templates: [get_spell_card_bonus]
    reward: 250
  - event: mission_incomplete
    templates: [mission_incomplete]
    reward: -200
    terminal: true
`
	rules, err = ParseRules([]byte(custom))
	if err != nil {
		t.Fatal(err)
	}
	if rules[0].Reward != 50 || rules[2].Reward != -200 || !rules[2].Terminal {
		t.Errorf("rules = %+v", rules)
	}

	if _, err := ParseRules([]byte("rewards:\n  - event: mission_incomplete\n    templates: [a]\n    terminal: true\n")); err == nil {
		t.Error("expected validation error for partial table")
	}
}
