package reward

import (
	"image"

	"jordanella.com/kanjuden-gym/internal/cv"
	"jordanella.com/kanjuden-gym/internal/logging"
)

// TemplateSource supplies grayscale template pixels by name
type TemplateSource interface {
	Image(name string) (*image.Gray, cv.Template, error)
}

// Result is the outcome of one detection pass
type Result struct {
	Event    Event
	Reward   float64
	Terminal bool
	Template string
	Score    float64
}

// Detected reports whether any rule matched
func (r Result) Detected() bool {
	return r.Event != EventNone
}

// Detector evaluates rules against observations. It is not safe for
// concurrent use.
type Detector struct {
	rules  Rules
	source TemplateSource
	logger *logging.Logger
	// templates already reported as unavailable
	warned map[string]bool
}

// NewDetector validates rules and binds them to a template source
func NewDetector(rules Rules, source TemplateSource) (*Detector, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &Detector{
		rules:  rules,
		source: source,
		logger: logging.NewLogger("Reward"),
		warned: make(map[string]bool),
	}, nil
}

// Rules returns the rule table in evaluation order
func (d *Detector) Rules() Rules {
	return d.rules
}

// Detect matches frame against every rule in order and returns the first
// hit. Color frames are reduced to luma first. Templates that fail to load
// count as no match and are logged the first time only.
func (d *Detector) Detect(frame cv.Frame) Result {
	if frame.Empty() {
		return Result{Event: EventNone}
	}
	gray := frame.Gray()

	for _, rule := range d.rules {
		for _, name := range rule.Templates {
			tmpl, meta, err := d.source.Image(name)
			if err != nil {
				if !d.warned[name] {
					d.warned[name] = true
					d.logger.WarnWithContext("Template unavailable, treating as no match", map[string]interface{}{
						"template": name,
						"error":    err.Error(),
					})
				}
				continue
			}

			match := cv.FindTemplate(gray, tmpl, meta.MatchConfig())
			if !match.Found {
				continue
			}

			d.logger.InfoWithContext("Reward event detected", map[string]interface{}{
				"event":    string(rule.Event),
				"template": name,
				"score":    match.Confidence,
				"reward":   rule.Reward,
			})
			return Result{
				Event:    rule.Event,
				Reward:   rule.Reward,
				Terminal: rule.Terminal,
				Template: name,
				Score:    match.Confidence,
			}
		}
	}

	return Result{Event: EventNone}
}
