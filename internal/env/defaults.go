package env

import (
	"fmt"

	"jordanella.com/kanjuden-gym/internal/actions"
	"jordanella.com/kanjuden-gym/internal/config"
	"jordanella.com/kanjuden-gym/internal/cv"
	"jordanella.com/kanjuden-gym/internal/events"
	"jordanella.com/kanjuden-gym/internal/input"
	"jordanella.com/kanjuden-gym/internal/logging"
	"jordanella.com/kanjuden-gym/internal/reward"
	"jordanella.com/kanjuden-gym/internal/window"
	"jordanella.com/kanjuden-gym/pkg/templates"
)

// LoadScenario builds the startup/recovery sequences and reward rules from
// the configured scenario file, or the built-in one when it does not exist
func LoadScenario(cfg *config.Config) (*actions.Sequences, reward.Rules, error) {
	path, ok := cfg.ScenarioPath()
	if !ok {
		data := config.DefaultScenario()
		seqs, err := actions.LoadSequences(data)
		if err != nil {
			return nil, nil, fmt.Errorf("built-in scenario: %w", err)
		}
		rules, err := reward.ParseRules(data)
		if err != nil {
			return nil, nil, fmt.Errorf("built-in scenario: %w", err)
		}
		return seqs, rules, nil
	}

	seqs, err := actions.LoadSequencesFromFile(path)
	if err != nil {
		return nil, nil, err
	}
	rules, err := reward.LoadRules(path)
	if err != nil {
		return nil, nil, err
	}
	return seqs, rules, nil
}

// LoadTemplates registers the template list and preloads what it marks.
// Preload failures are logged and left to count as no match at detection time.
func LoadTemplates(cfg *config.Config) (*templates.TemplateRegistry, error) {
	reg := templates.NewTemplateRegistry(cfg.TemplatesDir)
	if path, ok := cfg.TemplatesPath(); ok {
		if err := reg.LoadFromFile(path); err != nil {
			return nil, fmt.Errorf("templates: %w", err)
		}
	} else if err := reg.LoadFromBytes(config.DefaultTemplates()); err != nil {
		return nil, fmt.Errorf("built-in templates: %w", err)
	}

	logger := logging.NewLogger("Env")
	if err := reg.PreloadAll(); err != nil {
		logger.WarnWithContext("Some templates failed to preload", map[string]interface{}{
			"dir":   cfg.TemplatesDir,
			"error": err.Error(),
		})
	}
	logger.InfoWithContext("Templates registered", map[string]interface{}{
		"dir":       cfg.TemplatesDir,
		"templates": reg.List(),
	})
	return reg, nil
}

// HostDeps wires the Win32 locator, screen capture and SendInput driver
// with the configured scenario and templates
func HostDeps(cfg *config.Config, bus events.EventBus) (Deps, error) {
	driver, err := input.NewSendInputDriver()
	if err != nil {
		return Deps{}, err
	}
	capturer, err := cv.NewScreenCapture()
	if err != nil {
		return Deps{}, err
	}
	reg, err := LoadTemplates(cfg)
	if err != nil {
		return Deps{}, err
	}
	seqs, rules, err := LoadScenario(cfg)
	if err != nil {
		return Deps{}, err
	}

	return Deps{
		Locator:   window.NewLocator(),
		Capturer:  capturer,
		Driver:    driver,
		Templates: reg,
		Rules:     rules,
		Sequences: seqs,
		Bus:       bus,
	}, nil
}
