package env

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"jordanella.com/kanjuden-gym/internal/actions"
	"jordanella.com/kanjuden-gym/internal/config"
	"jordanella.com/kanjuden-gym/internal/reward"
)

func TestLoadScenarioBuiltIn(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.ScenarioFile = filepath.Join(t.TempDir(), "absent.yaml")

	seqs, rules, err := LoadScenario(cfg)
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}
	if !reflect.DeepEqual(seqs.Startup.StepNames(), actions.DefaultStartup().StepNames()) {
		t.Errorf("startup = %v", seqs.Startup.StepNames())
	}
	if !reflect.DeepEqual(rules, reward.DefaultRules()) {
		t.Errorf("rules = %+v", rules)
	}
}

func TestLoadScenarioFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	content := `
startup:
  - {label: boot, wait: 1s}
  - {label: start, key: Z}
recovery:
  - {label: retry, key: Z}
rewards:
  - event: chapter_finished
    templates: [stage_clear]
    reward: 50
  - event: bonus_collected
    templates: [bonus]
    reward: 5
  - event: mission_incomplete
    templates: [game_over]
    reward: -50
    terminal: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := config.NewDefaultConfig()
	cfg.ScenarioFile = path

	seqs, rules, err := LoadScenario(cfg)
	if err != nil {
		t.Fatalf("LoadScenario failed: %v", err)
	}
	if !reflect.DeepEqual(seqs.Startup.StepNames(), []string{"boot", "start"}) || seqs.Recovery.Len() != 1 {
		t.Errorf("sequences = %v / %v", seqs.Startup.StepNames(), seqs.Recovery.StepNames())
	}
	if !reflect.DeepEqual(rules.TemplateNames(), []string{"stage_clear", "bonus", "game_over"}) {
		t.Errorf("rule templates = %v", rules.TemplateNames())
	}

	os.WriteFile(path, []byte("rewards: [{event: bogus}]\n"), 0644)
	if _, _, err := LoadScenario(cfg); err == nil {
		t.Error("expected error for invalid rewards")
	}
}

func TestLoadTemplatesSources(t *testing.T) {
	dir := t.TempDir()
	cfg := config.NewDefaultConfig()
	cfg.TemplatesDir = dir

	reg, err := LoadTemplates(cfg)
	if err != nil {
		t.Fatalf("LoadTemplates failed: %v", err)
	}
	if err := reward.DefaultRules().CheckTemplates(reg); err != nil {
		t.Errorf("built-in list: %v", err)
	}
	// No PNGs in dir: every preload fails exactly once
	if stats := reg.CacheStats(); stats.PreloadFail != int64(len(reg.List())) || stats.LoadFail != int64(len(reg.List())) {
		t.Errorf("stats = %+v", stats)
	}

	path := filepath.Join(dir, "templates.yaml")
	os.WriteFile(path, []byte("templates:\n  - {name: only, path: only.png}\n"), 0644)
	cfg.TemplatesFile = path
	reg, err = LoadTemplates(cfg)
	if err != nil {
		t.Fatalf("LoadTemplates(file) failed: %v", err)
	}
	if !reflect.DeepEqual(reg.List(), []string{"only"}) {
		t.Errorf("List() = %v", reg.List())
	}
}
