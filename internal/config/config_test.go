package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"jordanella.com/kanjuden-gym/internal/actions"
	"jordanella.com/kanjuden-gym/internal/cv"
	"jordanella.com/kanjuden-gym/internal/reward"
	"jordanella.com/kanjuden-gym/pkg/templates"
)

func TestNewDefaultConfig(t *testing.T) {
	c := NewDefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	p := c.Preprocessor()
	want := cv.Preprocessor{ShrinkRatio: 0.5, Crop: cv.Crop{Top: 26, Bottom: 476, Left: 32, Right: 416}}
	if p != want {
		t.Errorf("Preprocessor() = %+v, want %+v", p, want)
	}

	timing := c.Timing()
	if timing.Cooldown != 5*time.Second {
		t.Errorf("cooldown = %v, want 5s", timing.Cooldown)
	}
	if timing.PreAction != 4*time.Second/60 {
		t.Errorf("pre-action = %v", timing.PreAction)
	}
	if c.Timesteps != 128000 {
		t.Errorf("timesteps = %d", c.Timesteps)
	}
}

func TestSaveAndLoadINI(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")

	c := NewDefaultConfig()
	c.UseRGB = true
	c.ShrinkRatio = 0.25
	c.ClipBottom = 200
	c.ClipRight = 150
	c.SnapshotPath = ""
	c.Seed = 42
	if err := SaveToINI(c, path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFromINI(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, c) {
		t.Errorf("loaded = %+v\nwant %+v", loaded, c)
	}
}

func TestLoadFromINIPartial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")
	content := "[Environment]\nuse_rgb = true\nclip_top = 10\n\n[Logging]\nlevel = debug\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFromINI(path)
	if err != nil {
		t.Fatal(err)
	}
	if !c.UseRGB || c.ClipTop != 10 || c.LogLevel != "debug" {
		t.Errorf("overrides not applied: %+v", c)
	}
	if c.AppWindowName != DefaultAppWindowName || c.CooldownFrames != 300 || c.SnapshotPath != "current_screen.png" {
		t.Errorf("defaults not kept: %+v", c)
	}
}

func TestLoadFromINIInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Settings.ini")
	os.WriteFile(path, []byte("[Environment]\nshrink_ratio = 2\n"), 0644)

	if _, err := LoadFromINI(path); !errors.Is(err, cv.ErrInvalidShrinkRatio) {
		t.Errorf("err = %v, want ErrInvalidShrinkRatio", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"no window", func(c *Config) { c.AppClassName, c.AppWindowName = "", "" }},
		{"inverted crop", func(c *Config) { c.ClipTop = 500 }},
		{"negative left", func(c *Config) { c.ClipLeft = -1 }},
		{"negative cooldown", func(c *Config) { c.CooldownFrames = -1 }},
		{"bad key", func(c *Config) { c.TerminalKey = "F13" }},
		{"negative timesteps", func(c *Config) { c.Timesteps = -5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDefaultConfig()
			tt.modify(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(c, NewDefaultConfig()) {
		t.Error("expected defaults")
	}
}

func TestSettingsPath(t *testing.T) {
	t.Setenv(SettingsEnvVar, "")
	if got := SettingsPath(""); got != DefaultSettingsPath {
		t.Errorf("SettingsPath() = %s", got)
	}
	t.Setenv(SettingsEnvVar, "/etc/kanjuden.ini")
	if got := SettingsPath(""); got != "/etc/kanjuden.ini" {
		t.Errorf("SettingsPath() = %s", got)
	}
	if got := SettingsPath("cli.ini"); got != "cli.ini" {
		t.Errorf("explicit path ignored: %s", got)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	os.WriteFile(envFile, []byte("KANJUDEN_TEST_VALUE=from-file\n"), 0644)
	t.Setenv("KANJUDEN_TEST_VALUE", "")
	os.Unsetenv("KANJUDEN_TEST_VALUE")

	if err := LoadDotEnv(envFile, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("KANJUDEN_TEST_VALUE"); got != "from-file" {
		t.Errorf("value = %q", got)
	}
}

func TestEmbeddedScenarioMatchesDefaults(t *testing.T) {
	data := DefaultScenario()

	seqs, err := actions.LoadSequences(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seqs.Startup.StepNames(), actions.DefaultStartup().StepNames()) {
		t.Errorf("embedded startup = %v", seqs.Startup.StepNames())
	}
	if seqs.Recovery.Len() != 0 {
		t.Error("embedded recovery should be empty")
	}

	rules, err := reward.ParseRules(data)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(rules, reward.DefaultRules()) {
		t.Errorf("embedded rules = %+v", rules)
	}
}

func TestEmbeddedTemplatesCoverRules(t *testing.T) {
	data := DefaultTemplates()

	tr := templates.NewTemplateRegistry(t.TempDir())
	if err := tr.LoadFromBytes(data); err != nil {
		t.Fatal(err)
	}
	for _, name := range reward.DefaultRules().TemplateNames() {
		if !tr.Has(name) {
			t.Errorf("template %s missing from built-in list", name)
		}
	}
}

func TestScenarioAndTemplatesPath(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "scenario.yaml")
	os.WriteFile(present, []byte("rewards: []\n"), 0644)

	c := NewDefaultConfig()
	if _, ok := c.TemplatesPath(); ok {
		t.Error("an empty templates_file should use the built-in list")
	}

	c.ScenarioFile = filepath.Join(dir, "absent.yaml")
	if _, ok := c.ScenarioPath(); ok {
		t.Error("a missing scenario file should use the built-in scenario")
	}

	c.ScenarioFile = present
	c.TemplatesFile = present
	if path, ok := c.ScenarioPath(); !ok || path != present {
		t.Errorf("ScenarioPath() = %q, %v", path, ok)
	}
	if path, ok := c.TemplatesPath(); !ok || path != present {
		t.Errorf("TemplatesPath() = %q, %v", path, ok)
	}
}
