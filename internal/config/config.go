// Package config loads Settings.ini, the scenario file and .env overrides.
package config

import (
	"fmt"
	"time"

	"jordanella.com/kanjuden-gym/internal/cv"
	"jordanella.com/kanjuden-gym/internal/input"
)

// Default window identity of the target game
const (
	DefaultAppClassName  = "BASE"
	DefaultAppWindowName = "東方紺珠伝　～ Legacy of Lunatic Kingdom. ver 1.00b"
)

// Config holds every setting of an environment session
type Config struct {
	// Environment
	AppClassName  string
	AppWindowName string
	UseRGB        bool
	ShrinkRatio   float64
	ClipTop       int
	ClipBottom    int
	ClipLeft      int
	ClipRight     int
	RecheckWindow bool   // re-resolve the window before every capture
	TerminalKey   string // tapped when an episode ends

	// Timing, in frames of 1/60 s
	PreActionFrames  int
	HoldFrames       int
	PostActionFrames int
	CooldownFrames   int

	// Paths
	TemplatesDir  string
	TemplatesFile string // empty uses the built-in template list
	ScenarioFile  string // missing file uses the built-in scenario
	SnapshotPath  string // empty disables the per-step debug snapshot
	DatabasePath  string // empty disables the episode store
	ModelPath     string
	LogDir        string

	// Logging
	LogLevel string
	EventLog bool

	// Training
	Timesteps  int
	Seed       int64
	BridgeAddr string
}

// NewDefaultConfig creates a config with default values
func NewDefaultConfig() *Config {
	return &Config{
		AppClassName:  DefaultAppClassName,
		AppWindowName: DefaultAppWindowName,
		UseRGB:        false,
		ShrinkRatio:   0.5,
		ClipTop:       26,
		ClipBottom:    476,
		ClipLeft:      32,
		ClipRight:     416,
		RecheckWindow: false,
		TerminalKey:   "Z",

		PreActionFrames:  4,
		HoldFrames:       4,
		PostActionFrames: 4,
		CooldownFrames:   300,

		TemplatesDir:  "environment/templates",
		TemplatesFile: "",
		ScenarioFile:  "scenario.yaml",
		SnapshotPath:  "current_screen.png",
		DatabasePath:  "kanjuden.db",
		ModelPath:     "kanjuden.json",
		LogDir:        "logs",

		LogLevel: "INFO",
		EventLog: true,

		Timesteps:  128000,
		Seed:       1,
		BridgeAddr: "127.0.0.1:8765",
	}
}

// Preprocessor builds the observation pipeline settings
func (c *Config) Preprocessor() cv.Preprocessor {
	return cv.Preprocessor{
		UseRGB:      c.UseRGB,
		ShrinkRatio: c.ShrinkRatio,
		Crop: cv.Crop{
			Top:    c.ClipTop,
			Bottom: c.ClipBottom,
			Left:   c.ClipLeft,
			Right:  c.ClipRight,
		},
	}
}

// Timing converts frame counts to durations
type Timing struct {
	PreAction  time.Duration
	Hold       time.Duration
	PostAction time.Duration
	Cooldown   time.Duration
}

// Timing returns the step timing
func (c *Config) Timing() Timing {
	return Timing{
		PreAction:  input.Frames(c.PreActionFrames),
		Hold:       input.Frames(c.HoldFrames),
		PostAction: input.Frames(c.PostActionFrames),
		Cooldown:   input.Frames(c.CooldownFrames),
	}
}

// TerminalScanCode resolves TerminalKey
func (c *Config) TerminalScanCode() (input.ScanCode, error) {
	return input.ParseScanCode(c.TerminalKey)
}

// Validate checks settings that do not depend on the window size. Crop
// bounds are checked against the located window by the environment.
func (c *Config) Validate() error {
	if c.AppClassName == "" && c.AppWindowName == "" {
		return fmt.Errorf("app class name or window name is required")
	}
	if c.ShrinkRatio <= 0 || c.ShrinkRatio > 1 {
		return fmt.Errorf("%w: got %v", cv.ErrInvalidShrinkRatio, c.ShrinkRatio)
	}
	if c.ClipTop < 0 || c.ClipLeft < 0 || c.ClipTop >= c.ClipBottom || c.ClipLeft >= c.ClipRight {
		return fmt.Errorf("%w: top=%d bottom=%d left=%d right=%d",
			cv.ErrCropOutOfBounds, c.ClipTop, c.ClipBottom, c.ClipLeft, c.ClipRight)
	}
	for name, v := range map[string]int{
		"pre_action_frames":  c.PreActionFrames,
		"hold_frames":        c.HoldFrames,
		"post_action_frames": c.PostActionFrames,
		"cooldown_frames":    c.CooldownFrames,
	} {
		if v < 0 {
			return fmt.Errorf("%s cannot be negative (%d)", name, v)
		}
	}
	if _, err := c.TerminalScanCode(); err != nil {
		return fmt.Errorf("terminal_key: %w", err)
	}
	if c.Timesteps < 0 {
		return fmt.Errorf("timesteps cannot be negative (%d)", c.Timesteps)
	}
	return nil
}
