package session

import (
	"github.com/spf13/cobra"

	"jordanella.com/kanjuden-gym/internal/config"
)

// Flags are the command line overrides shared by the binaries
type Flags struct {
	Settings      string
	AppClassName  string
	AppWindowName string
	UseRGB        bool
	ShrinkRatio   float64
	ClipTop       int
	ClipBottom    int
	ClipLeft      int
	ClipRight     int
	LogLevel      string
	Viewer        bool

	cmd *cobra.Command
}

// BindFlags registers the environment flags on cmd. viewer is the default of
// --viewer.
func BindFlags(cmd *cobra.Command, viewer bool) *Flags {
	d := config.NewDefaultConfig()
	f := &Flags{cmd: cmd}

	fs := cmd.Flags()
	fs.StringVar(&f.Settings, "settings", "", "Path to Settings.ini (default $"+config.SettingsEnvVar+" or "+config.DefaultSettingsPath+")")
	fs.StringVarP(&f.AppClassName, "app_class_name", "c", d.AppClassName, "Window class name of the game")
	fs.StringVarP(&f.AppWindowName, "app_window_name", "w", d.AppWindowName, "Window title of the game")
	fs.BoolVar(&f.UseRGB, "use_rgb", d.UseRGB, "Keep color observations instead of grayscale")
	fs.Float64Var(&f.ShrinkRatio, "shrink_ratio", d.ShrinkRatio, "Scale factor applied before cropping")
	fs.IntVar(&f.ClipTop, "clip_top", d.ClipTop, "Crop top row (scaled coordinates)")
	fs.IntVar(&f.ClipBottom, "clip_bottom", d.ClipBottom, "Crop bottom row, exclusive")
	fs.IntVar(&f.ClipLeft, "clip_left", d.ClipLeft, "Crop left column")
	fs.IntVar(&f.ClipRight, "clip_right", d.ClipRight, "Crop right column, exclusive")
	fs.StringVar(&f.LogLevel, "log_level", d.LogLevel, "DEBUG, INFO, WARN or ERROR")
	fs.BoolVar(&f.Viewer, "viewer", viewer, "Open the status and render window")
	return f
}

// Load reads the settings file and applies every flag set explicitly
func (f *Flags) Load() (*config.Config, error) {
	cfg, err := config.Load(config.SettingsPath(f.Settings))
	if err != nil {
		return nil, err
	}
	f.Apply(cfg)
	return cfg, cfg.Validate()
}

// Apply copies changed flags onto cfg; flags left at their default keep the
// settings file value
func (f *Flags) Apply(cfg *config.Config) {
	changed := func(name string) bool {
		return f.cmd != nil && f.cmd.Flags().Changed(name)
	}

	if changed("app_class_name") {
		cfg.AppClassName = f.AppClassName
	}
	if changed("app_window_name") {
		cfg.AppWindowName = f.AppWindowName
	}
	if changed("use_rgb") {
		cfg.UseRGB = f.UseRGB
	}
	if changed("shrink_ratio") {
		cfg.ShrinkRatio = f.ShrinkRatio
	}
	if changed("clip_top") {
		cfg.ClipTop = f.ClipTop
	}
	if changed("clip_bottom") {
		cfg.ClipBottom = f.ClipBottom
	}
	if changed("clip_left") {
		cfg.ClipLeft = f.ClipLeft
	}
	if changed("clip_right") {
		cfg.ClipRight = f.ClipRight
	}
	if changed("log_level") {
		cfg.LogLevel = f.LogLevel
	}
}
