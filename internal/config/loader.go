package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// LoadFromINI loads configuration from a Settings.ini file. Missing keys
// keep their defaults.
func LoadFromINI(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	d := NewDefaultConfig()
	config := &Config{}

	env := file.Section("Environment")
	config.AppClassName = env.Key("app_class_name").MustString(d.AppClassName)
	config.AppWindowName = env.Key("app_window_name").MustString(d.AppWindowName)
	config.UseRGB = env.Key("use_rgb").MustBool(d.UseRGB)
	config.ShrinkRatio = env.Key("shrink_ratio").MustFloat64(d.ShrinkRatio)
	config.ClipTop = env.Key("clip_top").MustInt(d.ClipTop)
	config.ClipBottom = env.Key("clip_bottom").MustInt(d.ClipBottom)
	config.ClipLeft = env.Key("clip_left").MustInt(d.ClipLeft)
	config.ClipRight = env.Key("clip_right").MustInt(d.ClipRight)
	config.RecheckWindow = env.Key("recheck_window").MustBool(d.RecheckWindow)
	config.TerminalKey = env.Key("terminal_key").MustString(d.TerminalKey)

	timing := file.Section("Timing")
	config.PreActionFrames = timing.Key("pre_action_frames").MustInt(d.PreActionFrames)
	config.HoldFrames = timing.Key("hold_frames").MustInt(d.HoldFrames)
	config.PostActionFrames = timing.Key("post_action_frames").MustInt(d.PostActionFrames)
	config.CooldownFrames = timing.Key("cooldown_frames").MustInt(d.CooldownFrames)

	paths := file.Section("Paths")
	config.TemplatesDir = paths.Key("templates_dir").MustString(d.TemplatesDir)
	config.TemplatesFile = paths.Key("templates_file").MustString(d.TemplatesFile)
	config.ScenarioFile = paths.Key("scenario_file").MustString(d.ScenarioFile)
	config.SnapshotPath = paths.Key("snapshot_path").String()
	if !paths.HasKey("snapshot_path") {
		config.SnapshotPath = d.SnapshotPath
	}
	config.DatabasePath = paths.Key("database_path").String()
	if !paths.HasKey("database_path") {
		config.DatabasePath = d.DatabasePath
	}
	config.ModelPath = paths.Key("model_path").MustString(d.ModelPath)
	config.LogDir = paths.Key("log_dir").MustString(d.LogDir)

	logging := file.Section("Logging")
	config.LogLevel = logging.Key("level").MustString(d.LogLevel)
	config.EventLog = logging.Key("event_log").MustBool(d.EventLog)

	training := file.Section("Training")
	config.Timesteps = training.Key("timesteps").MustInt(d.Timesteps)
	config.Seed = training.Key("seed").MustInt64(d.Seed)
	config.BridgeAddr = training.Key("bridge_addr").MustString(d.BridgeAddr)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

// SaveToINI saves configuration to an INI file
func SaveToINI(config *Config, path string) error {
	file := ini.Empty()

	env := file.Section("Environment")
	env.Key("app_class_name").SetValue(config.AppClassName)
	env.Key("app_window_name").SetValue(config.AppWindowName)
	env.Key("use_rgb").SetValue(fmt.Sprintf("%t", config.UseRGB))
	env.Key("shrink_ratio").SetValue(fmt.Sprintf("%g", config.ShrinkRatio))
	env.Key("clip_top").SetValue(fmt.Sprintf("%d", config.ClipTop))
	env.Key("clip_bottom").SetValue(fmt.Sprintf("%d", config.ClipBottom))
	env.Key("clip_left").SetValue(fmt.Sprintf("%d", config.ClipLeft))
	env.Key("clip_right").SetValue(fmt.Sprintf("%d", config.ClipRight))
	env.Key("recheck_window").SetValue(fmt.Sprintf("%t", config.RecheckWindow))
	env.Key("terminal_key").SetValue(config.TerminalKey)

	timing := file.Section("Timing")
	timing.Key("pre_action_frames").SetValue(fmt.Sprintf("%d", config.PreActionFrames))
	timing.Key("hold_frames").SetValue(fmt.Sprintf("%d", config.HoldFrames))
	timing.Key("post_action_frames").SetValue(fmt.Sprintf("%d", config.PostActionFrames))
	timing.Key("cooldown_frames").SetValue(fmt.Sprintf("%d", config.CooldownFrames))

	paths := file.Section("Paths")
	paths.Key("templates_dir").SetValue(config.TemplatesDir)
	paths.Key("templates_file").SetValue(config.TemplatesFile)
	paths.Key("scenario_file").SetValue(config.ScenarioFile)
	paths.Key("snapshot_path").SetValue(config.SnapshotPath)
	paths.Key("database_path").SetValue(config.DatabasePath)
	paths.Key("model_path").SetValue(config.ModelPath)
	paths.Key("log_dir").SetValue(config.LogDir)

	logging := file.Section("Logging")
	logging.Key("level").SetValue(config.LogLevel)
	logging.Key("event_log").SetValue(fmt.Sprintf("%t", config.EventLog))

	training := file.Section("Training")
	training.Key("timesteps").SetValue(fmt.Sprintf("%d", config.Timesteps))
	training.Key("seed").SetValue(fmt.Sprintf("%d", config.Seed))
	training.Key("bridge_addr").SetValue(config.BridgeAddr)

	return file.SaveTo(path)
}
