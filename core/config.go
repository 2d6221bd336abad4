// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"os"
	"strconv"
	"strings"

	"github.com/gobuffalo/envy"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/devblok/koru2d/assets"
	"github.com/devblok/koru2d/device"
)

// Environment overrides, applied last.
const (
	EnvVSync    = "KORU_VSYNC"
	EnvDebug    = "KORU_DEBUG"
	EnvFPS      = "KORU_FPS"
	EnvLogLevel = "KORU_LOG_LEVEL"
	// EnvShaders is either a location or "source:location".
	EnvShaders = "KORU_SHADERS"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration     `toml:"time"`
	Instance InstanceConfiguration `toml:"instance"`
	Renderer RendererConfiguration `toml:"renderer"`
	Log      LogConfiguration      `toml:"log"`
	Assets   AssetsConfiguration   `toml:"assets"`
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int `toml:"fps"`

	// EventPollDelay is the pause between event polls in milliseconds
	EventPollDelay int `toml:"event_poll_delay"`
}

// InstanceConfiguration is used to configure the graphics instance
type InstanceConfiguration struct {
	ApplicationName string `toml:"name"`

	// DebugMode loads the validation layers and routes their
	// messages to the log
	DebugMode bool `toml:"debug"`
}

// RendererConfiguration is used to configure the renderer
type RendererConfiguration struct {
	DeviceExtensions []string `toml:"device_extensions"`

	ScreenWidth  uint32 `toml:"width"`
	ScreenHeight uint32 `toml:"height"`
	VSync        bool   `toml:"vsync"`
}

// LogConfiguration selects the level and output format of the log
type LogConfiguration struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AssetsConfiguration tells where compiled shaders are loaded from
type AssetsConfiguration struct {
	Source   string `toml:"source"`
	Location string `toml:"location"`
}

// DefaultConfiguration is used for anything a file or the
// environment does not set
func DefaultConfiguration() Configuration {
	return Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: 144,
			EventPollDelay:  10,
		},
		Instance: InstanceConfiguration{
			ApplicationName: "Koru2D",
		},
		Renderer: RendererConfiguration{
			DeviceExtensions: device.DefaultExtensions,
			ScreenWidth:      800,
			ScreenHeight:     600,
			VSync:            true,
		},
		Log: LogConfiguration{
			Level:  "info",
			Format: "text",
		},
		Assets: AssetsConfiguration{
			Source:   assets.SourceDir,
			Location: ".",
		},
	}
}

// LoadConfiguration reads the TOML file at path over the defaults, then
// a .env file next to the working directory and finally KORU_* variables.
// Missing files are skipped, an empty path reads no TOML.
func LoadConfiguration(path string) (Configuration, error) {
	cfg := DefaultConfiguration()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return cfg, errors.Wrap(err, "read configuration")
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return cfg, errors.Wrapf(err, "parse %s", path)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return cfg, errors.Wrap(err, "load .env")
	}
	envy.Reload()
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Configuration) applyEnv() error {
	if v := envy.Get(EnvVSync, ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, EnvVSync)
		}
		c.Renderer.VSync = b
	}
	if v := envy.Get(EnvDebug, ""); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrap(err, EnvDebug)
		}
		c.Instance.DebugMode = b
	}
	if v := envy.Get(EnvFPS, ""); v != "" {
		fps, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, EnvFPS)
		}
		c.Time.FramesPerSecond = fps
	}
	if v := envy.Get(EnvLogLevel, ""); v != "" {
		c.Log.Level = v
	}
	if v := envy.Get(EnvShaders, ""); v != "" {
		source, location, found := strings.Cut(v, ":")
		if found && knownSource(source) {
			c.Assets.Source = source
			c.Assets.Location = location
		} else {
			c.Assets.Location = v
		}
	}
	return nil
}

func knownSource(s string) bool {
	switch s {
	case assets.SourceDir, assets.SourceBox, assets.SourceKar:
		return true
	}
	return false
}

// Validate reports the first setting the engine can not run with
func (c Configuration) Validate() error {
	if c.Time.FramesPerSecond < 0 {
		return errors.Errorf("negative frames per second %d", c.Time.FramesPerSecond)
	}
	if c.Time.EventPollDelay < 0 {
		return errors.Errorf("negative event poll delay %d", c.Time.EventPollDelay)
	}
	if c.Renderer.ScreenWidth == 0 || c.Renderer.ScreenHeight == 0 {
		return errors.Errorf("screen size %dx%d is empty", c.Renderer.ScreenWidth, c.Renderer.ScreenHeight)
	}
	if !knownSource(c.Assets.Source) {
		return errors.Errorf("unknown asset source %q", c.Assets.Source)
	}
	return nil
}
