// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/koru2d/assets"
	"github.com/devblok/koru2d/core"
)

const configFile = `
[time]
fps = 60

[renderer]
width = 1280
height = 720
vsync = false

[assets]
source = "kar"
location = "shaders.kar"
`

func writeConfig(c *qt.C, content string) string {
	path := filepath.Join(c.TempDir(), "koru.toml")
	c.Assert(os.WriteFile(path, []byte(content), 0o644), qt.IsNil)
	return path
}

func TestDefaultConfiguration(t *testing.T) {
	c := qt.New(t)
	cfg, err := core.LoadConfiguration("")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, core.DefaultConfiguration())
	c.Assert(cfg.Validate(), qt.IsNil)
}

func TestLoadConfigurationFile(t *testing.T) {
	c := qt.New(t)
	cfg, err := core.LoadConfiguration(writeConfig(c, configFile))
	c.Assert(err, qt.IsNil)

	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 60)
	c.Assert(cfg.Time.EventPollDelay, qt.Equals, core.DefaultConfiguration().Time.EventPollDelay)
	c.Assert(cfg.Renderer.ScreenWidth, qt.Equals, uint32(1280))
	c.Assert(cfg.Renderer.ScreenHeight, qt.Equals, uint32(720))
	c.Assert(cfg.Renderer.VSync, qt.IsFalse)
	c.Assert(cfg.Assets, qt.Equals, core.AssetsConfiguration{Source: assets.SourceKar, Location: "shaders.kar"})
	c.Assert(cfg.Log.Level, qt.Equals, "info")
}

func TestLoadConfigurationMissingFile(t *testing.T) {
	c := qt.New(t)
	cfg, err := core.LoadConfiguration(filepath.Join(c.TempDir(), "none.toml"))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, core.DefaultConfiguration())
}

func TestLoadConfigurationBadFile(t *testing.T) {
	c := qt.New(t)
	_, err := core.LoadConfiguration(writeConfig(c, "[time\nfps = "))
	c.Assert(err, qt.ErrorMatches, "(?s)parse .*koru.toml: .*")
}

func TestEnvironmentOverrides(t *testing.T) {
	c := qt.New(t)
	c.Setenv(core.EnvFPS, "30")
	c.Setenv(core.EnvVSync, "false")
	c.Setenv(core.EnvDebug, "1")
	c.Setenv(core.EnvLogLevel, "debug")
	c.Setenv(core.EnvShaders, "box:./shaders")

	cfg, err := core.LoadConfiguration(writeConfig(c, configFile))
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Time.FramesPerSecond, qt.Equals, 30)
	c.Assert(cfg.Renderer.VSync, qt.IsFalse)
	c.Assert(cfg.Instance.DebugMode, qt.IsTrue)
	c.Assert(cfg.Log.Level, qt.Equals, "debug")
	c.Assert(cfg.Assets, qt.Equals, core.AssetsConfiguration{Source: assets.SourceBox, Location: "./shaders"})
}

func TestEnvironmentShaderLocation(t *testing.T) {
	c := qt.New(t)
	c.Setenv(core.EnvShaders, "C:/games/shaders")

	cfg, err := core.LoadConfiguration("")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Assets, qt.Equals, core.AssetsConfiguration{Source: assets.SourceDir, Location: "C:/games/shaders"})
}

func TestEnvironmentBadValue(t *testing.T) {
	c := qt.New(t)
	c.Setenv(core.EnvFPS, "fast")

	_, err := core.LoadConfiguration("")
	c.Assert(err, qt.ErrorMatches, "KORU_FPS: .*invalid syntax")
}

func TestValidate(t *testing.T) {
	c := qt.New(t)
	tests := []struct {
		about  string
		change func(*core.Configuration)
		err    string
	}{{
		about:  "negative fps",
		change: func(cfg *core.Configuration) { cfg.Time.FramesPerSecond = -1 },
		err:    "negative frames per second -1",
	}, {
		about:  "empty screen",
		change: func(cfg *core.Configuration) { cfg.Renderer.ScreenHeight = 0 },
		err:    "screen size 800x0 is empty",
	}, {
		about:  "unknown source",
		change: func(cfg *core.Configuration) { cfg.Assets.Source = "zip" },
		err:    `unknown asset source "zip"`,
	}}
	for _, test := range tests {
		c.Run(test.about, func(c *qt.C) {
			cfg := core.DefaultConfiguration()
			test.change(&cfg)
			c.Assert(cfg.Validate(), qt.ErrorMatches, test.err)
		})
	}
}
