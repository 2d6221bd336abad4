// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"bytes"
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"

	"github.com/devblok/koru2d/core"
)

func TestNewLogger(t *testing.T) {
	c := qt.New(t)
	log, err := core.NewLogger(core.LogConfiguration{Level: "warn", Format: "json"})
	c.Assert(err, qt.IsNil)
	c.Assert(log.GetLevel(), qt.Equals, logrus.WarnLevel)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.Info("dropped")
	log.WithField("component", "render").Warn("kept")

	var entry map[string]interface{}
	c.Assert(json.Unmarshal(buf.Bytes(), &entry), qt.IsNil)
	c.Assert(entry["msg"], qt.Equals, "kept")
	c.Assert(entry["component"], qt.Equals, "render")
}

func TestNewLoggerErrors(t *testing.T) {
	c := qt.New(t)
	_, err := core.NewLogger(core.LogConfiguration{Level: "loud"})
	c.Assert(err, qt.ErrorMatches, "log level: .*")
	_, err = core.NewLogger(core.LogConfiguration{Level: "info", Format: "xml"})
	c.Assert(err, qt.ErrorMatches, `unknown log format "xml"`)
}
