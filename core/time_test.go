// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestFrameTime(t *testing.T) {
	c := qt.New(t)
	ts := NewTime(TimeConfiguration{FramesPerSecond: 60, EventPollDelay: 10})
	defer ts.Stop()
	c.Assert(ts.Fps(), qt.Equals, 60)

	now := time.Unix(100, 0)
	ts.now = func() time.Time { return now }
	c.Assert(ts.FrameTime(), qt.Equals, 0.0)

	now = now.Add(250 * time.Millisecond)
	c.Assert(ts.FrameTime(), qt.Equals, 0.25)
	now = now.Add(time.Second)
	c.Assert(ts.FrameTime(), qt.Equals, 1.0)
}

func TestUnlimitedTicker(t *testing.T) {
	c := qt.New(t)
	ts := NewTime(TimeConfiguration{})
	defer ts.Stop()

	select {
	case <-ts.FpsTicker().C:
	case <-time.After(time.Second):
		c.Fatal("fps ticker never fired")
	}
	select {
	case <-ts.EventTicker().C:
	case <-time.After(time.Second):
		c.Fatal("event ticker never fired")
	}
}
