// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device_test

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"

	"github.com/devblok/koru2d/device"
)

func usable(name string, typ device.Type, localMiB uint64) device.PhysicalDeviceInfo {
	return device.PhysicalDeviceInfo{
		Name:              name,
		Type:              typ,
		Extensions:        []string{"VK_KHR_maintenance1", device.SwapchainExtension},
		DeviceLocalMemory: localMiB * 1024 * 1024,
		QueueFamilies: []device.QueueFamily{
			{Index: 0, Graphics: true, Present: true},
		},
		FormatCount:      2,
		PresentModeCount: 1,
	}
}

func TestFindQueueFamilies(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name     string
		families []device.QueueFamily
		want     device.QueueFamilies
	}{{
		name: "shared",
		families: []device.QueueFamily{
			{Index: 0, Graphics: true, Present: true},
			{Index: 1, Graphics: true, Present: true},
		},
		want: device.QueueFamilies{Graphics: 0, Present: 0},
	}, {
		name: "split",
		families: []device.QueueFamily{
			{Index: 0, Graphics: true},
			{Index: 1, Present: true},
			{Index: 2, Graphics: true, Present: true},
		},
		want: device.QueueFamilies{Graphics: 0, Present: 1},
	}, {
		name: "last graphics before present",
		families: []device.QueueFamily{
			{Index: 0, Graphics: true},
			{Index: 1, Graphics: true},
			{Index: 2, Present: true},
		},
		want: device.QueueFamilies{Graphics: 1, Present: 2},
	}, {
		name: "no present",
		families: []device.QueueFamily{
			{Index: 0, Graphics: true},
		},
		want: device.QueueFamilies{Graphics: 0, Present: -1},
	}, {
		name: "empty",
		want: device.QueueFamilies{Graphics: -1, Present: -1},
	}}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			c.Assert(device.FindQueueFamilies(tc.families), qt.Equals, tc.want)
		})
	}
}

func TestQueueFamiliesUnique(t *testing.T) {
	c := qt.New(t)
	c.Assert(device.QueueFamilies{Graphics: 1, Present: 1}.Unique(), qt.DeepEquals, []int{1})
	c.Assert(device.QueueFamilies{Graphics: 0, Present: 2}.Unique(), qt.DeepEquals, []int{0, 2})
}

func TestScore(t *testing.T) {
	c := qt.New(t)
	req := device.DefaultExtensions

	c.Assert(device.Score(usable("igpu", device.TypeIntegrated, 512), req), qt.Equals, 512)
	c.Assert(device.Score(usable("dgpu", device.TypeDiscrete, 4096), req), qt.Equals, 104096)

	noExt := usable("a", device.TypeDiscrete, 1024)
	noExt.Extensions = nil
	c.Assert(device.Score(noExt, req), qt.Equals, device.Disqualified)

	noFormats := usable("b", device.TypeDiscrete, 1024)
	noFormats.FormatCount = 0
	c.Assert(device.Score(noFormats, req), qt.Equals, device.Disqualified)

	noModes := usable("c", device.TypeDiscrete, 1024)
	noModes.PresentModeCount = 0
	c.Assert(device.Score(noModes, req), qt.Equals, device.Disqualified)

	noPresent := usable("d", device.TypeDiscrete, 1024)
	noPresent.QueueFamilies = []device.QueueFamily{{Index: 0, Graphics: true}}
	c.Assert(device.Score(noPresent, req), qt.Equals, device.Disqualified)
}

func TestSelect(t *testing.T) {
	c := qt.New(t)
	req := device.DefaultExtensions

	incomplete := usable("incomplete", device.TypeDiscrete, 8192)
	incomplete.QueueFamilies = []device.QueueFamily{{Index: 0, Graphics: true}}

	devices := []device.PhysicalDeviceInfo{
		incomplete,
		usable("igpu", device.TypeIntegrated, 256),
		usable("dgpu", device.TypeDiscrete, 2048),
	}

	idx, err := device.Select(devices, req)
	c.Assert(err, qt.IsNil)
	c.Assert(devices[idx].Name, qt.Equals, "dgpu")

	// Same input, same answer.
	for i := 0; i < 10; i++ {
		again, err := device.Select(devices, req)
		c.Assert(err, qt.IsNil)
		c.Assert(again, qt.Equals, idx)
	}
}

func TestSelectTieGoesToFirst(t *testing.T) {
	c := qt.New(t)
	devices := []device.PhysicalDeviceInfo{
		usable("first", device.TypeDiscrete, 1024),
		usable("second", device.TypeDiscrete, 1024),
	}
	idx, err := device.Select(devices, device.DefaultExtensions)
	c.Assert(err, qt.IsNil)
	c.Assert(idx, qt.Equals, 0)
}

func TestSelectUnsupported(t *testing.T) {
	c := qt.New(t)

	_, err := device.Select(nil, device.DefaultExtensions)
	c.Assert(errors.Is(err, device.ErrUnsupported), qt.IsTrue)

	bad := usable("bad", device.TypeDiscrete, 1024)
	bad.Extensions = nil
	_, err = device.Select([]device.PhysicalDeviceInfo{bad}, device.DefaultExtensions)
	c.Assert(errors.Is(err, device.ErrUnsupported), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, "no suitable physical device among 1: unsupported")
}

func TestRanking(t *testing.T) {
	c := qt.New(t)
	ranked := device.Ranking([]device.PhysicalDeviceInfo{
		usable("a", device.TypeIntegrated, 100),
		usable("b", device.TypeDiscrete, 0),
	}, device.DefaultExtensions)
	c.Assert(ranked, qt.HasLen, 2)
	c.Assert(ranked[0].Score, qt.Equals, 100)
	c.Assert(ranked[1].Score, qt.Equals, 100000)
	c.Assert(ranked[1].Info.Name, qt.Equals, "b")
}
