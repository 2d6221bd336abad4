// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/koru2d/gfx"
)

func TestStatus(t *testing.T) {
	c := qt.New(t)

	tests := []struct {
		result vk.Result
		want   gfx.Status
	}{
		{vk.Success, gfx.StatusSuccess},
		{vk.Suboptimal, gfx.StatusSuboptimal},
		{vk.ErrorOutOfDate, gfx.StatusOutOfDate},
	}
	for _, test := range tests {
		st, err := status(test.result, "vk.QueuePresent()")
		c.Assert(err, qt.IsNil)
		c.Assert(st, qt.Equals, test.want)
	}

	_, err := status(vk.ErrorDeviceLost, "vk.QueuePresent()")
	c.Assert(errors.Is(err, gfx.ErrDevice), qt.IsTrue)
	c.Assert(err, qt.ErrorMatches, `vk\.QueuePresent\(\): .*`)
}

func TestTransition(t *testing.T) {
	c := qt.New(t)

	src, dst, srcStage, dstStage, err := transition(gfx.ImageLayoutUndefined, gfx.ImageLayoutTransferDst)
	c.Assert(err, qt.IsNil)
	c.Assert(src, qt.Equals, vk.AccessFlags(0))
	c.Assert(dst, qt.Equals, vk.AccessFlags(vk.AccessTransferWriteBit))
	c.Assert(srcStage, qt.Equals, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit))
	c.Assert(dstStage, qt.Equals, vk.PipelineStageFlags(vk.PipelineStageTransferBit))

	src, dst, srcStage, dstStage, err = transition(gfx.ImageLayoutTransferDst, gfx.ImageLayoutShaderReadOnly)
	c.Assert(err, qt.IsNil)
	c.Assert(src, qt.Equals, vk.AccessFlags(vk.AccessTransferWriteBit))
	c.Assert(dst, qt.Equals, vk.AccessFlags(vk.AccessShaderReadBit))
	c.Assert(srcStage, qt.Equals, vk.PipelineStageFlags(vk.PipelineStageTransferBit))
	c.Assert(dstStage, qt.Equals, vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit))

	_, _, _, _, err = transition(gfx.ImageLayoutShaderReadOnly, gfx.ImageLayoutTransferDst)
	c.Assert(errors.Is(err, gfx.ErrMisuse), qt.IsTrue)
}

func TestVersionString(t *testing.T) {
	c := qt.New(t)
	c.Assert(versionString(vk.MakeVersion(1, 2, 131)), qt.Equals, "1.2.131")
	c.Assert(versionString(0), qt.Equals, "0.0.0")
}

func TestColorBlend(t *testing.T) {
	c := qt.New(t)

	off := colorBlend(gfx.BlendNone)
	c.Assert(off.BlendEnable, qt.Equals, vk.Bool32(vk.False))
	c.Assert(off.ColorWriteMask, qt.Equals, vk.ColorComponentFlags(0xF))

	alpha := colorBlend(gfx.BlendAlpha)
	c.Assert(alpha.BlendEnable, qt.Equals, vk.Bool32(vk.True))
	c.Assert(alpha.SrcColorBlendFactor, qt.Equals, vk.BlendFactorSrcAlpha)
	c.Assert(alpha.DstColorBlendFactor, qt.Equals, vk.BlendFactorOneMinusSrcAlpha)
	c.Assert(alpha.ColorBlendOp, qt.Equals, vk.BlendOpAdd)
}

func TestTable(t *testing.T) {
	c := qt.New(t)

	var tb table[string]
	a := tb.put("a")
	b := tb.put("b")
	c.Assert(a, qt.Not(qt.Equals), b)
	c.Assert(a, qt.Not(qt.Equals), uint64(0))
	c.Assert(tb.get(a), qt.Equals, "a")
	c.Assert(tb.len(), qt.Equals, 2)

	v, ok := tb.take(a)
	c.Assert(ok, qt.IsTrue)
	c.Assert(v, qt.Equals, "a")
	_, ok = tb.take(a)
	c.Assert(ok, qt.IsFalse)

	tb.put("c")
	tb.drop(func(s string) bool { return s == "b" })
	c.Assert(tb.len(), qt.Equals, 1)
}
