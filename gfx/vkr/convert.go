// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/koru2d/gfx"
)

func extentFrom(e vk.Extent2D) gfx.Extent {
	return gfx.Extent{Width: e.Width, Height: e.Height}
}

func extentTo(e gfx.Extent) vk.Extent2D {
	return vk.Extent2D{Width: e.Width, Height: e.Height}
}

func versionString(v uint32) string {
	return fmt.Sprintf("%d.%d.%d", v>>22, (v>>12)&0x3ff, v&0xfff)
}

// status folds the presentation results that only ask for a recreate.
func status(result vk.Result, call string) (gfx.Status, error) {
	switch result {
	case vk.Success:
		return gfx.StatusSuccess, nil
	case vk.Suboptimal:
		return gfx.StatusSuboptimal, nil
	case vk.ErrorOutOfDate:
		return gfx.StatusOutOfDate, nil
	}
	return gfx.StatusSuccess, gfx.Fatal(vk.Error(result), call)
}

// transition returns the access masks and stages of a supported barrier.
func transition(from, to gfx.ImageLayout) (srcAccess, dstAccess vk.AccessFlags, srcStage, dstStage vk.PipelineStageFlags, err error) {
	switch {
	case from == gfx.ImageLayoutUndefined && to == gfx.ImageLayoutTransferDst:
		return 0, vk.AccessFlags(vk.AccessTransferWriteBit),
			vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			vk.PipelineStageFlags(vk.PipelineStageTransferBit), nil
	case from == gfx.ImageLayoutTransferDst && to == gfx.ImageLayoutShaderReadOnly:
		return vk.AccessFlags(vk.AccessTransferWriteBit), vk.AccessFlags(vk.AccessShaderReadBit),
			vk.PipelineStageFlags(vk.PipelineStageTransferBit),
			vk.PipelineStageFlags(vk.PipelineStageFragmentShaderBit), nil
	}
	return 0, 0, 0, 0, gfx.Misuse("unsupported layout transition %d to %d", from, to)
}

func colorBlend(mode gfx.BlendMode) vk.PipelineColorBlendAttachmentState {
	state := vk.PipelineColorBlendAttachmentState{
		ColorWriteMask: vk.ColorComponentFlags(
			vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit,
		),
		BlendEnable: vk.False,
	}
	if mode == gfx.BlendAlpha {
		state.BlendEnable = vk.True
		state.SrcColorBlendFactor = vk.BlendFactorSrcAlpha
		state.DstColorBlendFactor = vk.BlendFactorOneMinusSrcAlpha
		state.ColorBlendOp = vk.BlendOpAdd
		state.SrcAlphaBlendFactor = vk.BlendFactorOne
		state.DstAlphaBlendFactor = vk.BlendFactorZero
		state.AlphaBlendOp = vk.BlendOpAdd
	}
	return state
}

func inputRate(perInstance bool) vk.VertexInputRate {
	if perInstance {
		return vk.VertexInputRateInstance
	}
	return vk.VertexInputRateVertex
}
