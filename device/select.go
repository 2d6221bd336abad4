// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import "github.com/pkg/errors"

const (
	// SwapchainExtension is required on every device that presents.
	SwapchainExtension = "VK_KHR_swapchain"

	// Disqualified is the score of a device that can not be used.
	Disqualified = -1

	discreteBonus = 100000
	mebibyte      = 1024 * 1024
)

// DefaultExtensions are the device extensions required by the renderer.
var DefaultExtensions = []string{SwapchainExtension}

// QueueFamilies holds the chosen graphics and present family indices,
// -1 means not found.
type QueueFamilies struct {
	Graphics int
	Present  int
}

// Complete reports whether both families were found.
func (q QueueFamilies) Complete() bool {
	return q.Graphics >= 0 && q.Present >= 0
}

// Shared reports whether a single family does graphics and present.
func (q QueueFamilies) Shared() bool {
	return q.Graphics == q.Present
}

// Unique returns the distinct family indices, graphics first.
func (q QueueFamilies) Unique() []int {
	if q.Shared() {
		return []int{q.Graphics}
	}
	return []int{q.Graphics, q.Present}
}

// FindQueueFamilies walks the families in order, remembering the last
// graphics and the last present family seen until both are known.
func FindQueueFamilies(families []QueueFamily) QueueFamilies {
	found := QueueFamilies{Graphics: -1, Present: -1}
	for _, f := range families {
		if f.Graphics {
			found.Graphics = f.Index
		}
		if f.Present {
			found.Present = f.Index
		}
		if found.Complete() {
			break
		}
	}
	return found
}

// Score rates the device, higher is better. Devices that lack a queue
// family, a required extension, or any surface format or present mode
// are Disqualified.
func Score(info PhysicalDeviceInfo, required []string) int {
	if info.Invalid {
		return Disqualified
	}
	if !FindQueueFamilies(info.QueueFamilies).Complete() {
		return Disqualified
	}
	for _, ext := range required {
		if !info.HasExtension(ext) {
			return Disqualified
		}
	}
	if info.FormatCount == 0 || info.PresentModeCount == 0 {
		return Disqualified
	}

	score := int(info.DeviceLocalMemory / mebibyte)
	if info.Type == TypeDiscrete {
		score += discreteBonus
	}
	return score
}

// Select returns the position of the best device. Only a strictly greater
// score replaces the current best, so ties go to the first device.
func Select(devices []PhysicalDeviceInfo, required []string) (int, error) {
	if len(devices) == 0 {
		return -1, errors.Wrap(ErrUnsupported, "no physical devices")
	}

	best, bestScore := -1, Disqualified
	for i, d := range devices {
		if s := Score(d, required); best < 0 || s > bestScore {
			best, bestScore = i, s
		}
	}
	if bestScore < 0 {
		return -1, errors.Wrapf(ErrUnsupported, "no suitable physical device among %d", len(devices))
	}
	return best, nil
}

// Ranked is a device together with its score.
type Ranked struct {
	Info  PhysicalDeviceInfo
	Score int
}

// Ranking scores every device, keeping enumeration order.
func Ranking(devices []PhysicalDeviceInfo, required []string) []Ranked {
	ranked := make([]Ranked, len(devices))
	for i, d := range devices {
		ranked[i] = Ranked{Info: d, Score: Score(d, required)}
	}
	return ranked
}
