// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/koru2d/core"
)

func TestSliceUint32(t *testing.T) {
	c := qt.New(t)
	c.Assert(core.SliceUint32(nil), qt.IsNil)
	c.Assert(core.SliceUint32([]byte{1, 2, 3}), qt.IsNil)
	c.Assert(core.SliceUint32([]byte{0x03, 0x02, 0x23, 0x07}), qt.DeepEquals, []uint32{0x07230203})
	c.Assert(core.SliceUint32(make([]byte, 10)), qt.HasLen, 2)
}

func BenchmarkSliceUint32Small(b *testing.B) {
	data := make([]byte, 100)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Medium(b *testing.B) {
	data := make([]byte, 1000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}

func BenchmarkSliceUint32Big(b *testing.B) {
	data := make([]byte, 100000)
	for idx := 0; idx < b.N; idx++ {
		core.SliceUint32(data)
	}
}
