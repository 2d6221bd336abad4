// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package render

import (
	"github.com/sirupsen/logrus"

	"github.com/devblok/koru2d/gfx"
)

// MaxTextureDescriptors is how many textures may ever be created.
const MaxTextureDescriptors = 256

// DescriptorRegistry owns the single texture descriptor layout and the
// pool every texture set comes from. Sets live until the pool goes.
type DescriptorRegistry struct {
	drv       gfx.Driver
	layout    gfx.DescriptorSetLayout
	pool      gfx.DescriptorPool
	allocated int
}

// NewDescriptorRegistry creates the layout and the pool.
func NewDescriptorRegistry(drv gfx.Driver, log logrus.FieldLogger) (*DescriptorRegistry, error) {
	layout, err := drv.CreateDescriptorSetLayout()
	if err != nil {
		return nil, gfx.Fatal(err, "create descriptor set layout")
	}
	pool, err := drv.CreateDescriptorPool(MaxTextureDescriptors)
	if err != nil {
		drv.DestroyDescriptorSetLayout(layout)
		return nil, gfx.Fatal(err, "create descriptor pool")
	}
	log.WithField("component", "descriptors").
		WithField("sets", MaxTextureDescriptors).
		Debug("descriptor pool created")
	return &DescriptorRegistry{drv: drv, layout: layout, pool: pool}, nil
}

// Layout every texture set has.
func (r *DescriptorRegistry) Layout() gfx.DescriptorSetLayout {
	return r.layout
}

// Allocated is the number of sets handed out.
func (r *DescriptorRegistry) Allocated() int {
	return r.allocated
}

// Allocate returns a new set already pointing at view through sampler.
func (r *DescriptorRegistry) Allocate(view gfx.ImageView, sampler gfx.Sampler) (gfx.DescriptorSet, error) {
	if r.allocated >= MaxTextureDescriptors {
		return gfx.NullHandle, gfx.Misuse("all %d texture descriptors are in use", MaxTextureDescriptors)
	}
	set, err := r.drv.AllocateDescriptorSet(r.pool, r.layout)
	if err != nil {
		return gfx.NullHandle, gfx.Fatal(err, "allocate descriptor set")
	}
	r.allocated++
	r.drv.WriteImageDescriptor(set, view, sampler)
	return set, nil
}

// Release destroys the pool with every set and then the layout.
func (r *DescriptorRegistry) Release() {
	if r.pool != gfx.NullHandle {
		r.drv.DestroyDescriptorPool(r.pool)
		r.pool = gfx.NullHandle
	}
	if r.layout != gfx.NullHandle {
		r.drv.DestroyDescriptorSetLayout(r.layout)
		r.layout = gfx.NullHandle
	}
	r.allocated = 0
}
