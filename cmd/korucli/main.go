// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/devblok/koru2d/device"
	"github.com/devblok/koru2d/gfx"
	"github.com/devblok/koru2d/gfx/vkr"
	"github.com/devblok/koru2d/internal/sdlwin"
)

var (
	debug  = flag.Bool("debug", false, "Load the validation layers")
	indent = flag.Bool("indent", true, "Indent the output")
)

// report is what gets printed.
type report struct {
	Selected *device.PhysicalDeviceInfo `json:"selected"`
	Ranking  []device.Ranked            `json:"ranking"`
	Error    string                     `json:"error,omitempty"`
}

func main() {
	flag.Parse()
	r, err := inspect()
	if err != nil {
		log.Fatal(err)
	}

	var bytes []byte
	if *indent {
		bytes, err = json.MarshalIndent(r, "", "  ")
	} else {
		bytes, err = json.Marshal(r)
	}
	if err != nil {
		log.Fatal(err)
	}
	fmt.Fprintf(os.Stdout, "%s\n", bytes)
}

func inspect() (report, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return report{}, errors.Wrap(err, "sdl.Init()")
	}
	defer sdl.Quit()
	if err := sdl.VulkanLoadLibrary(""); err != nil {
		return report{}, errors.Wrap(err, "sdl.VulkanLoadLibrary()")
	}
	defer sdl.VulkanUnloadLibrary()

	window := sdlwin.New("korucli", 64, 64)
	window.Hidden()
	window.NoClientAPI()
	if err := window.Create(); err != nil {
		return report{}, err
	}
	defer window.Destroy()

	drv, err := vkr.Open(gfx.InstanceConfig{
		ApplicationName: "korucli",
		DebugMode:       *debug,
	}, window, log.StandardLogger())
	if err != nil {
		return report{}, err
	}
	defer drv.Close()

	adapters, err := drv.Adapters()
	if err != nil {
		return report{}, err
	}

	r := report{Ranking: device.Ranking(adapters, device.DefaultExtensions)}
	if i, err := device.Select(adapters, device.DefaultExtensions); err != nil {
		r.Error = err.Error()
	} else {
		r.Selected = &adapters[i]
	}
	return r, nil
}
