// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	"github.com/sirupsen/logrus"
	vk "github.com/vulkan-go/vulkan"

	"github.com/devblok/koru2d/gfx"
)

const (
	validationLayer      = "VK_LAYER_LUNARG_standard_validation"
	debugReportExtension = "VK_EXT_debug_report"
)

// DefaultApplicationInfo describes the engine to the vulkan loader.
var DefaultApplicationInfo = &vk.ApplicationInfo{
	SType:              vk.StructureTypeApplicationInfo,
	ApiVersion:         vk.MakeVersion(1, 0, 0),
	ApplicationVersion: vk.MakeVersion(1, 0, 0),
	PApplicationName:   safeString("Koru2D"),
	PEngineName:        safeString("Koru2D"),
}

// Open loads vulkan, creates the instance and the window surface. With
// DebugMode the validation layer is enabled and its reports go to log.
func Open(cfg gfx.InstanceConfig, win gfx.Window, log logrus.FieldLogger) (*Driver, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	log = log.WithField("component", "vkr")

	extensions := append(append([]string(nil), cfg.Extensions...), win.RequiredExtensions()...)
	layers := append([]string(nil), cfg.Layers...)
	if cfg.DebugMode {
		layers = append(layers, validationLayer)
		extensions = append(extensions, debugReportExtension)
	}

	if proc := win.ProcAddr(); proc == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, gfx.Fatal(err, "vk.SetDefaultGetInstanceProcAddr()")
		}
	} else {
		vk.SetGetInstanceProcAddr(proc)
	}

	if err := vk.Init(); err != nil {
		return nil, gfx.Fatal(err, "vk.Init()")
	}

	appInfo := *DefaultApplicationInfo
	if cfg.ApplicationName != "" {
		appInfo.PApplicationName = safeString(cfg.ApplicationName)
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
	}

	d := &Driver{log: log}
	if err := vk.Error(vk.CreateInstance(&instanceInfo, nil, &d.instance)); err != nil {
		return nil, gfx.Fatal(err, "vk.CreateInstance()")
	}
	vk.InitInstance(d.instance)

	if cfg.DebugMode {
		if err := d.createDebugReport(); err != nil {
			log.WithError(err).Warn("debug report unavailable")
		}
	}

	pSurface, err := win.CreateSurface(d.instance)
	if err != nil {
		d.Close()
		return nil, gfx.Fatal(err, "window.CreateSurface()")
	}
	d.surface = vk.SurfaceFromPointer(uintptr(pSurface))

	if err := d.enumerateDevices(); err != nil {
		d.Close()
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"extensions": extensions,
		"layers":     layers,
	}).Debug("instance created")
	return d, nil
}

func (d *Driver) createDebugReport() error {
	info := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit | vk.DebugReportDebugBit),
		PfnCallback: d.report,
	}
	if err := vk.Error(vk.CreateDebugReportCallback(d.instance, &info, nil, &d.debug)); err != nil {
		return gfx.Fatal(err, "vk.CreateDebugReportCallback()")
	}
	return nil
}

// report routes validation messages by severity. Returning false lets the
// call that triggered the message continue.
func (d *Driver) report(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
	object uint64, location uint, messageCode int32, pLayerPrefix string,
	pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

	entry := d.log.WithFields(logrus.Fields{
		"layer": pLayerPrefix,
		"code":  messageCode,
	})
	switch severity(flags) {
	case logrus.ErrorLevel:
		entry.Error(pMessage)
	case logrus.WarnLevel:
		entry.Warn(pMessage)
	case logrus.InfoLevel:
		entry.Info(pMessage)
	default:
		entry.Debug(pMessage)
	}
	return vk.Bool32(vk.False)
}

func severity(flags vk.DebugReportFlags) logrus.Level {
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		return logrus.ErrorLevel
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		return logrus.WarnLevel
	case flags&vk.DebugReportFlags(vk.DebugReportInformationBit) != 0:
		return logrus.InfoLevel
	}
	return logrus.DebugLevel
}

func safeString(s string) string {
	if len(s) == 0 || s[len(s)-1] != '\x00' {
		return s + "\x00"
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}
