// Copyright 2026 The webtri Authors
// SPDX-License-Identifier: MIT

package native

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan" // register the Vulkan HAL backend

	"github.com/webtri/webtri/backend"
)

// Device errors.
var (
	// ErrNoGPU is returned when no adapter could be found.
	ErrNoGPU = errors.New("native: no GPU adapter available")

	// ErrNilProvider is returned by DeviceFromProvider for a nil provider.
	ErrNilProvider = errors.New("native: nil device provider")

	// ErrNoHALDevice is returned when a provider does not expose HAL objects.
	ErrNoHALDevice = errors.New("native: provider does not expose a HAL device and queue")
)

// Device is a HAL device and its queue. Devices opened by OpenDevice own
// their instance and release it on Close; devices wrapping a host's objects
// leave them alone.
type Device struct {
	Device hal.Device
	Queue  hal.Queue

	// Adapter is the adapter name, when known.
	Adapter string

	instance hal.Instance
	owned    bool
}

// Available reports whether the Vulkan HAL backend is registered.
func Available() bool {
	_, ok := hal.GetBackend(gputypes.BackendVulkan)
	return ok
}

// OpenDevice creates a standalone Vulkan device, preferring discrete and
// integrated GPUs over software adapters.
func OpenDevice() (*Device, error) {
	api, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("native: vulkan backend not available: %w", ErrNoGPU)
	}
	instance, err := api.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("native: create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoGPU
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	open, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("native: open device: %w", err)
	}
	backend.Logger().Info("native: GPU initialized", "adapter", selected.Info.Name)
	return &Device{
		Device:   open.Device,
		Queue:    open.Queue,
		Adapter:  selected.Info.Name,
		instance: instance,
		owned:    true,
	}, nil
}

// NewDevice wraps a device and queue owned by the caller.
func NewDevice(device hal.Device, queue hal.Queue) *Device {
	return &Device{Device: device, Queue: queue}
}

// DeviceFromProvider shares the device of a host application. The provider
// must also expose its HAL objects through HalDevice() any and
// HalQueue() any, as gogpu providers do.
func DeviceFromProvider(p gpucontext.DeviceProvider) (*Device, error) {
	if p == nil {
		return nil, ErrNilProvider
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := p.(halProvider)
	if !ok {
		return nil, ErrNoHALDevice
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is %T", ErrNoHALDevice, hp.HalDevice())
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is %T", ErrNoHALDevice, hp.HalQueue())
	}
	backend.Logger().Debug("native: using host device", "format", p.SurfaceFormat())
	return NewDevice(device, queue), nil
}

// Close releases the device if this Device opened it.
func (d *Device) Close() {
	if d == nil || !d.owned {
		return
	}
	if d.Device != nil {
		d.Device.Destroy()
		d.Device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}
