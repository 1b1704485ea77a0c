package array

import (
	"fmt"

	fx "github.com/robotalks/ceiling.go/pkg/framework"
	"github.com/robotalks/ceiling.go/pkg/motor"
)

// Registry is the validated set of connected devices. It's built once
// per session and read-only afterwards.
type Registry struct {
	devices []*Device
}

// Register validates devices as a whole: array indices are unique and in
// [0, MaxArrays), motor counts are in [1, MaxMotors]. On any violation no
// Registry is returned and the caller owns closing the devices.
func Register(limits motor.Limits, devices []*Device) (*Registry, error) {
	byIndex := make(map[int]*Device, len(devices))
	for _, dev := range devices {
		if prev, ok := byIndex[dev.ArrayIndex]; ok {
			return nil, &Error{
				Kind:       DuplicateIdentity,
				Device:     dev.Addr,
				ArrayIndex: dev.ArrayIndex,
				Err:        fmt.Errorf("also reported by %s", prev.Addr),
			}
		}
		byIndex[dev.ArrayIndex] = dev
	}
	for _, dev := range devices {
		if dev.ArrayIndex < 0 || dev.ArrayIndex >= limits.MaxArrays {
			return nil, &Error{
				Kind:       OutOfRangeIdentity,
				Device:     dev.Addr,
				ArrayIndex: -1,
				Err:        fmt.Errorf("array index %d not in [0, %d)", dev.ArrayIndex, limits.MaxArrays),
			}
		}
	}
	for _, dev := range devices {
		if dev.MotorCount < 1 || dev.MotorCount > limits.MaxMotors {
			return nil, &Error{
				Kind:       OutOfRangeIdentity,
				Device:     dev.Addr,
				ArrayIndex: dev.ArrayIndex,
				Err:        fmt.Errorf("motor count %d not in [1, %d]", dev.MotorCount, limits.MaxMotors),
			}
		}
	}
	return &Registry{devices: append([]*Device(nil), devices...)}, nil
}

// Devices returns devices in registration order.
func (r *Registry) Devices() []*Device {
	return append([]*Device(nil), r.devices...)
}

// Targets returns the motor targets in registration order.
func (r *Registry) Targets() []motor.Target {
	targets := make([]motor.Target, len(r.devices))
	for n, dev := range r.devices {
		targets[n] = dev.Target()
	}
	return targets
}

// Close closes all devices.
func (r *Registry) Close() error {
	return closeAll(r.devices)
}

func closeAll(devices []*Device) error {
	var errs fx.AggregatedError
	for _, dev := range devices {
		if err := dev.Close(); err != nil {
			errs.Add(fmt.Errorf("close %s: %v", dev.Addr, err))
		}
	}
	return errs.Aggregate()
}
