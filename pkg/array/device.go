package array

import (
	"fmt"
	"sync/atomic"

	"github.com/robotalks/ceiling.go/pkg/l0/comm"
	"github.com/robotalks/ceiling.go/pkg/motor"
)

// State is the lifecycle state of a Device.
type State int32

// States
const (
	StateOpening State = iota
	StateAwaitingHandshake
	StateReady
	StateBusy
	StateFailed
	StateClosed
)

var stateNames = [...]string{
	StateOpening:           "opening",
	StateAwaitingHandshake: "awaiting handshake",
	StateReady:             "ready",
	StateBusy:              "busy",
	StateFailed:            "failed",
	StateClosed:            "closed",
}

// String implements fmt.Stringer.
func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Device is one connected array.
//
// The Channel is used by a single goroutine at a time: the handshake
// while connecting, then the executor worker owning the device for the
// duration of a batch.
type Device struct {
	Addr    string
	Channel *comm.Channel

	// ArrayIndex and MotorCount are reported by the firmware during
	// handshake and fixed for the session.
	ArrayIndex int
	MotorCount int

	state     int32
	handshook bool
}

// NewDevice creates a Device over an opened channel.
func NewDevice(addr string, ch *comm.Channel) *Device {
	return &Device{Addr: addr, Channel: ch, ArrayIndex: -1}
}

// State gets the current state.
func (d *Device) State() State {
	return State(atomic.LoadInt32(&d.state))
}

func (d *Device) setState(s State) {
	atomic.StoreInt32(&d.state, int32(s))
}

// Target returns the motors addressed on this device.
func (d *Device) Target() motor.Target {
	return motor.Target{ArrayIndex: d.ArrayIndex, MotorCount: d.MotorCount}
}

// Close closes the channel.
func (d *Device) Close() error {
	d.setState(StateClosed)
	if d.Channel == nil {
		return nil
	}
	return d.Channel.Close()
}

// String implements fmt.Stringer.
func (d *Device) String() string {
	if d.handshook {
		return fmt.Sprintf("array %d (%s)", d.ArrayIndex, d.Addr)
	}
	return d.Addr
}

func (d *Device) knownIndex() int {
	if d.handshook {
		return d.ArrayIndex
	}
	return -1
}
