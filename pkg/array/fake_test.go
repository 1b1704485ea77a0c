package array

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/robotalks/ceiling.go/pkg/l0/comm"
)

// fakeArray plays the firmware on the other end of a pipe.
type fakeArray struct {
	host net.Conn
	dev  net.Conn

	// Banner is written raw once the firmware starts.
	Banner string
	// Stall makes the firmware swallow commands without replying.
	Stall bool
	// Reply is the payload replied to each command.
	Reply string

	received chan string
	closed   chan struct{}
}

func newFakeArray(banner string) *fakeArray {
	host, dev := net.Pipe()
	return &fakeArray{
		host:     host,
		dev:      dev,
		Banner:   banner,
		Reply:    "Done",
		received: make(chan string, 16),
		closed:   make(chan struct{}),
	}
}

func (f *fakeArray) start() *fakeArray {
	go f.serve()
	return f
}

func (f *fakeArray) serve() {
	defer close(f.closed)
	ch := comm.NewChannel(f.dev)
	if f.Banner != "" {
		if _, err := f.dev.Write([]byte(f.Banner)); err != nil {
			return
		}
	}
	for {
		payload, err := ch.ReadFrame(context.Background())
		if err != nil {
			return
		}
		f.received <- string(payload)
		if !f.Stall {
			if err := ch.WriteFrame([]byte(f.Reply)); err != nil {
				return
			}
		}
	}
}

func (f *fakeArray) isClosed(d time.Duration) bool {
	select {
	case <-f.closed:
		return true
	case <-time.After(d):
		return false
	}
}

func (f *fakeArray) stop() {
	f.host.Close()
	f.dev.Close()
}

// readyDevice creates a Device connected to the fake as if handshake
// already completed.
func (f *fakeArray) readyDevice(addr string, index, motors int) *Device {
	dev := NewDevice(addr, comm.NewChannel(f.host).WithName(addr))
	dev.ArrayIndex, dev.MotorCount, dev.handshook = index, motors, true
	dev.setState(StateReady)
	return dev
}

// fakeBus implements Enumerator and Opener over fake arrays.
type fakeBus struct {
	addrs   []string
	arrays  map[string]*fakeArray
	enumErr error
	openErr map[string]error

	lock   sync.Mutex
	opened []string
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		arrays:  make(map[string]*fakeArray),
		openErr: make(map[string]error),
	}
}

func (b *fakeBus) add(addr string, f *fakeArray) *fakeArray {
	b.addrs = append(b.addrs, addr)
	b.arrays[addr] = f
	return f
}

func (b *fakeBus) Enumerate() ([]string, error) {
	if b.enumErr != nil {
		return nil, b.enumErr
	}
	return b.addrs, nil
}

func (b *fakeBus) Open(addr string) (io.ReadWriteCloser, error) {
	if err := b.openErr[addr]; err != nil {
		return nil, err
	}
	f, ok := b.arrays[addr]
	if !ok {
		return nil, errors.New("no such device")
	}
	b.lock.Lock()
	b.opened = append(b.opened, addr)
	b.lock.Unlock()
	f.start()
	return f.host, nil
}

func (b *fakeBus) stop() {
	for _, f := range b.arrays {
		f.stop()
	}
}

func testConfig() Config {
	conf := DefaultConfig()
	conf.HandshakeTimeout = 200 * time.Millisecond
	conf.ExecutionTimeout = 200 * time.Millisecond
	return conf
}

func stopAll(t *testing.T, arrays ...*fakeArray) {
	t.Cleanup(func() {
		for _, f := range arrays {
			f.stop()
		}
	})
}
