package array

import (
	"context"
	"fmt"
	"io"

	"github.com/golang/glog"

	fx "github.com/robotalks/ceiling.go/pkg/framework"
	"github.com/robotalks/ceiling.go/pkg/l0/comm"
)

// Enumerator lists addresses of attached devices.
type Enumerator interface {
	Enumerate() ([]string, error)
}

// Opener opens a byte stream to a device.
type Opener interface {
	Open(addr string) (io.ReadWriteCloser, error)
}

// Connector runs the connect phase: enumerate, open, handshake and
// register.
type Connector struct {
	Config     Config
	Enumerator Enumerator
	Opener     Opener
}

// Connect returns a Registry of every attached device or an error. The
// phase is all or nothing: any failure closes every device opened so far
// and the whole phase should be retried from enumeration.
func (c *Connector) Connect(ctx context.Context) (*Registry, error) {
	addrs, err := c.Enumerator.Enumerate()
	if err != nil {
		return nil, NewError(EnumerationError, err)
	}
	glog.Infof("found %d array(s) of max %d", len(addrs), c.Config.Limits.MaxArrays)
	if len(addrs) == 0 {
		return nil, Errorf(EnumerationError, "no arrays found")
	}
	if len(addrs) > c.Config.Limits.MaxArrays {
		return nil, Errorf(EnumerationError, "found %d arrays, more than max %d", len(addrs), c.Config.Limits.MaxArrays)
	}

	devices := make([]*Device, 0, len(addrs))
	for _, addr := range addrs {
		rw, err := c.Opener.Open(addr)
		if err != nil {
			closeAll(devices)
			return nil, &Error{Kind: ConnectionError, Device: addr, ArrayIndex: -1, Err: err}
		}
		ch := comm.NewChannel(rw).WithName(addr)
		ch.Markers = c.Config.Markers
		devices = append(devices, NewDevice(addr, ch))
		glog.V(1).Infof("%s: opened", addr)
	}

	if err := c.handshakeAll(ctx, devices); err != nil {
		glog.Errorf("handshake failed, closing all %d connection(s): %v", len(devices), err)
		closeAll(devices)
		return nil, err
	}

	reg, err := Register(c.Config.Limits, devices)
	if err != nil {
		glog.Errorf("registry rejected, closing all %d connection(s): %v", len(devices), err)
		closeAll(devices)
		return nil, err
	}
	return reg, nil
}

func (c *Connector) handshakeAll(ctx context.Context, devices []*Device) error {
	runner := fx.NewRunnerWith(ctx)
	for _, dev := range devices {
		dev := dev
		runner.Go(fx.NamedFunc(dev.Addr, func(ctx context.Context) error {
			return Handshake(ctx, dev, c.Config)
		}))
	}
	if err := runner.Wait(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}
