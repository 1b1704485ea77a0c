// Package ceiling drives a kinetic ceiling: a handful of motor arrays,
// each behind its own serial link, moved from a current to a desired
// position grid.
package ceiling

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/ceiling.go/pkg/array"
	"github.com/robotalks/ceiling.go/pkg/motor"
	"github.com/robotalks/ceiling.go/pkg/report"
	"github.com/robotalks/ceiling.go/pkg/store"
)

// Run modes.
const (
	ModeCSV    = "csv"
	ModeReset  = "reset"
	ModeManual = "manual"
)

// ErrNotConnected is returned by operations requiring connected arrays.
var ErrNotConnected = errors.New("not connected")

// Controller owns one session with the arrays. Operations are
// serialized: at most one batch is in flight.
type Controller struct {
	Connector *array.Connector
	Executor  *array.Executor
	Store     *store.CSV
	Reporter  report.Reporter

	lock     sync.Mutex
	registry *array.Registry
}

// Connect runs the connect phase, replacing any previous session.
func (c *Controller) Connect(ctx context.Context) ([]*array.Device, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.registry != nil {
		c.closeRegistry()
	}
	reg, err := c.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	c.registry = reg
	devices := reg.Devices()
	glog.Infof("connected %d array(s)", len(devices))
	c.reportDevices(devices)
	return devices, nil
}

// Connected tells whether a session is open.
func (c *Controller) Connected() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.registry != nil
}

// Devices returns the connected devices in registration order.
func (c *Controller) Devices() []*array.Device {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.registry == nil {
		return nil
	}
	return c.registry.Devices()
}

// ApplyCSV moves every array from the current grid to the desired grid.
// The desired row of each array that replied is then committed to the
// current grid file.
func (c *Controller) ApplyCSV(ctx context.Context) ([]array.Outcome, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.registry == nil {
		return nil, ErrNotConnected
	}
	desired, current, err := c.Store.LoadGrids()
	if err != nil {
		return nil, array.NewError(array.GridPersistError, err)
	}
	batch, err := motor.Diff(desired, current, c.registry.Targets())
	if err != nil {
		return nil, array.NewError(array.MalformedBatch, err)
	}
	outcomes, err := c.execute(ctx, ModeCSV, func(devices []*array.Device) ([]array.Outcome, error) {
		return c.Executor.Execute(ctx, devices, batch)
	})
	if err != nil {
		return nil, err
	}
	return outcomes, c.commit(batch, desired, current, outcomes)
}

// Reset moves every motor of every array up to its end stop. The rows
// of arrays that replied are zeroed in the current grid file.
func (c *Controller) Reset(ctx context.Context) ([]array.Outcome, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.registry == nil {
		return nil, ErrNotConnected
	}
	current, err := c.Store.Load(c.Store.CurrentPath)
	if err != nil {
		glog.Warningf("reset from an empty grid: %v", err)
		current = motor.NewGrid(c.Store.Limits)
	}
	batch := motor.ResetBatch(c.registry.Targets(), c.Connector.Config.Limits.ResetMagnitude)
	outcomes, err := c.execute(ctx, ModeReset, func(devices []*array.Device) ([]array.Outcome, error) {
		return c.Executor.Execute(ctx, devices, batch)
	})
	if err != nil {
		return nil, err
	}
	return outcomes, c.commit(batch, nil, current, outcomes)
}

// Manual sends an operator typed batch like "<Up,1>;<Down,2>", one frame
// per array in registration order. Nothing is persisted.
func (c *Controller) Manual(ctx context.Context, text string) ([]array.Outcome, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.registry == nil {
		return nil, ErrNotConnected
	}
	return c.execute(ctx, ModeManual, func(devices []*array.Device) ([]array.Outcome, error) {
		return c.Executor.ExecuteText(ctx, devices, text)
	})
}

// Disconnect closes the session if any.
func (c *Controller) Disconnect() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.closeRegistry()
}

// Close implements io.Closer.
func (c *Controller) Close() error {
	return c.Disconnect()
}

func (c *Controller) closeRegistry() error {
	if c.registry == nil {
		return nil
	}
	err := c.registry.Close()
	c.registry = nil
	glog.Info("disconnected")
	return err
}

func (c *Controller) execute(ctx context.Context, mode string, fn func([]*array.Device) ([]array.Outcome, error)) ([]array.Outcome, error) {
	run := &report.Run{Mode: mode, Started: time.Now()}
	devices := c.registry.Devices()
	outcomes, err := fn(devices)
	if err != nil {
		return nil, err
	}
	run.Outcomes = outcomes
	glog.Infof("%s: %d of %d array(s) replied", mode, len(outcomes)-run.Failed(), len(outcomes))
	if err := c.reporter().ReportRun(run); err != nil {
		glog.Warningf("report %s run: %v", mode, err)
	}
	c.reportDevices(devices)
	return outcomes, nil
}

// commit updates the current row of every array that replied and saves
// the current grid when anything changed. A batch resetting state zeroes
// the row, otherwise the row becomes the desired one.
func (c *Controller) commit(batch motor.Batch, desired, current motor.Grid, outcomes []array.Outcome) error {
	var changed bool
	for _, o := range outcomes {
		if !o.OK() {
			continue
		}
		if batch.ResetsState {
			current.ZeroRow(o.ArrayIndex)
		} else {
			current.CopyRow(desired, o.ArrayIndex)
		}
		changed = true
	}
	if !changed {
		return nil
	}
	if err := c.Store.SaveCurrent(current); err != nil {
		glog.Errorf("persist current grid: %v", err)
		return array.NewError(array.GridPersistError, err)
	}
	return nil
}

func (c *Controller) reportDevices(devices []*array.Device) {
	if err := c.reporter().ReportDevices(devices); err != nil {
		glog.Warningf("report devices: %v", err)
	}
}

func (c *Controller) reporter() report.Reporter {
	if c.Reporter == nil {
		return report.Nop{}
	}
	return c.Reporter
}
