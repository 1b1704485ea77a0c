package ceiling

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ceiling.go/pkg/array"
	"github.com/robotalks/ceiling.go/pkg/l0/comm"
	"github.com/robotalks/ceiling.go/pkg/motor"
	"github.com/robotalks/ceiling.go/pkg/report"
	"github.com/robotalks/ceiling.go/pkg/store"
)

// firmware answers like an array: a ready banner, then one reply per
// command unless stalled.
type firmware struct {
	index, motors int
	stall         bool

	host, dev net.Conn
	received  chan string
}

func (f *firmware) serve() {
	ch := comm.NewChannel(f.dev)
	banner := fmt.Sprintf("%s %d %d", array.DefaultSentinel, f.index, f.motors)
	if err := ch.WriteFrame([]byte(banner)); err != nil {
		return
	}
	for {
		payload, err := ch.ReadFrame(context.Background())
		if err != nil {
			return
		}
		f.received <- string(payload)
		if !f.stall {
			if err := ch.WriteFrame([]byte("Done")); err != nil {
				return
			}
		}
	}
}

type bus struct {
	addrs []string
	arrays map[string]*firmware
}

func (b *bus) Enumerate() ([]string, error) {
	if len(b.addrs) == 0 {
		return nil, errors.New("no endpoints found")
	}
	return b.addrs, nil
}

func (b *bus) Open(addr string) (io.ReadWriteCloser, error) {
	f, ok := b.arrays[addr]
	if !ok {
		return nil, errors.New("no such device")
	}
	f.host, f.dev = net.Pipe()
	go f.serve()
	return f.host, nil
}

func (b *bus) add(addr string, index, motors int) *firmware {
	f := &firmware{index: index, motors: motors, received: make(chan string, 8)}
	b.addrs = append(b.addrs, addr)
	b.arrays[addr] = f
	return f
}

func (b *bus) close() {
	for _, f := range b.arrays {
		if f.dev != nil {
			f.dev.Close()
		}
	}
}

// recorder collects reports.
type recorder struct {
	runs    []*report.Run
	devices [][]*array.Device
}

func (r *recorder) ReportDevices(devices []*array.Device) error {
	r.devices = append(r.devices, devices)
	return nil
}

func (r *recorder) ReportRun(run *report.Run) error {
	r.runs = append(r.runs, run)
	return nil
}

var testLimits = motor.Limits{MaxArrays: 2, MaxMotors: 3, MaxTurns: 10, ResetMagnitude: 100}

type fixture struct {
	bus      *bus
	ctrl     *Controller
	reporter *recorder
	dir      string
}

func newFixture(t *testing.T) *fixture {
	dir, err := ioutil.TempDir("", "ceiling")
	require.NoError(t, err)
	b := &bus{arrays: make(map[string]*firmware)}
	conf := array.DefaultConfig()
	conf.Limits = testLimits
	conf.HandshakeTimeout = 500 * time.Millisecond
	conf.ExecutionTimeout = 200 * time.Millisecond
	rec := &recorder{}
	fx := &fixture{
		bus:      b,
		reporter: rec,
		dir:      dir,
		ctrl: &Controller{
			Connector: &array.Connector{Config: conf, Enumerator: b, Opener: b},
			Executor:  array.NewExecutor(conf),
			Store: &store.CSV{
				Limits:      testLimits,
				DesiredPath: filepath.Join(dir, "desired-state.csv"),
				CurrentPath: filepath.Join(dir, "current-state.csv"),
			},
			Reporter: rec,
		},
	}
	t.Cleanup(func() {
		fx.ctrl.Close()
		b.close()
		os.RemoveAll(dir)
	})
	return fx
}

func (fx *fixture) write(t *testing.T, path, content string) {
	require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
}

func (fx *fixture) current(t *testing.T) motor.Grid {
	g, err := fx.ctrl.Store.Load(fx.ctrl.Store.CurrentPath)
	require.NoError(t, err)
	return g
}

func recv(t *testing.T, f *firmware) string {
	select {
	case s := <-f.received:
		return s
	case <-time.After(time.Second):
		t.Fatal("firmware received nothing")
		return ""
	}
}
