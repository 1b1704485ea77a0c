package array

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang/glog"

	fx "github.com/robotalks/ceiling.go/pkg/framework"
	"github.com/robotalks/ceiling.go/pkg/motor"
)

// OutcomeKind is the result category of a device in a batch.
type OutcomeKind int

// Outcome kinds
const (
	// OutcomeSent means the instructions were written but waiting for the
	// reply was abandoned by the caller.
	OutcomeSent OutcomeKind = iota
	OutcomeReplied
	OutcomeTimedOut
	OutcomeFailed
)

// String implements fmt.Stringer.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSent:
		return "sent"
	case OutcomeReplied:
		return "replied"
	case OutcomeTimedOut:
		return "timed out"
	case OutcomeFailed:
		return "failed"
	}
	return fmt.Sprintf("outcome(%d)", int(k))
}

// Outcome is the result of one device in a batch.
type Outcome struct {
	Kind       OutcomeKind
	Addr       string
	ArrayIndex int
	// Request is the payload sent.
	Request string
	// Reply is the payload received, set when Kind is OutcomeReplied.
	Reply   string
	Err     error
	Elapsed time.Duration
}

// OK tells if the device replied.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeReplied
}

// outcomeSlots is a pre-sized result container. Worker n owns slot n
// exclusively; a second write to a slot is a bug and panics. Slots are
// read only after all workers are joined.
type outcomeSlots struct {
	outcomes []Outcome
	written  []int32
}

func newOutcomeSlots(n int) *outcomeSlots {
	return &outcomeSlots{
		outcomes: make([]Outcome, n),
		written:  make([]int32, n),
	}
}

func (s *outcomeSlots) set(n int, o Outcome) {
	if !atomic.CompareAndSwapInt32(&s.written[n], 0, 1) {
		panic(fmt.Sprintf("outcome slot %d written twice", n))
	}
	s.outcomes[n] = o
}

func (s *outcomeSlots) collect() []Outcome {
	for n := range s.written {
		if atomic.LoadInt32(&s.written[n]) == 0 {
			panic(fmt.Sprintf("outcome slot %d never written", n))
		}
	}
	return s.outcomes
}

// Executor dispatches batches to devices.
type Executor struct {
	Config Config
}

// NewExecutor creates an Executor.
func NewExecutor(conf Config) *Executor {
	return &Executor{Config: conf}
}

// Execute sends every device its entry of batch and waits for all replies.
// devices and batch entries are matched by position. It returns after
// every worker finished; a device failing or timing out doesn't affect
// others.
func (e *Executor) Execute(ctx context.Context, devices []*Device, batch motor.Batch) ([]Outcome, error) {
	if len(batch.Entries) != len(devices) {
		return nil, Errorf(MalformedBatch, "%d entries for %d devices", len(batch.Entries), len(devices))
	}
	for n, entry := range batch.Entries {
		if entry.Target != devices[n].Target() {
			return nil, &Error{
				Kind:       MalformedBatch,
				Device:     devices[n].Addr,
				ArrayIndex: devices[n].ArrayIndex,
				Err:        fmt.Errorf("entry %d is for array %d", n, entry.Target.ArrayIndex),
			}
		}
	}
	return e.dispatch(ctx, devices, batch.Payloads()), nil
}

// ExecuteText is the manual entry path: text is a wire batch typed by an
// operator ("<Up,1>;<Down,2>"), one frame per device in registry order.
// The instructions are not validated.
func (e *Executor) ExecuteText(ctx context.Context, devices []*Device, text string) ([]Outcome, error) {
	payloads, err := e.Config.Markers.SplitFrames(text)
	if err != nil {
		return nil, NewError(MalformedBatch, err)
	}
	if len(payloads) != len(devices) {
		return nil, Errorf(MalformedBatch, "%d frames for %d devices", len(payloads), len(devices))
	}
	return e.dispatch(ctx, devices, payloads), nil
}

func (e *Executor) dispatch(ctx context.Context, devices []*Device, payloads []string) []Outcome {
	if glog.V(1) {
		glog.Infof("dispatch %s", e.Config.Markers.EncodeFrames(payloads...))
	}
	slots := newOutcomeSlots(len(devices))
	runner := fx.NewRunnerWith(ctx)
	for n := range devices {
		n := n
		runner.Go(fx.NamedFunc(devices[n].Addr, func(ctx context.Context) error {
			slots.set(n, e.run(ctx, devices[n], payloads[n]))
			return nil
		}))
	}
	runner.Wait()
	outcomes := slots.collect()
	for _, o := range outcomes {
		if !o.OK() {
			glog.Warningf("array %d (%s): %s: %v", o.ArrayIndex, o.Addr, o.Kind, o.Err)
		}
	}
	return outcomes
}

// run is a worker: write the frame, then read one reply frame, all
// within ExecutionTimeout.
func (e *Executor) run(ctx context.Context, dev *Device, payload string) (o Outcome) {
	o = Outcome{Addr: dev.Addr, ArrayIndex: dev.ArrayIndex, Request: payload}
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, e.Config.ExecutionTimeout)
	defer func() {
		cancel()
		o.Elapsed = time.Since(start)
		if o.Kind == OutcomeFailed {
			dev.setState(StateFailed)
		} else {
			dev.setState(StateReady)
		}
	}()

	dev.setState(StateBusy)
	if err := dev.Channel.WriteFrame([]byte(payload)); err != nil {
		o.Kind, o.Err = OutcomeFailed, deviceError(ConnectionError, dev, err)
		return
	}
	reply, err := dev.Channel.ReadFrame(ctx)
	switch {
	case err == nil:
		o.Kind, o.Reply = OutcomeReplied, string(reply)
		glog.V(1).Infof("%s: replied %q", dev, o.Reply)
	case errors.Is(err, context.DeadlineExceeded):
		o.Kind = OutcomeTimedOut
		o.Err = deviceError(ExecutionTimeout, dev, fmt.Errorf("no reply within %s", e.Config.ExecutionTimeout))
	case errors.Is(err, context.Canceled):
		o.Kind, o.Err = OutcomeSent, err
	default:
		o.Kind, o.Err = OutcomeFailed, deviceError(ConnectionError, dev, err)
	}
	return
}
