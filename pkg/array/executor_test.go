package array

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ceiling.go/pkg/motor"
)

func TestExecuteBarrier(t *testing.T) {
	const n = 5
	stalled := map[int]bool{1: true, 3: true}
	arrays := make([]*fakeArray, n)
	devices := make([]*Device, n)
	targets := make([]motor.Target, n)
	for i := range arrays {
		arrays[i] = newFakeArray("")
		arrays[i].Stall = stalled[i]
		arrays[i].Reply = fmt.Sprintf("done %d", i)
		arrays[i].start()
		devices[i] = arrays[i].readyDevice(fmt.Sprintf("tty%d", i), n-1-i, 2)
		targets[i] = devices[i].Target()
	}
	stopAll(t, arrays...)

	conf := testConfig()
	batch := motor.ResetBatch(targets, 100)
	start := time.Now()
	outcomes, err := NewExecutor(conf).Execute(context.Background(), devices, batch)
	elapsed := time.Since(start)
	require.NoError(t, err)
	require.Len(t, outcomes, n)
	require.True(t, elapsed < 3*conf.ExecutionTimeout, "took %s", elapsed)

	for i, o := range outcomes {
		require.Equal(t, devices[i].Addr, o.Addr)
		require.Equal(t, devices[i].ArrayIndex, o.ArrayIndex)
		require.Equal(t, "Up,100,Up,100", o.Request)
		if stalled[i] {
			require.Equal(t, OutcomeTimedOut, o.Kind)
			require.True(t, IsKind(o.Err, ExecutionTimeout), "%v", o.Err)
			require.False(t, o.OK())
		} else {
			require.Equal(t, OutcomeReplied, o.Kind)
			require.Equal(t, fmt.Sprintf("done %d", i), o.Reply)
			require.NoError(t, o.Err)
		}
		require.Equal(t, StateReady, devices[i].State())
		require.Equal(t, "Up,100,Up,100", <-arrays[i].received)
	}
}

func TestExecuteScenario(t *testing.T) {
	f := newFakeArray("").start()
	stopAll(t, f)
	dev := f.readyDevice("ttyUSB0", 0, 2)

	l := motor.Limits{MaxArrays: 4, MaxMotors: 10, MaxTurns: 10}
	desired, current := motor.NewGrid(l), motor.NewGrid(l)
	desired[0][0], current[0][0] = 3, 5
	batch, err := motor.Diff(desired, current, []motor.Target{dev.Target()})
	require.NoError(t, err)

	outcomes, err := NewExecutor(testConfig()).Execute(context.Background(), []*Device{dev}, batch)
	require.NoError(t, err)
	require.True(t, outcomes[0].OK())
	require.Equal(t, "Up,2,None,0", <-f.received)
}

func TestExecuteCanceled(t *testing.T) {
	f := newFakeArray("")
	f.Stall = true
	f.start()
	stopAll(t, f)
	dev := f.readyDevice("ttyUSB0", 0, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-f.received
		cancel()
	}()
	conf := testConfig()
	conf.ExecutionTimeout = 10 * time.Second
	outcomes, err := NewExecutor(conf).Execute(ctx, []*Device{dev}, motor.ResetBatch([]motor.Target{dev.Target()}, 1))
	require.NoError(t, err)
	require.Equal(t, OutcomeSent, outcomes[0].Kind)
}

func TestExecuteWriteFailure(t *testing.T) {
	f := newFakeArray("")
	dev := f.readyDevice("ttyUSB0", 0, 1)
	f.stop()
	outcomes, err := NewExecutor(testConfig()).Execute(context.Background(), []*Device{dev},
		motor.ResetBatch([]motor.Target{dev.Target()}, 1))
	require.NoError(t, err)
	require.Equal(t, OutcomeFailed, outcomes[0].Kind)
	require.True(t, IsKind(outcomes[0].Err, ConnectionError), "%v", outcomes[0].Err)
	require.Equal(t, StateFailed, dev.State())
}

func TestExecuteMismatchedBatch(t *testing.T) {
	devices := []*Device{identified("a", 0, 2), identified("b", 1, 2)}
	ex := NewExecutor(testConfig())

	_, err := ex.Execute(context.Background(), devices, motor.ResetBatch([]motor.Target{devices[0].Target()}, 1))
	require.True(t, IsKind(err, MalformedBatch), "%v", err)

	swapped := motor.ResetBatch([]motor.Target{devices[1].Target(), devices[0].Target()}, 1)
	_, err = ex.Execute(context.Background(), devices, swapped)
	require.True(t, IsKind(err, MalformedBatch), "%v", err)
}

func TestExecuteText(t *testing.T) {
	a, b := newFakeArray("").start(), newFakeArray("").start()
	stopAll(t, a, b)
	devices := []*Device{a.readyDevice("a", 1, 3), b.readyDevice("b", 0, 3)}
	ex := NewExecutor(testConfig())

	outcomes, err := ex.ExecuteText(context.Background(), devices, "<Up,1> ; <Sideways,7,Up,2>")
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.True(t, outcomes[0].OK())
	require.True(t, outcomes[1].OK())
	require.Equal(t, "Up,1", <-a.received)
	require.Equal(t, "Sideways,7,Up,2", <-b.received)

	for _, text := range []string{"", "<Up,1>", "<Up,1>;<Up,1>;<Up,1>", "Up,1;<Up,1>"} {
		_, err = ex.ExecuteText(context.Background(), devices, text)
		require.True(t, IsKind(err, MalformedBatch), "%q: %v", text, err)
	}
}

func TestOutcomeSlots(t *testing.T) {
	slots := newOutcomeSlots(2)
	slots.set(0, Outcome{Kind: OutcomeReplied})
	require.Panics(t, func() { slots.set(0, Outcome{}) })
	require.Panics(t, func() { slots.collect() })
	slots.set(1, Outcome{Kind: OutcomeTimedOut})
	outcomes := slots.collect()
	require.Equal(t, OutcomeReplied, outcomes[0].Kind)
	require.Equal(t, OutcomeTimedOut, outcomes[1].Kind)
}
