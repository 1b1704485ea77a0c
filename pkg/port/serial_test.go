package port

import (
	"context"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/ceiling.go/pkg/l0/comm"
)

// quietLine behaves like a serial port with VTIME set: reads return
// (0, io.EOF) until data shows up after silence.
type quietLine struct {
	silentReads int
	data        []byte
	closed      int32
}

func (l *quietLine) Read(b []byte) (int, error) {
	if atomic.LoadInt32(&l.closed) != 0 {
		return 0, io.ErrClosedPipe
	}
	if l.silentReads > 0 {
		l.silentReads--
		time.Sleep(time.Millisecond)
		return 0, io.EOF
	}
	if len(l.data) == 0 {
		time.Sleep(time.Millisecond)
		return 0, io.EOF
	}
	n := copy(b, l.data)
	l.data = l.data[n:]
	return n, nil
}

func (l *quietLine) Write(b []byte) (int, error) { return len(b), nil }

func (l *quietLine) Close() error {
	atomic.StoreInt32(&l.closed, 1)
	return nil
}

func TestIdlePortRead(t *testing.T) {
	p := &idlePort{ReadWriteCloser: &quietLine{silentReads: 1, data: []byte("ab")}}
	buf := make([]byte, 8)
	n, err := p.Read(buf)
	require.NoError(t, err)
	require.Equal(t, 0, n)
	n, err = p.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "ab", string(buf[:n]))
}

func TestIdlePortKeepsChannelAlive(t *testing.T) {
	line := &quietLine{silentReads: 50, data: []byte("<Arduino is ready 0 2>")}
	ch := comm.NewChannel(&idlePort{ReadWriteCloser: line})
	defer ch.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	frame, err := ch.ReadFrame(ctx)
	require.NoError(t, err)
	require.Equal(t, "Arduino is ready 0 2", string(frame))
}
