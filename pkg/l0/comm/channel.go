package comm

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/golang/glog"
)

// Channel reads and writes frames over a byte stream.
//
// A background read loop pulls bytes from the stream and hands them to
// ReadFrame, so ReadFrame can give up on a deadline without losing the
// stream. Only one goroutine may call ReadFrame at a time, and the same
// holds for WriteFrame.
type Channel struct {
	ReadWriter io.ReadWriter
	Markers    Markers
	// Name is used in logs.
	Name string

	parser    Parser
	byteCh    chan byte
	errCh     chan error
	readErr   error
	startOnce sync.Once
	closeOnce sync.Once
	doneCh    chan struct{}
}

// NewChannel creates a Channel with default markers.
func NewChannel(rw io.ReadWriter) *Channel {
	return &Channel{
		ReadWriter: rw,
		Markers:    DefaultMarkers,
		byteCh:     make(chan byte),
		errCh:      make(chan error, 1),
		doneCh:     make(chan struct{}),
	}
}

// WithName sets Name.
func (c *Channel) WithName(name string) *Channel {
	c.Name = name
	return c
}

// WriteFrame writes payload as a single frame. It's not retried.
func (c *Channel) WriteFrame(payload []byte) error {
	if glog.V(2) {
		glog.Infof("%s SND <%s>", c.Name, payload)
	}
	_, err := c.ReadWriter.Write(c.Markers.Encode(payload))
	return err
}

// ReadFrame blocks until a complete frame is received and returns its
// payload. Bytes before the start marker are dropped. If ctx is done
// first, the partial frame is discarded and ctx.Err() is returned.
func (c *Channel) ReadFrame(ctx context.Context) ([]byte, error) {
	c.startOnce.Do(func() { go c.readLoop() })
	c.parser.Markers = c.Markers
	for {
		if c.readErr != nil {
			return nil, c.readErr
		}
		select {
		case b := <-c.byteCh:
			if pr := c.parser.Parse(b); pr.Frame != nil {
				if glog.V(2) {
					glog.Infof("%s RCV <%s>", c.Name, pr.Frame)
				}
				return pr.Frame, nil
			}
		case err := <-c.errCh:
			c.parser.Reset()
			c.readErr = err
		case <-c.doneCh:
			c.parser.Reset()
			return nil, ErrClosed
		case <-ctx.Done():
			c.parser.Reset()
			return nil, ctx.Err()
		}
	}
}

// Close stops the read loop and closes the underlying stream if it's a
// Closer.
func (c *Channel) Close() (err error) {
	c.closeOnce.Do(func() {
		close(c.doneCh)
		if closer, ok := c.ReadWriter.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return
}

func (c *Channel) readLoop() {
	buf := make([]byte, 64)
	for {
		n, err := c.ReadWriter.Read(buf)
		for _, b := range buf[:n] {
			select {
			case c.byteCh <- b:
			case <-c.doneCh:
				return
			}
		}
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			select {
			case c.errCh <- err:
			case <-c.doneCh:
			}
			return
		}
		if n == 0 {
			// read timeout without error, used to notice Close.
			select {
			case <-c.doneCh:
				return
			default:
			}
		}
	}
}
