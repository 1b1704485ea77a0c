package port

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/golang/glog"
	"github.com/tarm/serial"
	"golang.org/x/net/websocket"
)

// Defaults
const (
	DefaultBaudRate = 9600
	// DefaultReadTimeout bounds each read on a serial port so a closed
	// channel notices quickly; it's not a frame timeout.
	DefaultReadTimeout = 200 * time.Millisecond
)

// Opener opens endpoints by address.
//
// Addresses with a scheme are network bridges to a serial port:
//   ws://host:port/path   a websocket carrying the raw byte stream
//   tcp://host:port       a raw TCP socket (e.g. ser2net)
// Anything else is a serial device path opened at BaudRate.
type Opener struct {
	BaudRate    int
	ReadTimeout time.Duration
	// Origin is sent when dialing websockets.
	Origin string
}

// NewOpener creates an Opener with defaults.
func NewOpener(baud int) *Opener {
	return &Opener{
		BaudRate:    baud,
		ReadTimeout: DefaultReadTimeout,
		Origin:      "http://localhost/",
	}
}

// Open implements array.Opener.
func (o *Opener) Open(addr string) (io.ReadWriteCloser, error) {
	if !strings.Contains(addr, "://") {
		return o.openSerial(addr)
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %v", addr, err)
	}
	switch u.Scheme {
	case "ws", "wss":
		glog.V(1).Infof("dial websocket %s", addr)
		return websocket.Dial(addr, "", o.Origin)
	case "tcp":
		glog.V(1).Infof("dial tcp %s", u.Host)
		return net.Dial("tcp", u.Host)
	case "serial", "file":
		return o.openSerial(u.Path)
	default:
		return nil, fmt.Errorf("unknown address scheme: %q", u.Scheme)
	}
}

func (o *Opener) openSerial(name string) (io.ReadWriteCloser, error) {
	glog.V(1).Infof("open serial %s at %d baud", name, o.BaudRate)
	p, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        o.BaudRate,
		ReadTimeout: o.ReadTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &idlePort{ReadWriteCloser: p}, nil
}

// idlePort turns the (0, io.EOF) a serial port returns when ReadTimeout
// passes without data into (0, nil). The line is idle, not closed.
type idlePort struct {
	io.ReadWriteCloser
}

func (p *idlePort) Read(b []byte) (int, error) {
	n, err := p.ReadWriteCloser.Read(b)
	if n == 0 && err == io.EOF {
		return 0, nil
	}
	return n, err
}
