package sh

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/fatih/color"

	"github.com/robotalks/ceiling.go/pkg/array"
	"github.com/robotalks/ceiling.go/pkg/ceiling"
	"github.com/robotalks/ceiling.go/pkg/env"
	fx "github.com/robotalks/ceiling.go/pkg/framework"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool
	AutoConnect bool

	Shell      *ishell.Shell
	Controller *ceiling.Controller
	// Context bounds every operation started from the shell.
	Context context.Context
}

const (
	shellKey          = "$shell"
	unconnectedPrompt = "[none] > "
)

var (
	// flags

	evalOnly    bool
	outputJSON  bool
	autoConnect = true

	// commands
	commands = []*ishell.Cmd{
		&ConnectCmd,
		&DevicesCmd,
		&DisconnectCmd,
	}

	statusColors = map[string]*color.Color{
		"READY":   color.New(color.FgGreen),
		"DONE":    color.New(color.FgGreen),
		"BUSY":    color.New(color.FgYellow),
		"TIMEOUT": color.New(color.FgYellow),
		"SENT":    color.New(color.FgCyan),
		"FAILED":  color.New(color.FgRed, color.Bold),
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.BoolVar(&autoConnect, "connect", autoConnect, "Connect arrays on start.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell.
func New(ctrl *ceiling.Controller) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		AutoConnect: autoConnect,

		Shell:      ishell.New(),
		Controller: ctrl,
		Context:    context.Background(),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(unconnectedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// WithContext sets the Context.
func (s *Shell) WithContext(ctx context.Context) *Shell {
	s.Context = ctx
	return s
}

// Operation returns the context of one operation: CtrlC cancels the
// operation in flight, not the shell.
func (s *Shell) Operation() (context.Context, func()) {
	return fx.WithSignals(s.Context)
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeConnected wraps command func requires connected arrays.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if !ShellFrom(c).Controller.Connected() {
			c.Err(ceiling.ErrNotConnected)
			return
		}
		fn(c)
	}
}

// Status renders a status word in its color.
func Status(word string) string {
	if c, ok := statusColors[word]; ok {
		return c.Sprint(word)
	}
	return word
}

// StatusOf maps an outcome to a status word.
func StatusOf(kind array.OutcomeKind) string {
	switch kind {
	case array.OutcomeReplied:
		return "DONE"
	case array.OutcomeTimedOut:
		return "TIMEOUT"
	case array.OutcomeSent:
		return "SENT"
	default:
		return "FAILED"
	}
}

type outcomeJSON struct {
	Addr      string `json:"addr"`
	Array     int    `json:"array"`
	Outcome   string `json:"outcome"`
	Request   string `json:"request"`
	Reply     string `json:"reply,omitempty"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

type deviceJSON struct {
	Addr   string `json:"addr"`
	Array  int    `json:"array"`
	Motors int    `json:"motors"`
	State  string `json:"state"`
}

func (s *Shell) printJSON(c *ishell.Context, v interface{}) {
	out, err := json.Marshal(v)
	if err != nil {
		c.Err(err)
		return
	}
	c.Println(string(out))
}

// PrintOutcomes prints one line per device, failures included.
func PrintOutcomes(c *ishell.Context, outcomes []array.Outcome) {
	s := ShellFrom(c)
	if s.OutputJSON {
		items := make([]outcomeJSON, len(outcomes))
		for n, o := range outcomes {
			items[n] = outcomeJSON{
				Addr:      o.Addr,
				Array:     o.ArrayIndex,
				Outcome:   o.Kind.String(),
				Request:   o.Request,
				Reply:     o.Reply,
				ElapsedMs: int64(o.Elapsed / time.Millisecond),
			}
			if o.Err != nil {
				items[n].Error = o.Err.Error()
			}
		}
		s.printJSON(c, items)
		return
	}
	for _, o := range outcomes {
		c.Printf("array %d (%s) %s <%s>", o.ArrayIndex, o.Addr, Status(StatusOf(o.Kind)), o.Request)
		if o.Kind == array.OutcomeReplied {
			c.Printf(" %q %s\n", o.Reply, o.Elapsed.Round(time.Millisecond))
		} else {
			c.Printf(" %v\n", o.Err)
		}
	}
}

// PrintDevices prints the device table.
func PrintDevices(c *ishell.Context, devices []*array.Device) {
	s := ShellFrom(c)
	if s.OutputJSON {
		items := make([]deviceJSON, len(devices))
		for n, dev := range devices {
			items[n] = deviceJSON{
				Addr:   dev.Addr,
				Array:  dev.ArrayIndex,
				Motors: dev.MotorCount,
				State:  dev.State().String(),
			}
		}
		s.printJSON(c, items)
		return
	}
	if len(devices) == 0 {
		c.Println("No arrays connected")
		return
	}
	for _, dev := range devices {
		state := dev.State()
		word := state.String()
		switch state {
		case array.StateReady:
			word = "READY"
		case array.StateBusy:
			word = "BUSY"
		case array.StateFailed:
			word = "FAILED"
		}
		c.Printf("array %d: %s, %d motors, %s\n", dev.ArrayIndex, dev.Addr, dev.MotorCount, Status(word))
	}
}

// Connect connects the arrays and prints them.
func (s *Shell) Connect() ([]*array.Device, error) {
	ctx, stop := s.Operation()
	defer stop()
	devices, err := s.Controller.Connect(ctx)
	if err != nil {
		s.Shell.SetPrompt(unconnectedPrompt)
		return nil, err
	}
	s.Shell.SetPrompt(fmt.Sprintf("[%d arrays] > ", len(devices)))
	return devices, nil
}

// Disconnect disconnects current arrays.
func (s *Shell) Disconnect() error {
	s.Shell.SetPrompt(unconnectedPrompt)
	return s.Controller.Disconnect()
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.AutoConnect {
		if s.Interactive {
			s.Shell.Println("Connecting arrays ...")
		}
		if _, err := s.Connect(); err != nil {
			if !s.Interactive {
				log.Fatalf("connect failed: %v", err)
			}
			s.Shell.Printf("%s %v\n", Status("FAILED"), err)
		}
	}

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// ConnectCmd (re)connects all arrays.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "discover and handshake all arrays",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			devices, err := s.Connect()
			if err != nil {
				c.Err(err)
				return
			}
			PrintDevices(c, devices)
		},
	}

	// DevicesCmd lists connected arrays.
	DevicesCmd = ishell.Cmd{
		Name:    "devices",
		Aliases: []string{"ls"},
		Help:    "list connected arrays",
		Func: func(c *ishell.Context) {
			PrintDevices(c, ShellFrom(c).Controller.Devices())
		},
	}

	// DisconnectCmd disconnects all arrays.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "close all arrays",
		Func: func(c *ishell.Context) {
			if err := ShellFrom(c).Disconnect(); err != nil {
				c.Err(err)
			}
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	conf, err := ceiling.ResolveConfig()
	if err != nil {
		log.Fatalln(err)
	}
	e := env.Default().MustNewEnv()
	defer e.Close()
	ctrl := conf.NewController(e)
	defer ctrl.Close()
	New(ctrl).Run(flag.Args()...)
}
