package ceiling

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/robotalks/ceiling.go/pkg/array"
	"github.com/robotalks/ceiling.go/pkg/env"
	"github.com/robotalks/ceiling.go/pkg/l0/comm"
	"github.com/robotalks/ceiling.go/pkg/motor"
	"github.com/robotalks/ceiling.go/pkg/port"
	"github.com/robotalks/ceiling.go/pkg/store"
)

// Config is everything needed to build a Controller.
type Config struct {
	Limits motor.Limits `yaml:"limits"`

	BaudRate int `yaml:"baud_rate"`
	// PortPatterns are globs matching serial device nodes.
	// Ignored when Ports is set.
	PortPatterns []string `yaml:"port_patterns"`
	// Ports lists device addresses explicitly, in the order given.
	Ports []string `yaml:"ports"`

	DesiredPath string `yaml:"desired_path"`
	CurrentPath string `yaml:"current_path"`

	Sentinel string `yaml:"sentinel"`

	HandshakeTimeout time.Duration `yaml:"-"`
	ExecutionTimeout time.Duration `yaml:"-"`
}

// DefaultPortPattern matches USB serial adapters.
const DefaultPortPattern = "/dev/ttyU*"

func builtinConfig() Config {
	return Config{
		Limits:           motor.DefaultLimits,
		BaudRate:         port.DefaultBaudRate,
		PortPatterns:     []string{DefaultPortPattern},
		DesiredPath:      "desired-state.csv",
		CurrentPath:      "current-state.csv",
		Sentinel:         array.DefaultSentinel,
		HandshakeTimeout: array.DefaultHandshakeTimeout,
		ExecutionTimeout: array.DefaultExecutionTimeout,
	}
}

var (
	configFile string
	// flagConfig holds flag values. Only flags set explicitly on the
	// command line are applied, so a config file isn't overridden by
	// flag defaults.
	flagConfig = builtinConfig()
)

func init() {
	configFile = os.Getenv("CEILING_CONFIG")
	applyEnv(&flagConfig)
}

func applyEnv(c *Config) error {
	if val := os.Getenv("CEILING_PORTS"); val != "" {
		c.Ports = splitList(val)
	}
	if val := os.Getenv("CEILING_BAUD"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("CEILING_BAUD: %w", err)
		}
		c.BaudRate = baud
	}
	if val := os.Getenv("CEILING_DESIRED_CSV"); val != "" {
		c.DesiredPath = val
	}
	if val := os.Getenv("CEILING_CURRENT_CSV"); val != "" {
		c.CurrentPath = val
	}
	return nil
}

type listValue []string

func (v *listValue) String() string {
	return strings.Join(*v, ",")
}

func (v *listValue) Set(s string) error {
	*v = splitList(s)
	return nil
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// SetupFlags sets command line flags, including the ones of env.
func SetupFlags() {
	env.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "YAML config file")
	flag.IntVar(&flagConfig.BaudRate, "baud", flagConfig.BaudRate, "Serial baud rate")
	flag.Var((*listValue)(&flagConfig.PortPatterns), "port-glob", "Comma separated globs of serial devices")
	flag.Var((*listValue)(&flagConfig.Ports), "ports", "Comma separated device addresses, overrides -port-glob")
	flag.StringVar(&flagConfig.DesiredPath, "desired", flagConfig.DesiredPath, "Desired state CSV file")
	flag.StringVar(&flagConfig.CurrentPath, "current", flagConfig.CurrentPath, "Current state CSV file")
	flag.IntVar(&flagConfig.Limits.MaxArrays, "max-arrays", flagConfig.Limits.MaxArrays, "Max number of arrays")
	flag.IntVar(&flagConfig.Limits.MaxMotors, "max-motors", flagConfig.Limits.MaxMotors, "Max number of motors per array")
	flag.IntVar(&flagConfig.Limits.MaxTurns, "max-turns", flagConfig.Limits.MaxTurns, "Max turns of a motor")
}

// ResolveConfig builds the Config after flag.Parse. Precedence from low
// to high: built-in defaults, config file, environment, explicit flags.
func ResolveConfig() (*Config, error) {
	conf := builtinConfig()
	if configFile != "" {
		if err := conf.LoadFile(configFile); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(&conf); err != nil {
		return nil, err
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "baud":
			conf.BaudRate = flagConfig.BaudRate
		case "port-glob":
			conf.PortPatterns = flagConfig.PortPatterns
		case "ports":
			conf.Ports = flagConfig.Ports
		case "desired":
			conf.DesiredPath = flagConfig.DesiredPath
		case "current":
			conf.CurrentPath = flagConfig.CurrentPath
		case "max-arrays":
			conf.Limits.MaxArrays = flagConfig.Limits.MaxArrays
		case "max-motors":
			conf.Limits.MaxMotors = flagConfig.Limits.MaxMotors
		case "max-turns":
			conf.Limits.MaxTurns = flagConfig.Limits.MaxTurns
		}
	})
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks c is usable.
func (c *Config) Validate() error {
	if err := c.Limits.Validate(); err != nil {
		return err
	}
	if c.BaudRate <= 0 {
		return fmt.Errorf("invalid baud rate %d", c.BaudRate)
	}
	if len(c.Ports) == 0 && len(c.PortPatterns) == 0 {
		return fmt.Errorf("either ports or port patterns must be specified")
	}
	if c.DesiredPath == "" || c.CurrentPath == "" {
		return fmt.Errorf("desired and current state files must be specified")
	}
	if c.Sentinel == "" {
		return fmt.Errorf("handshake sentinel must not be empty")
	}
	return nil
}

// ArrayConfig returns the device level configuration.
func (c *Config) ArrayConfig() array.Config {
	return array.Config{
		Limits:           c.Limits,
		Markers:          comm.DefaultMarkers,
		Sentinel:         c.Sentinel,
		HandshakeTimeout: c.HandshakeTimeout,
		ExecutionTimeout: c.ExecutionTimeout,
	}
}

// Enumerator returns the enumerator of device addresses.
func (c *Config) Enumerator() array.Enumerator {
	if len(c.Ports) > 0 {
		return port.Static(c.Ports)
	}
	return &port.Glob{Patterns: c.PortPatterns, Max: c.Limits.MaxArrays}
}

// Store returns the grid store.
func (c *Config) Store() *store.CSV {
	return &store.CSV{
		Limits:      c.Limits,
		DesiredPath: c.DesiredPath,
		CurrentPath: c.CurrentPath,
	}
}

// NewController creates a Controller reporting to e.
func (c *Config) NewController(e *env.Env) *Controller {
	conf := c.ArrayConfig()
	return &Controller{
		Connector: &array.Connector{
			Config:     conf,
			Enumerator: c.Enumerator(),
			Opener:     port.NewOpener(c.BaudRate),
		},
		Executor: array.NewExecutor(conf),
		Store:    c.Store(),
		Reporter: e.Reporter,
	}
}
