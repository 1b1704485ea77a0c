// Package env sets up the process wide environment of the controller:
// its identity and where outcomes are reported.
package env

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang/glog"

	"github.com/robotalks/ceiling.go/pkg/report"
	"github.com/robotalks/ceiling.go/pkg/report/mqtt"
)

// Config provides common options to setup an Env.
type Config struct {
	// ControllerID names this controller in reported topics.
	ControllerID string

	// MQTTBrokerURL specifies the MQTT broker to report to.
	// e.g. mqtt://host:port/topic-prefix
	// Reporting is disabled when empty.
	MQTTBrokerURL string
}

var defaultConfig Config

func init() {
	if val := os.Getenv("CEILING_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("CEILING_ID"); val != "" {
		defaultConfig.ControllerID = val
	} else {
		defaultConfig.ControllerID = MachineID()
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.ControllerID, "id", defaultConfig.ControllerID, "Controller ID")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL for reporting")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a Config with default configurations.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// Env is the environment shared by the controller.
type Env struct {
	Config   *Config
	Reporter report.Reporter

	queue *mqtt.Queue
}

// NewEnv creates Env from config. When a broker is configured, the
// returned Env owns a connected MQTT client until Close.
func (c *Config) NewEnv() (*Env, error) {
	env := &Env{Config: c, Reporter: report.Nop{}}
	if c.MQTTBrokerURL == "" {
		return env, nil
	}
	if c.ControllerID == "" {
		return nil, fmt.Errorf("controller id must be specified for reporting")
	}
	q, err := mqtt.NewQueueFromURL(c.MQTTBrokerURL)
	if err != nil {
		return nil, fmt.Errorf("create MQTT queue error: %w", err)
	}
	if token := q.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect MQTT broker error: %w", token.Error())
	}
	glog.Infof("reporting to %s as %s", c.MQTTBrokerURL, c.ControllerID)
	env.queue = q
	env.Reporter = mqtt.NewReporter(q, c.ControllerID)
	return env, nil
}

// MustNewEnv creates Env and fails on error.
func (c *Config) MustNewEnv() *Env {
	env, err := c.NewEnv()
	if err != nil {
		log.Fatalln(err)
	}
	return env
}

// Close releases the reporting connection.
func (e *Env) Close() error {
	if e.queue != nil {
		return e.queue.Close()
	}
	return nil
}
