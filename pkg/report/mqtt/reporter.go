package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/robotalks/ceiling.go/pkg/array"
	"github.com/robotalks/ceiling.go/pkg/report"
)

const (
	// RunsTopic receives one message per executed batch.
	RunsTopic = "runs"
	// DevicesTopic holds the retained device table.
	DevicesTopic = "devices"

	publishTimeout = 5 * time.Second
)

// ErrOffline is returned while the broker connection is lost.
var ErrOffline = errors.New("reporter offline")

// Publisher is the part of Queue used by Reporter.
type Publisher interface {
	PubWith(topic string, payload []byte, qos byte, retain bool) paho.Token
}

// Reporter publishes reports under <prefix><controller-id>/.
type Reporter struct {
	Publisher    Publisher
	ControllerID string

	offline int32
	lock    sync.Mutex
	devices []byte
}

// NewReporter creates a Reporter. When pub is a *Queue, reports fail fast
// with ErrOffline while the connection is lost, and the last device table
// is published again after every reconnect.
func NewReporter(pub Publisher, controllerID string) *Reporter {
	r := &Reporter{Publisher: pub, ControllerID: controllerID}
	if q, ok := pub.(*Queue); ok {
		q.OnConnect = func(*Queue) {
			atomic.StoreInt32(&r.offline, 0)
			r.republish()
		}
		q.OnDisconnect = func(*Queue) { atomic.StoreInt32(&r.offline, 1) }
	}
	return r
}

// Online tells whether the broker connection is up.
func (r *Reporter) Online() bool {
	return atomic.LoadInt32(&r.offline) == 0
}

// Topic returns the topic of kind under this controller.
func (r *Reporter) Topic(kind string) string {
	return r.ControllerID + "/" + kind
}

// ReportDevices implements report.Reporter.
func (r *Reporter) ReportDevices(devices []*array.Device) error {
	payload, err := report.EncodeDevices(devices)
	if err != nil {
		return err
	}
	r.lock.Lock()
	r.devices = payload
	r.lock.Unlock()
	return r.publish(DevicesTopic, payload, true)
}

// ReportRun implements report.Reporter.
func (r *Reporter) ReportRun(run *report.Run) error {
	payload, err := report.EncodeRun(run)
	if err != nil {
		return err
	}
	return r.publish(RunsTopic, payload, false)
}

func (r *Reporter) republish() {
	r.lock.Lock()
	payload := r.devices
	r.lock.Unlock()
	if payload != nil {
		r.Publisher.PubWith(r.Topic(DevicesTopic), payload, 1, true)
	}
}

func (r *Reporter) publish(kind string, payload []byte, retain bool) error {
	if !r.Online() {
		return ErrOffline
	}
	topic := r.Topic(kind)
	token := r.Publisher.PubWith(topic, payload, 1, retain)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: no ack within %s", topic, publishTimeout)
	}
	return token.Error()
}
