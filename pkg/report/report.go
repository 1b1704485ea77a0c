// Package report publishes what the controller did.
package report

import (
	"time"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	structpb "github.com/golang/protobuf/ptypes/struct"

	"github.com/robotalks/ceiling.go/pkg/array"
)

// Run is one executed batch.
type Run struct {
	// Mode is how the batch was built: "csv", "reset" or "manual".
	Mode     string
	Started  time.Time
	Outcomes []array.Outcome
}

// Failed counts outcomes which didn't reply.
func (r *Run) Failed() int {
	var n int
	for _, o := range r.Outcomes {
		if !o.OK() {
			n++
		}
	}
	return n
}

// Reporter receives the device table and every run.
type Reporter interface {
	ReportDevices(devices []*array.Device) error
	ReportRun(run *Run) error
}

// Nop discards reports.
type Nop struct{}

// ReportDevices implements Reporter.
func (Nop) ReportDevices([]*array.Device) error { return nil }

// ReportRun implements Reporter.
func (Nop) ReportRun(*Run) error { return nil }

// EncodeRun encodes run as a protobuf Struct.
func EncodeRun(run *Run) ([]byte, error) {
	ts, err := ptypes.TimestampProto(run.Started)
	if err != nil {
		return nil, err
	}
	outcomes := make([]*structpb.Value, len(run.Outcomes))
	for n, o := range run.Outcomes {
		fields := map[string]*structpb.Value{
			"addr":       stringValue(o.Addr),
			"array":      numberValue(float64(o.ArrayIndex)),
			"outcome":    stringValue(o.Kind.String()),
			"request":    stringValue(o.Request),
			"elapsed_ms": numberValue(float64(o.Elapsed / time.Millisecond)),
		}
		if o.Kind == array.OutcomeReplied {
			fields["reply"] = stringValue(o.Reply)
		}
		if o.Err != nil {
			fields["error"] = stringValue(o.Err.Error())
		}
		outcomes[n] = structValue(fields)
	}
	return proto.Marshal(&structpb.Struct{Fields: map[string]*structpb.Value{
		"mode":     stringValue(run.Mode),
		"started":  stringValue(ptypes.TimestampString(ts)),
		"failed":   numberValue(float64(run.Failed())),
		"outcomes": listValue(outcomes),
	}})
}

// EncodeDevices encodes the device table as a protobuf Struct.
func EncodeDevices(devices []*array.Device) ([]byte, error) {
	items := make([]*structpb.Value, len(devices))
	for n, dev := range devices {
		items[n] = structValue(map[string]*structpb.Value{
			"addr":   stringValue(dev.Addr),
			"array":  numberValue(float64(dev.ArrayIndex)),
			"motors": numberValue(float64(dev.MotorCount)),
			"state":  stringValue(dev.State().String()),
		})
	}
	return proto.Marshal(&structpb.Struct{Fields: map[string]*structpb.Value{
		"devices": listValue(items),
	}})
}

// Decode decodes a payload produced by EncodeRun or EncodeDevices.
func Decode(data []byte) (*structpb.Struct, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func stringValue(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func numberValue(v float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: v}}
}

func listValue(values []*structpb.Value) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_ListValue{ListValue: &structpb.ListValue{Values: values}}}
}

func structValue(fields map[string]*structpb.Value) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StructValue{StructValue: &structpb.Struct{Fields: fields}}}
}
