// Package msgs defines the messages carrying readings to machine consumers.
package msgs

import (
	"encoding/json"
	"time"

	"github.com/golang/protobuf/proto"
)

// Reading is a frequency reading taken by the reporter.
type Reading struct {
	MeterID       string `protobuf:"bytes,1,opt,name=meter_id,proto3" json:"meter_id,omitempty"`
	Hz            uint32 `protobuf:"varint,2,opt,name=hz,proto3" json:"hz,omitempty"`
	EdgeArity     uint32 `protobuf:"varint,3,opt,name=edge_arity,proto3" json:"edge_arity,omitempty"`
	ReferenceRate uint32 `protobuf:"varint,4,opt,name=reference_rate,proto3" json:"reference_rate,omitempty"`
	Cycle         uint32 `protobuf:"varint,5,opt,name=cycle,proto3" json:"cycle,omitempty"`
	Windows       uint32 `protobuf:"varint,6,opt,name=windows,proto3" json:"windows,omitempty"`
	Timestamp     int64  `protobuf:"varint,7,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Reading) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Reading) Reset() { *m = Reading{} }

// String implements proto.Message.
func (m *Reading) String() string { return proto.CompactTextString(m) }

// Time returns Timestamp as time.
func (m *Reading) Time() time.Time {
	return time.Unix(0, m.Timestamp)
}

// Encode encodes the reading in protobuf wire format.
func (m *Reading) Encode() ([]byte, error) {
	return proto.Marshal(m)
}

// DecodeReading decodes a reading from protobuf wire format.
func DecodeReading(data []byte) (*Reading, error) {
	m := &Reading{}
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Meta describes a meter. It is published in JSON.
type Meta struct {
	ID            string `json:"id"`
	EdgeArity     uint   `json:"edge_arity"`
	ReferenceRate uint   `json:"reference_rate"`
	ReportEvery   uint   `json:"report_every"`
	Mode          string `json:"mode"`
}

// Encode encodes meta in JSON.
func (m *Meta) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMeta decodes meta from JSON.
func DecodeMeta(data []byte) (*Meta, error) {
	m := &Meta{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
