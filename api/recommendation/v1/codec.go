package recommendationv1

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	"google.golang.org/protobuf/proto"
)

// Codec encodes the messages in this package in protobuf wire format and
// defers to the standard protobuf codec for generated messages, so it can be
// forced on a server that also hosts grpc.health.v1.
type Codec struct{}

var _ encoding.Codec = Codec{}

// Name is "proto" so peers negotiate the usual application/grpc+proto
// content subtype.
func (Codec) Name() string { return "proto" }

func (Codec) Marshal(v any) ([]byte, error) {
	switch m := v.(type) {
	case wireMessage:
		return m.appendWire(nil), nil
	case proto.Message:
		return proto.Marshal(m)
	}
	return nil, fmt.Errorf("recommendationv1: cannot marshal %T", v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	switch m := v.(type) {
	case wireMessage:
		return m.unmarshalWire(data)
	case proto.Message:
		return proto.Unmarshal(data, m)
	}
	return fmt.Errorf("recommendationv1: cannot unmarshal into %T", v)
}
