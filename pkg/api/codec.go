// Package api defines the wire messages of the ledger RPC services and the
// connect handlers and clients that carry them.
//
// Messages are plain Go structs encoded as JSON. Amounts travel as decimal
// strings ("12.50") and timestamps as RFC 3339 strings. Well-known protobuf
// types (emptypb.Empty) go through protojson.
package api

import (
	"encoding/json"
	"fmt"
	"time"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Codec is the JSON codec every handler and client registers. It replaces
// connect's default "json" codec, which only accepts proto messages.
var Codec connect.Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		if len(data) == 0 {
			return nil
		}
		return protojson.UnmarshalOptions{DiscardUnknown: true}.Unmarshal(data, m)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// Time is a Unix timestamp carried on the wire in RFC 3339 form.
type Time struct {
	ts *timestamppb.Timestamp
}

// NewTime wraps Unix seconds. Zero yields the zero Time.
func NewTime(unix int64) Time {
	if unix == 0 {
		return Time{}
	}
	return Time{ts: timestamppb.New(time.Unix(unix, 0))}
}

// TimeOf is NewTime for t.
func TimeOf(t time.Time) Time {
	return Time{ts: timestamppb.New(t)}
}

// Unix returns the timestamp in Unix seconds, 0 for the zero Time.
func (t Time) Unix() int64 {
	if t.ts == nil {
		return 0
	}
	return t.ts.GetSeconds()
}

// IsZero reports whether t is unset.
func (t Time) IsZero() bool {
	return t.ts == nil
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.ts == nil {
		return []byte("null"), nil
	}
	return protojson.Marshal(t.ts)
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.ts = nil
		return nil
	}
	ts := &timestamppb.Timestamp{}
	if err := protojson.Unmarshal(data, ts); err != nil {
		return fmt.Errorf("invalid timestamp %s: %w", data, err)
	}
	t.ts = ts
	return nil
}

// UnixOf returns t.Unix(), or 0 when t is nil.
func UnixOf(t *Time) int64 {
	if t == nil {
		return 0
	}
	return t.Unix()
}
