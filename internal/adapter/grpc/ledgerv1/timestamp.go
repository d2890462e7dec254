package ledgerv1

import (
	"bytes"
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// The messages carrying a timestamp encode it through protojson so it goes
// on the wire as an RFC 3339 string.

func marshalTimestamp(ts *timestamppb.Timestamp) (json.RawMessage, error) {
	if ts == nil {
		return nil, nil
	}
	data, err := protojson.Marshal(ts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal timestamp: %w", err)
	}
	return data, nil
}

func unmarshalTimestamp(raw json.RawMessage) (*timestamppb.Timestamp, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	ts := &timestamppb.Timestamp{}
	if err := protojson.Unmarshal(raw, ts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal timestamp: %w", err)
	}
	return ts, nil
}

func (b *Balance) MarshalJSON() ([]byte, error) {
	type alias Balance
	ts, err := marshalTimestamp(b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		*alias
		UpdatedAt json.RawMessage `json:"updated_at,omitempty"`
	}{alias: (*alias)(b), UpdatedAt: ts})
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	type alias Balance
	aux := struct {
		*alias
		UpdatedAt json.RawMessage `json:"updated_at,omitempty"`
	}{alias: (*alias)(b)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ts, err := unmarshalTimestamp(aux.UpdatedAt)
	if err != nil {
		return err
	}
	b.UpdatedAt = ts
	return nil
}

func (t *Transaction) MarshalJSON() ([]byte, error) {
	type alias Transaction
	ts, err := marshalTimestamp(t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		*alias
		CreatedAt json.RawMessage `json:"created_at,omitempty"`
	}{alias: (*alias)(t), CreatedAt: ts})
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	type alias Transaction
	aux := struct {
		*alias
		CreatedAt json.RawMessage `json:"created_at,omitempty"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ts, err := unmarshalTimestamp(aux.CreatedAt)
	if err != nil {
		return err
	}
	t.CreatedAt = ts
	return nil
}

func (r *Receipt) MarshalJSON() ([]byte, error) {
	type alias Receipt
	ts, err := marshalTimestamp(r.Timestamp)
	if err != nil {
		return nil, err
	}
	return json.Marshal(struct {
		*alias
		Timestamp json.RawMessage `json:"timestamp,omitempty"`
	}{alias: (*alias)(r), Timestamp: ts})
}

func (r *Receipt) UnmarshalJSON(data []byte) error {
	type alias Receipt
	aux := struct {
		*alias
		Timestamp json.RawMessage `json:"timestamp,omitempty"`
	}{alias: (*alias)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ts, err := unmarshalTimestamp(aux.Timestamp)
	if err != nil {
		return err
	}
	r.Timestamp = ts
	return nil
}
