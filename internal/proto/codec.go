package proto

import (
	"encoding/json"
	"fmt"
)

// Codec encodes and decodes packets for one connection, remembering the
// enum wire format chosen at handshake (§4.D, §6).
type Codec struct {
	Format EnumFormat
}

// Encode wraps payload in an Envelope with type tagged per c.Format.
func (c Codec) Encode(kind Kind, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("proto: marshal payload: %w", err)
	}
	typeBytes, err := json.Marshal(EncodeKind(kind, c.Format))
	if err != nil {
		return nil, fmt.Errorf("proto: marshal kind: %w", err)
	}
	return json.Marshal(struct {
		Type    json.RawMessage `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}{Type: typeBytes, Payload: body})
}

// Decode splits a raw inbound frame into its Kind and raw payload for
// further type-specific unmarshalling by the caller.
func Decode(raw []byte) (Kind, json.RawMessage, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return 0, nil, fmt.Errorf("proto: decode envelope: %w", err)
	}
	var typeVal any
	if err := json.Unmarshal(env.Type, &typeVal); err != nil {
		return 0, nil, fmt.Errorf("proto: decode type: %w", err)
	}
	kind, ok := ParseKind(typeVal)
	if !ok {
		return 0, nil, fmt.Errorf("proto: unrecognized packet type %v", typeVal)
	}
	return kind, env.Payload, nil
}
