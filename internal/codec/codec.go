// Package codec encodes persisted state.
package codec

import (
	"encoding/json"
	"fmt"
)

type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSON is the default Codec. Output is compact.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error)   { return json.Marshal(v) }
func (JSON) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

// PrettyJSON indents its output, for snapshots meant to be read by humans.
type PrettyJSON struct{}

func (PrettyJSON) Marshal(v any) ([]byte, error)   { return json.MarshalIndent(v, "", "  ") }
func (PrettyJSON) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

// Encode marshals v and annotates errors with the value type.
func Encode[T any](c Codec, v T) ([]byte, error) {
	data, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return data, nil
}

// Decode unmarshals data into a new T and annotates errors with the type.
func Decode[T any](c Codec, data []byte) (T, error) {
	var out T
	if err := c.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decode %T: %w", out, err)
	}
	return out, nil
}
