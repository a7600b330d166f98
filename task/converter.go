package task

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// DataConverter serializes task inputs and outputs.
type DataConverter interface {
	// Serialize encodes v to bytes.
	Serialize(v any) ([]byte, error)

	// Deserialize decodes data into v.
	Deserialize(data []byte, v any) error

	// Name returns the converter identifier (e.g., "json", "msgpack").
	Name() string
}

// Converter name constants.
const (
	ConverterJSON    = "json"
	ConverterMsgpack = "msgpack"
)

// GetConverter returns a converter by name. Defaults to JSON.
func GetConverter(name string) DataConverter {
	switch name {
	case ConverterMsgpack:
		return MsgpackConverter{}
	default:
		return JSONConverter{}
	}
}

// JSONConverter encodes values as JSON.
type JSONConverter struct{}

func (JSONConverter) Serialize(v any) ([]byte, error)      { return json.Marshal(v) }
func (JSONConverter) Deserialize(data []byte, v any) error { return json.Unmarshal(data, v) }
func (JSONConverter) Name() string                         { return ConverterJSON }

// MsgpackConverter encodes values as MessagePack.
type MsgpackConverter struct{}

func (MsgpackConverter) Serialize(v any) ([]byte, error)      { return msgpack.Marshal(v) }
func (MsgpackConverter) Deserialize(data []byte, v any) error { return msgpack.Unmarshal(data, v) }
func (MsgpackConverter) Name() string                         { return ConverterMsgpack }
