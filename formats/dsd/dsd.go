package dsd

// dynamic structured data
// check here for some benchmarks: https://github.com/alecthomas/go_serialization_benchmarks

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/ghodss/yaml"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Kaccad/Juicyscore-test/formats/varint"
)

// Load loads a dsd structured data blob into the given interface and returns
// the format it was stored in.
func Load(data []byte, t interface{}) (format SerializationFormat, err error) {
	if len(data) < 2 {
		return 0, ErrNoMoreSpace
	}

	// Get serialization format.
	f, read, err := varint.Unpack8(data)
	if err != nil {
		return 0, err
	}
	format = SerializationFormat(f)
	if len(data) <= read {
		return format, ErrNoMoreSpace
	}

	return format, LoadAsFormat(data[read:], format, t)
}

// LoadAsFormat loads a data blob into the interface using the specified format.
func LoadAsFormat(data []byte, format SerializationFormat, t interface{}) (err error) {
	switch format {
	case JSON:
		err = json.Unmarshal(data, t)
	case YAML:
		err = yaml.Unmarshal(data, t)
	case CBOR:
		err = cbor.Unmarshal(data, t)
	case MsgPack:
		err = msgpack.Unmarshal(data, t)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
	if err != nil {
		return fmt.Errorf("dsd: failed to unpack %s: %w", format, err)
	}
	return nil
}

// Dump stores the interface as a dsd formatted data structure.
func Dump(t interface{}, format SerializationFormat) ([]byte, error) {
	format, ok := format.ValidateSerializationFormat()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}

	data, err := DumpWithoutIdentifier(t, format)
	if err != nil {
		return nil, err
	}
	return append(varint.Pack8(uint8(format)), data...), nil
}

// DumpWithoutIdentifier serializes the interface without the format
// identifier, for consumers that know the format in advance.
func DumpWithoutIdentifier(t interface{}, format SerializationFormat) (data []byte, err error) {
	format, ok := format.ValidateSerializationFormat()
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}

	switch format {
	case JSON:
		data, err = json.Marshal(t)
	case YAML:
		data, err = yaml.Marshal(t)
	case CBOR:
		data, err = cborEncoding.Marshal(t)
	case MsgPack:
		data, err = msgpack.Marshal(t)
	}
	if err != nil {
		return nil, fmt.Errorf("dsd: failed to pack %s: %w", format, err)
	}
	return data, nil
}

// cborEncoding sorts map keys and encodes times as RFC3339 strings.
var cborEncoding = func() cbor.EncMode {
	em, err := cbor.EncOptions{
		Sort: cbor.SortCanonical,
		Time: cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()
