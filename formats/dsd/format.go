package dsd

import (
	"errors"
	"fmt"
	"strings"
)

// Errors.
var (
	ErrIncompatibleFormat = errors.New("dsd: format is incompatible with operation")
	ErrNoMoreSpace        = errors.New("dsd: no more space left after reading dsd type")
	ErrUnknownFormat      = errors.New("dsd: format is unknown")
)

// SerializationFormat identifies an encoding of structured data.
type SerializationFormat uint8

// Serialization Formats.
const (
	AUTO    SerializationFormat = 0
	CBOR    SerializationFormat = 67 // C
	JSON    SerializationFormat = 74 // J
	MsgPack SerializationFormat = 77 // M
	YAML    SerializationFormat = 89 // Y
)

// DefaultSerializationFormat is used when dumping with AUTO.
var DefaultSerializationFormat = JSON

// ValidateSerializationFormat validates if the format is for serialization,
// and returns the validated format as well as the result of the validation.
// If called on the AUTO format, it returns the default serialization format.
func (format SerializationFormat) ValidateSerializationFormat() (validated SerializationFormat, ok bool) {
	switch format {
	case AUTO:
		return DefaultSerializationFormat, true
	case CBOR, JSON, MsgPack, YAML:
		return format, true
	default:
		return 0, false
	}
}

// IsText returns whether the format produces printable text.
func (format SerializationFormat) IsText() bool {
	return format == JSON || format == YAML
}

func (format SerializationFormat) String() string {
	switch format {
	case AUTO:
		return "auto"
	case CBOR:
		return "cbor"
	case JSON:
		return "json"
	case MsgPack:
		return "msgpack"
	case YAML:
		return "yaml"
	default:
		return fmt.Sprintf("unknown(%d)", format)
	}
}

// ParseFormat returns the serialization format with the given name.
func ParseFormat(name string) (SerializationFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cbor":
		return CBOR, nil
	case "json":
		return JSON, nil
	case "msgpack":
		return MsgPack, nil
	case "yaml", "yml":
		return YAML, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}
