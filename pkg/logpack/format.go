package logpack

import (
	"encoding/json"
	"fmt"

	"github.com/paulschiretz/pgl-mirror/pkg/util"
)

// Format selects the compression codec for packed run logs.
type Format int

const (
	None Format = iota
	Gzip
	Zstd
)

var formatToString = map[Format]string{
	None: "none",
	Gzip: "gzip",
	Zstd: "zstd",
}
var stringToFormat = map[string]Format{}

func init() {
	stringToFormat = util.InvertMap(formatToString)
}

// String returns the string representation of a Format.
func (f Format) String() string {
	if str, ok := formatToString[f]; ok {
		return str
	}
	return fmt.Sprintf("unknown_format(%d)", f)
}

// Extension returns the file extension appended to packed logs.
func (f Format) Extension() string {
	switch f {
	case Gzip:
		return ".gz"
	case Zstd:
		return ".zst"
	default:
		return ""
	}
}

// ParseFormat parses a string and returns the corresponding Format.
func ParseFormat(s string) (Format, error) {
	if format, ok := stringToFormat[s]; ok {
		return format, nil
	}
	return 0, fmt.Errorf("invalid log pack format: %q. Must be 'none', 'gzip' or 'zstd'", s)
}

// MarshalJSON implements the json.Marshaler interface for Format.
func (f Format) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for Format.
func (f *Format) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("Format should be a string, got %s", data)
	}
	format, err := ParseFormat(s)
	if err != nil {
		return err
	}
	*f = format
	return nil
}
