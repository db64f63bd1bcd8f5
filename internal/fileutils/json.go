package fileutils

import (
	"encoding/json"
	"fmt"
	"io"
)

// ParseJSON unmarshals the data in r into v.
//
// The whole reader is consumed first so that trailing garbage after a valid document is reported.
func ParseJSON(r io.Reader, v any) error {
	buf, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("error reading from io.Reader: %v", err)
	}

	if err := json.Unmarshal(buf, v); err != nil {
		return fmt.Errorf("couldn't parse JSON: %v", err)
	}
	return nil
}
