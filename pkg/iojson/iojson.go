// Package iojson writes indented JSON command output.
package iojson

import (
	"encoding/json"
	"fmt"
	"io"
)

// marshalFailure is printed to the error writer when obj cannot be
// encoded, which indicates a bug rather than a user error.
func marshalFailure(err error) string {
	errBytes, _ := json.Marshal(err.Error())
	return fmt.Sprintf(`{"message":"error marshaling output","data":{"json_error":%s}}`, errBytes)
}

// WriteWith writes obj to w as indented JSON followed by a newline. Encoding
// failures are reported on ew.
func WriteWith(w io.Writer, ew io.Writer, obj any) error {
	bits, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintln(ew, marshalFailure(err))
		return fmt.Errorf("encode output: %w", err)
	}

	_, err = fmt.Fprintln(w, string(bits))
	return err
}
