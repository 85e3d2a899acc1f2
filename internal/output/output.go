// Package output serializes import previews and results to JSON, for piping
// into other tools or feeding a review UI.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteOptions configures where the JSON goes.
type WriteOptions struct {
	FilePath string // output path, empty = stdout
}

// WriteJSON serializes v with 2-space indentation.
func WriteJSON(v any, w io.Writer) error {
	if v == nil {
		return fmt.Errorf("value cannot be nil")
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// WriteJSONToFile writes v to the configured file, or stdout when no path is
// set.
func WriteJSONToFile(v any, opts WriteOptions) (err error) {
	if opts.FilePath == "" {
		return WriteJSON(v, os.Stdout)
	}

	f, err := os.Create(opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", opts.FilePath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", opts.FilePath, closeErr)
		}
	}()

	if err = WriteJSON(v, f); err != nil {
		return fmt.Errorf("failed to write to %s: %w", opts.FilePath, err)
	}
	return nil
}
