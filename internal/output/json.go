package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/wesleyorama2/flock/internal/report"
)

// WriteJSON writes snap as indented JSON
func WriteJSON(w io.Writer, snap *report.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// WriteJSONFile writes snap to path, replacing any existing file
func WriteJSONFile(path string, snap *report.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	if err := WriteJSON(f, snap); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
