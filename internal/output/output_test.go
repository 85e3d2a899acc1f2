package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	err := WriteJSON(map[string]any{"total": 3, "new": 2}, &buf)
	if err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}

	if !strings.Contains(buf.String(), "  \"new\": 2") {
		t.Errorf("output should be indented, got %q", buf.String())
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}

	if err := WriteJSON(nil, &buf); err == nil {
		t.Error("nil value must be rejected")
	}
}

func TestWriteJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preview.json")
	if err := WriteJSONToFile(map[string]string{"parser": "pdf"}, WriteOptions{FilePath: path}); err != nil {
		t.Fatalf("WriteJSONToFile returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"parser": "pdf"`) {
		t.Errorf("unexpected file content: %q", data)
	}

	badPath := filepath.Join(t.TempDir(), "missing-dir", "out.json")
	if err := WriteJSONToFile(map[string]string{}, WriteOptions{FilePath: badPath}); err == nil {
		t.Error("unwritable path must error")
	}
}
