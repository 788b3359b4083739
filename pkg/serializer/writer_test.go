package serializer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type testReport struct {
	Name  string `json:"name" yaml:"name"`
	Count int    `json:"count" yaml:"count"`
}

func TestWriterSerializeJSON(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(FormatJSON, &buf)

	report := testReport{Name: "minikube", Count: 7}
	if err := writer.Serialize(context.Background(), report); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var result testReport
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal json: %v", err)
	}
	if result != report {
		t.Errorf("round trip = %+v, want %+v", result, report)
	}
}

func TestWriterSerializeYAML(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(FormatYAML, &buf)

	report := testReport{Name: "minikube", Count: 7}
	if err := writer.Serialize(context.Background(), report); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var result testReport
	if err := yaml.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("failed to unmarshal yaml: %v", err)
	}
	if result != report {
		t.Errorf("round trip = %+v, want %+v", result, report)
	}
}

func TestWriterSerializeTable(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(FormatTable, &buf)

	report := struct {
		Cluster  testReport
		Backends []string
		Labels   map[string]string
	}{
		Cluster:  testReport{Name: "minikube", Count: 7},
		Backends: []string{"ingest", "api"},
		Labels:   map[string]string{"app": "signalfx-agent"},
	}

	if err := writer.Serialize(context.Background(), report); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"FIELD",
		"Cluster.Name",
		"minikube",
		"Backends.[0]",
		"ingest",
		"Labels.app",
		"signalfx-agent",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestWriterSerializeTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(FormatTable, &buf)

	if err := writer.Serialize(context.Background(), struct{}{}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	if !strings.Contains(buf.String(), "<empty>") {
		t.Errorf("expected <empty> marker, got %q", buf.String())
	}
}

func TestNewWriterUnknownFormatDefaultsYAML(t *testing.T) {
	var buf bytes.Buffer
	writer := NewWriter(Format("csv"), &buf)

	if err := writer.Serialize(context.Background(), testReport{Name: "x"}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	var result testReport
	if err := yaml.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("fallback output is not yaml: %v", err)
	}
}

func TestNewFileWriterOrStdout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	s := NewFileWriterOrStdout(FormatYAML, path)

	if err := s.Serialize(context.Background(), testReport{Name: "minikube", Count: 1}); err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	closer, ok := s.(Closer)
	if !ok {
		t.Fatal("file-backed serializer should implement Closer")
	}
	if err := closer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Close twice is fine.
	if err := closer.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output file: %v", err)
	}
	var result testReport
	if err := yaml.Unmarshal(content, &result); err != nil {
		t.Fatalf("file content is not yaml: %v", err)
	}
	if result.Name != "minikube" {
		t.Errorf("Name = %q, want %q", result.Name, "minikube")
	}
}

func TestNewFileWriterOrStdoutEmptyPath(t *testing.T) {
	s := NewFileWriterOrStdout(FormatJSON, "  ")
	if _, ok := s.(Closer); !ok {
		t.Fatal("stdout fallback should still satisfy Closer through *Writer")
	}
}

func TestFormatIsUnknown(t *testing.T) {
	tests := []struct {
		format Format
		want   bool
	}{
		{FormatJSON, false},
		{FormatYAML, false},
		{FormatTable, false},
		{Format(""), true},
		{Format("csv"), true},
	}

	for _, tt := range tests {
		if got := tt.format.IsUnknown(); got != tt.want {
			t.Errorf("IsUnknown(%q) = %v, want %v", tt.format, got, tt.want)
		}
	}
}

func TestSupportedFormats(t *testing.T) {
	formats := SupportedFormats()
	if len(formats) != 3 {
		t.Fatalf("expected 3 formats, got %d", len(formats))
	}
	for _, f := range formats {
		if Format(f).IsUnknown() {
			t.Errorf("SupportedFormats lists unknown format %q", f)
		}
	}
}
