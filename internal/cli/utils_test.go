package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/hyperjump/crmsheet/internal/models"
	"github.com/hyperjump/crmsheet/internal/processor"
)

const recID = "7f3c1a52-9d0e-4f43-8a7b-2d6e3c1b9a10"

func sampleResult() *processor.Result {
	return &processor.Result{
		RecordID: recID,
		Sheets:   []string{"Business Summary"},
		Tables: []*models.ExtractedTable{{
			RecordID: recID,
			Sheet:    "Business Summary",
			Range:    "C3:D15",
			Cells:    map[string]string{"D3": "1000", "C3": "Revenue", "C10": "Margin"},
		}},
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", OutputText, false},
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, []*processor.Result{sampleResult()}, OutputJSON); err != nil {
		t.Fatalf("WriteResults(json): %v", err)
	}
	var decoded []processor.Result
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded) != 1 || decoded[0].RecordID != recID {
		t.Fatalf("decoded = %+v", decoded)
	}
	if got := decoded[0].Tables[0].Cells["C3"]; got != "Revenue" {
		t.Errorf("C3 = %q, want Revenue", got)
	}
}

func TestWriteResults_JSON_empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty batch should encode as [], got %q", buf.String())
	}
}

func TestWriteResults_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, []*processor.Result{sampleResult()}, OutputText); err != nil {
		t.Fatalf("WriteResults(text): %v", err)
	}
	out := buf.String()
	for _, sub := range []string{"Record " + recID, "1 sheet(s)", "1 table(s)", "Business Summary", "C3:D15", "(3 cells)", "Revenue"} {
		if !strings.Contains(out, sub) {
			t.Errorf("text output missing %q:\n%s", sub, out)
		}
	}
	// row-major: C3, D3, then C10
	c3, d3, c10 := strings.Index(out, "C3 "), strings.Index(out, "D3 "), strings.Index(out, "C10 ")
	if !(c3 < d3 && d3 < c10) {
		t.Errorf("cells not in row-major order:\n%s", out)
	}
}

func TestWriteResults_text_skipped(t *testing.T) {
	var buf bytes.Buffer
	res := &processor.Result{RecordID: recID, Skipped: true}
	if err := WriteResults(&buf, []*processor.Result{res}, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "skipped") {
		t.Errorf("expected skipped notice, got %q", buf.String())
	}
}

func TestWriteResults_text_localFile(t *testing.T) {
	var buf bytes.Buffer
	res := sampleResult()
	res.RecordID = ""
	if err := WriteResults(&buf, []*processor.Result{res}, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "(local file)") {
		t.Errorf("expected local file label, got %q", buf.String())
	}
}

func TestWriteStatus(t *testing.T) {
	st := &models.Status{
		Records:           3,
		Cells:             42,
		DatabasePath:      "/var/crmsheet/records.db",
		DatabaseSizeBytes: 2048,
		Loader:            "store",
		Sink:              "console",
		WatchDirectories:  []string{"/srv/inbox"},
	}
	var buf bytes.Buffer
	if err := WriteStatus(&buf, st, OutputText); err != nil {
		t.Fatal(err)
	}
	for _, sub := range []string{"Records:       3", "Stored cells:  42", "2.0 KiB", "/srv/inbox"} {
		if !strings.Contains(buf.String(), sub) {
			t.Errorf("status output missing %q:\n%s", sub, buf.String())
		}
	}

	buf.Reset()
	if err := WriteStatus(&buf, st, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.Status
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Cells != 42 || decoded.Sink != "console" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := FormatBytes(tt.n); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestPrintResults(t *testing.T) {
	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	os.Stdout = w
	defer func() {
		os.Stdout = oldStdout
		_ = w.Close()
	}()
	PrintResults([]*processor.Result{{RecordID: recID, Skipped: true}}, OutputText)
	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	if !strings.Contains(buf.String(), recID) {
		t.Errorf("PrintResults should write to stdout; got %q", buf.String())
	}
}
