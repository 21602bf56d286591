package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/adamancini/pluginupdater/internal/update"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func sampleCycle() CycleReport {
	return CycleReport{Report: update.Report{
		ID:      "abc",
		Plugin:  "MyPlugin",
		Current: "1.0.0",
		Decision: update.Decision{
			Outcome:         update.OutcomeNewer,
			Candidate:       "1.1.0",
			DownloadStarted: true,
		},
		Install: &update.InstallResult{
			HTTPStatus: 200,
			Installed:  true,
			Archive:    true,
			Target:     "/srv/plugins/MyPlugin.phar",
			Steps: []update.InstallStep{
				{Name: update.StepBackupOld, Path: "/srv/plugins/MyPlugin.phar.old"},
				{Name: update.StepMoveNew, Path: "/srv/plugins/MyPlugin.phar"},
			},
		},
	}}
}

func TestCycleReport_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf, FormatText).Write(sampleCycle()); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"Cycle abc for MyPlugin (running 1.0.0)",
		"Outcome: newer (published 1.1.0)",
		"Download: started",
		"installed to /srv/plugins/MyPlugin.phar",
		"✓ backup-old",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q missing %q", out, want)
		}
	}
}

func TestCycleReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf, FormatJSON).Write(sampleCycle()); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["plugin"] != "MyPlugin" {
		t.Errorf("plugin = %v", decoded["plugin"])
	}
	decision := decoded["decision"].(map[string]any)
	if decision["outcome"] != "newer" {
		t.Errorf("outcome = %v, want newer", decision["outcome"])
	}
}

func TestCycleReport_YAMLInline(t *testing.T) {
	var buf bytes.Buffer
	if err := NewWriter(&buf, FormatYAML).Write(sampleCycle()); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if decoded["id"] != "abc" {
		t.Errorf("id = %v, want abc at the top level", decoded["id"])
	}
}

func TestCleanReport(t *testing.T) {
	r := NewCleanReport(update.CleanResult{
		Path:    "/data/tmp",
		Removed: []string{"/data/tmp/a", "/data/tmp"},
		Errors:  []error{errors.New("permission denied")},
	})

	if len(r.Errors) != 1 {
		t.Fatalf("Errors = %v", r.Errors)
	}
	s := r.String()
	if !strings.Contains(s, "Removed 2 entries under /data/tmp") || !strings.Contains(s, "permission denied") {
		t.Errorf("String() = %q", s)
	}

	refused := NewCleanReport(update.CleanResult{Path: "/", Refused: true})
	if !strings.Contains(refused.String(), "Refused") {
		t.Errorf("String() = %q", refused.String())
	}
	if refused.Removed == nil {
		t.Error("Removed should be an empty list, not nil")
	}
}

func TestCompareReport(t *testing.T) {
	r := CompareReport{Current: "1.0.0", Candidate: "1.0.1", Result: 1}
	if r.String() != "1" {
		t.Errorf("String() = %q, want 1", r.String())
	}
}

func TestWriter_StreamJSON(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatJSON).Stream()

	for _, r := range []int{1, -1} {
		if err := w.Write(CompareReport{Current: "1.0.0", Candidate: "1.0.1", Result: r}); err != nil {
			t.Fatal(err)
		}
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want one per report:\n%s", len(lines), buf.String())
	}
	for i, want := range []int{1, -1} {
		var got CompareReport
		if err := json.Unmarshal([]byte(lines[i]), &got); err != nil {
			t.Fatalf("line %d is not JSON: %v", i, err)
		}
		if got.Result != want {
			t.Errorf("line %d result = %d, want %d", i, got.Result, want)
		}
	}
}

func TestWriter_StreamYAML(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatYAML).Stream()

	_ = w.Write(CompareReport{Current: "1.0.0", Candidate: "2.0.0", Result: 1})
	_ = w.Write(CompareReport{Current: "2.0.0", Candidate: "1.0.0", Result: -1})

	dec := yaml.NewDecoder(&buf)
	var docs []CompareReport
	for {
		var r CompareReport
		if err := dec.Decode(&r); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			t.Fatalf("decode: %v", err)
		}
		docs = append(docs, r)
	}
	if len(docs) != 2 || docs[0].Result != 1 || docs[1].Result != -1 {
		t.Errorf("docs = %+v, want two reports", docs)
	}
}

func TestWriter_ConcurrentWritesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf, FormatJSON).Stream()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = w.Write(NewCleanReport(update.CleanResult{Path: "/srv/plugin_data/MyPlugin/tmp"}))
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("got %d lines, want 20", len(lines))
	}
	for _, line := range lines {
		var r CleanReport
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Errorf("corrupt line %q: %v", line, err)
		}
	}
}
