package output

import (
	"fmt"
	"strings"

	"github.com/adamancini/pluginupdater/internal/update"
)

// CycleReport renders one update cycle.
type CycleReport struct {
	update.Report `yaml:",inline"`
}

func (r CycleReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cycle %s for %s (running %s)\n", r.ID, r.Plugin, r.Current)

	d := r.Decision
	switch d.Outcome {
	case update.OutcomeNewer, update.OutcomeStale, update.OutcomeUpToDate:
		fmt.Fprintf(&b, "Outcome: %s (published %s)\n", d.Outcome, d.Candidate)
	default:
		fmt.Fprintf(&b, "Outcome: %s\n", d.Outcome)
	}

	if d.Outcome == update.OutcomeNewer {
		if d.DownloadStarted {
			b.WriteString("Download: started\n")
		} else {
			b.WriteString("Download: skipped (automatic updates disabled)\n")
		}
	}

	if in := r.Install; in != nil {
		switch {
		case in.Installed:
			fmt.Fprintf(&b, "Install: installed to %s, restart to load it\n", in.Target)
		case in.HTTPStatus != 200:
			fmt.Fprintf(&b, "Install: cancelled, download returned status %d\n", in.HTTPStatus)
		default:
			b.WriteString("Install: failed\n")
		}
		for _, s := range in.Steps {
			if s.Error != "" {
				fmt.Fprintf(&b, "  ✗ %s %s: %s\n", s.Name, s.Path, s.Error)
			} else {
				fmt.Fprintf(&b, "  ✓ %s %s\n", s.Name, s.Path)
			}
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// CompareReport is the result of comparing two version strings.
type CompareReport struct {
	Current   string `json:"current" yaml:"current"`
	Candidate string `json:"candidate" yaml:"candidate"`
	Result    int    `json:"result" yaml:"result"`
}

func (r CompareReport) String() string {
	return fmt.Sprintf("%d", r.Result)
}

// CleanReport is the outcome of a directory removal.
type CleanReport struct {
	Path    string   `json:"path" yaml:"path"`
	Refused bool     `json:"refused" yaml:"refused"`
	Removed []string `json:"removed" yaml:"removed"`
	Errors  []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// NewCleanReport converts a cleaner result into a printable report.
func NewCleanReport(r update.CleanResult) CleanReport {
	report := CleanReport{
		Path:    r.Path,
		Refused: r.Refused,
		Removed: r.Removed,
	}
	if report.Removed == nil {
		report.Removed = []string{}
	}
	for _, err := range r.Errors {
		report.Errors = append(report.Errors, err.Error())
	}
	return report
}

func (r CleanReport) String() string {
	if r.Refused {
		return fmt.Sprintf("Refused to delete protected path %q", r.Path)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Removed %d entries under %s", len(r.Removed), r.Path)
	for _, e := range r.Errors {
		fmt.Fprintf(&b, "\n  ✗ %s", e)
	}
	return b.String()
}
