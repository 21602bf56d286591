package update

import (
	"errors"
	"testing"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Version
		wantError bool
	}{
		{
			name:  "simple version",
			input: "1.2.3",
			want:  Version{Major: 1, Minor: 2, Patch: 3},
		},
		{
			name:  "beta build",
			input: "1.0.0-beta2",
			want:  Version{Major: 1, Minor: 0, Patch: 0, BuildID: 2, HasBuild: true},
		},
		{
			name:  "fourth segment is a build id",
			input: "2.1.0.7",
			want:  Version{Major: 2, Minor: 1, Patch: 0, BuildID: 7, HasBuild: true},
		},
		{
			name:  "beta suffix overrides fourth segment",
			input: "2.1.0-beta5.9",
			want:  Version{Major: 2, Minor: 1, Patch: 0, BuildID: 5, HasBuild: true},
		},
		{
			name:  "empty build id parses as zero",
			input: "1.0.0-beta",
			want:  Version{Major: 1, Patch: 0, BuildID: 0, HasBuild: true},
		},
		{
			name:  "non-numeric parts parse as zero",
			input: "x.2y.z",
			want:  Version{Major: 0, Minor: 2, Patch: 0},
		},
		{
			name:  "trailing garbage after digits",
			input: "1.2.3rc",
			want:  Version{Major: 1, Minor: 2, Patch: 3},
		},
		{
			name:  "leading v is not a number",
			input: "v1.2.3",
			want:  Version{Major: 0, Minor: 2, Patch: 3},
		},
		{
			name:      "two segments",
			input:     "1.2",
			wantError: true,
		},
		{
			name:      "empty string",
			input:     "",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVersion(tt.input)
			if tt.wantError {
				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Fatalf("ParseVersion(%q) error = %v, want *ParseError", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseVersion(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseVersion(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		candidate string
		expected  int
	}{
		{"patch bump", "1.2.3", "1.2.4", 1},
		{"major bump", "1.9.9", "2.0.0", 1},
		{"older major", "2.0.0", "1.9.9", -1},
		{"equal", "1.0.0", "1.0.0", 0},
		{"minor not compared as string", "1.9.0", "1.10.0", 1},
		{"older minor", "1.10.0", "1.9.0", -1},
		{"older patch", "1.2.10", "1.2.9", -1},
		{"release supersedes beta", "1.0.0-beta2", "1.0.0", 1},
		{"lower build id is older", "1.0.0-beta3", "1.0.0-beta2", -1},
		{"higher build id is newer", "1.0.0-beta2", "1.0.0-beta3", 1},
		{"same build id", "1.0.0-beta2", "1.0.0-beta2", 0},
		{"beta of next patch is newer", "1.0.0", "1.0.1-beta1", 1},
		{"numeric triple wins over build", "1.0.1-beta1", "1.0.0", -1},
		{"fourth segment build", "1.0.0.3", "1.0.0.4", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompareVersions(tt.current, tt.candidate)
			if err != nil {
				t.Fatalf("CompareVersions(%q, %q) error: %v", tt.current, tt.candidate, err)
			}
			if got != tt.expected {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.current, tt.candidate, got, tt.expected)
			}
		})
	}
}

func TestCompareVersions_Reflexive(t *testing.T) {
	versions := []string{"0.0.0", "1.2.3", "10.20.30", "1.0.0-beta1", "4.5.6.7", "1.0.0-beta"}

	for _, v := range versions {
		got, err := CompareVersions(v, v)
		if err != nil {
			t.Fatalf("CompareVersions(%q, %q) error: %v", v, v, err)
		}
		if got != 0 {
			t.Errorf("CompareVersions(%q, %q) = %d, want 0", v, v, got)
		}
	}
}

func TestCompareVersions_Antisymmetric(t *testing.T) {
	pairs := [][2]string{
		{"1.2.3", "1.2.4"},
		{"2.0.0", "1.9.9"},
		{"0.1.0", "0.2.0"},
		{"1.0.0-beta1", "1.0.0-beta2"},
		{"3.0.0-beta9", "2.9.9-beta1"},
		{"1.1.1", "1.1.1"},
	}

	for _, p := range pairs {
		ab, err := CompareVersions(p[0], p[1])
		if err != nil {
			t.Fatalf("CompareVersions(%q, %q) error: %v", p[0], p[1], err)
		}
		ba, err := CompareVersions(p[1], p[0])
		if err != nil {
			t.Fatalf("CompareVersions(%q, %q) error: %v", p[1], p[0], err)
		}
		if ab != -ba {
			t.Errorf("CompareVersions(%q, %q) = %d but reversed = %d", p[0], p[1], ab, ba)
		}
	}
}

// A build-qualified candidate against an unqualified current version compares
// equal, while the reverse direction reports an update. The two directions are
// deliberately not antisymmetric.
func TestCompareVersions_BuildAsymmetry(t *testing.T) {
	got, err := CompareVersions("1.0.0", "1.0.0-beta2")
	if err != nil {
		t.Fatalf("CompareVersions error: %v", err)
	}
	if got != 0 {
		t.Errorf("CompareVersions(1.0.0, 1.0.0-beta2) = %d, want 0", got)
	}

	got, err = CompareVersions("1.0.0-beta2", "1.0.0")
	if err != nil {
		t.Fatalf("CompareVersions error: %v", err)
	}
	if got != 1 {
		t.Errorf("CompareVersions(1.0.0-beta2, 1.0.0) = %d, want 1", got)
	}
}

func TestCompareVersions_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		current   string
		candidate string
	}{
		{"invalid current", "1.2", "1.2.3"},
		{"invalid candidate", "1.2.3", "latest"},
		{"both invalid", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompareVersions(tt.current, tt.candidate)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("CompareVersions(%q, %q) error = %v, want *ParseError", tt.current, tt.candidate, err)
			}
		})
	}
}
