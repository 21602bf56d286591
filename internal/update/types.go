// Package update checks a remote metadata source for newer plugin releases and
// downloads and installs them in place of the running package.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Metadata is the envelope produced by a metadata fetch.
// An empty Error means the fetch succeeded and Response holds the release.
type Metadata struct {
	Error    string   `json:"Error" yaml:"error"`
	HTTPCode int      `json:"httpCode" yaml:"http_code"`
	Response *Release `json:"Response" yaml:"response"`
}

// Release describes the latest published build.
// Pointer fields are nil when the remote omitted them.
type Release struct {
	Version      *string   `json:"version" yaml:"version"`
	Time         *UnixTime `json:"time" yaml:"time"`
	PatchNotes   string    `json:"patch_notes" yaml:"patch_notes"`
	Link         *string   `json:"link" yaml:"link"`
	DownloadLink string    `json:"download_link" yaml:"download_link"`
}

// missingFields lists the required fields absent from the release.
func (r *Release) missingFields() []string {
	if r == nil {
		return []string{"version", "time", "link"}
	}
	var missing []string
	if r.Version == nil {
		missing = append(missing, "version")
	}
	if r.Time == nil {
		missing = append(missing, "time")
	}
	if r.Link == nil {
		missing = append(missing, "link")
	}
	return missing
}

// UnixTime is a release timestamp in unix seconds.
// It decodes from a JSON number or a numeric string.
type UnixTime int64

// UnmarshalJSON implements json.Unmarshaler.
func (u *UnixTime) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*u = UnixTime(atoiPrefix(n.String()))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("release time: %w", err)
	}
	*u = UnixTime(atoiPrefix(s))
	return nil
}

// Time returns the timestamp as a time.Time.
func (u UnixTime) Time() time.Time {
	return time.Unix(int64(u), 0)
}

// DownloadResult is reported once a download task finishes.
type DownloadResult struct {
	LocalPath  string `json:"local_path" yaml:"local_path"`
	HTTPStatus int    `json:"http_status" yaml:"http_status"`
}

// Plugin exposes the read-only view of the running plugin.
type Plugin interface {
	// Name is the plugin's descriptive name, used for the temporary download file.
	Name() string
	// DisplayName is the canonical name the installed package is given.
	DisplayName() string
	// Version is the running version string.
	Version() string
	// DataDir is the plugin's private data/storage root.
	DataDir() string
	// File is the path the plugin was loaded from; archive-loaded plugins carry a scheme prefix.
	File() string
	// Enabled reports whether automatic download and install is allowed.
	Enabled() bool
}

// MetadataFetcher retrieves the latest release metadata.
// Transport failures are reported through Metadata.Error, not as a Go error.
type MetadataFetcher interface {
	FetchMetadata(ctx context.Context, url string) *Metadata
}

// FileFetcher transfers url to dst and returns the HTTP status code.
type FileFetcher interface {
	FetchToFile(ctx context.Context, url, dst string) (int, error)
}

// TaskRunner schedules background work.
// Tasks may run on any goroutine.
type TaskRunner interface {
	Submit(ctx context.Context, task func(context.Context))
}

// DownloadStarter begins an asynchronous package download.
type DownloadStarter interface {
	Start(ctx context.Context, plugin Plugin, url string)
}

// Outcome is the result of handling one metadata payload.
type Outcome int

const (
	// OutcomeUpToDate means the running version matches the published one.
	OutcomeUpToDate Outcome = iota
	// OutcomeNewer means a newer release was published.
	OutcomeNewer
	// OutcomeStale means the running build is ahead of the published release.
	OutcomeStale
	// OutcomeInvalidPayload means the metadata was missing required fields or carried a malformed version.
	OutcomeInvalidPayload
	// OutcomeFetchError means the metadata fetch itself failed.
	OutcomeFetchError
)

// String returns the string representation of an Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeUpToDate:
		return "up-to-date"
	case OutcomeNewer:
		return "newer"
	case OutcomeStale:
		return "stale"
	case OutcomeInvalidPayload:
		return "invalid-payload"
	case OutcomeFetchError:
		return "fetch-error"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so reports render the name.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Decision is what the Engine concluded for one payload.
type Decision struct {
	Outcome         Outcome `json:"outcome" yaml:"outcome"`
	Candidate       string  `json:"candidate,omitempty" yaml:"candidate,omitempty"`
	DownloadStarted bool    `json:"download_started" yaml:"download_started"`
}

// atoiPrefix parses the leading integer of s the permissive way: leading
// whitespace is skipped, digits are consumed until the first non-digit and an
// input without leading digits yields 0. Signs are not accepted so the result
// is never negative.
func atoiPrefix(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// Out of range; clamp like a saturating parse.
		return int(^uint(0) >> 1)
	}
	return n
}
