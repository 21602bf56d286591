package update

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
)

// recordingFs wraps an afero.Fs and records every mutating call.
type recordingFs struct {
	afero.Fs
	mu    sync.Mutex
	calls []string
}

func newRecordingFs(fs afero.Fs) *recordingFs {
	return &recordingFs{Fs: fs}
}

func (r *recordingFs) record(op string, paths ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op+" "+strings.Join(paths, " -> "))
}

func (r *recordingFs) Mutations() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// MutationsUnder returns the recorded calls that mention prefix.
func (r *recordingFs) MutationsUnder(prefix string) []string {
	var out []string
	for _, c := range r.Mutations() {
		if strings.Contains(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func (r *recordingFs) Remove(name string) error {
	r.record("remove", name)
	return r.Fs.Remove(name)
}

func (r *recordingFs) RemoveAll(path string) error {
	r.record("removeall", path)
	return r.Fs.RemoveAll(path)
}

func (r *recordingFs) Rename(oldname, newname string) error {
	r.record("rename", oldname, newname)
	return r.Fs.Rename(oldname, newname)
}

func (r *recordingFs) Mkdir(name string, perm os.FileMode) error {
	r.record("mkdir", name)
	return r.Fs.Mkdir(name, perm)
}

func (r *recordingFs) MkdirAll(path string, perm os.FileMode) error {
	r.record("mkdirall", path)
	return r.Fs.MkdirAll(path, perm)
}

func (r *recordingFs) Create(name string) (afero.File, error) {
	r.record("create", name)
	return r.Fs.Create(name)
}

// testPlugin is a fixed Plugin for tests.
type testPlugin struct {
	name        string
	displayName string
	version     string
	dataDir     string
	file        string
	enabled     bool
}

func (p testPlugin) Name() string        { return p.name }
func (p testPlugin) DisplayName() string { return p.displayName }
func (p testPlugin) Version() string     { return p.version }
func (p testPlugin) DataDir() string     { return p.dataDir }
func (p testPlugin) File() string        { return p.file }
func (p testPlugin) Enabled() bool       { return p.enabled }

// syncRunner runs tasks inline on the calling goroutine.
type syncRunner struct {
	submitted int
}

func (r *syncRunner) Submit(ctx context.Context, task func(context.Context)) {
	r.submitted++
	task(ctx)
}

// recordingStarter captures Start calls instead of downloading.
type recordingStarter struct {
	mu   sync.Mutex
	urls []string
}

func (s *recordingStarter) Start(_ context.Context, _ Plugin, url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls, url)
}

func (s *recordingStarter) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

func newTestLogger() (*logrus.Logger, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logger, hook
}

// messagesAt returns the messages logged at level.
func messagesAt(hook *logtest.Hook, level logrus.Level) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

func writeFile(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func exists(t *testing.T, fs afero.Fs, path string) bool {
	t.Helper()
	ok, err := afero.Exists(fs, path)
	if err != nil {
		t.Fatalf("stat %s: %v", path, err)
	}
	return ok
}

func ptr[T any](v T) *T {
	return &v
}
