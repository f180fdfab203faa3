package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu      sync.Mutex
	changed []string
	removed []string
}

func (r *recorder) FileChanged(_ context.Context, path string) {
	r.mu.Lock()
	r.changed = append(r.changed, path)
	r.mu.Unlock()
}

func (r *recorder) FileRemoved(_ context.Context, path string) {
	r.mu.Lock()
	r.removed = append(r.removed, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() (changed, removed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.changed...), append([]string(nil), r.removed...)
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/in/q3.xlsx", []string{".xlsx"}, true},
		{"/in/q3.XLSX", []string{".xlsx"}, true},
		{"/in/q3.xlsm", []string{"xlsx", "xlsm"}, true},
		{"/in/q3.csv", []string{".xlsx"}, false},
		{"/in/q3", nil, true},
	}
	for _, tt := range tests {
		if got := matchExtension(tt.path, tt.extensions); got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestIsLockFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/in/~$q3.xlsx", true},
		{"/in/.~lock.q3.xlsx#", true},
		{"/in/q3.xlsx", false},
		{"/in/q~$3.xlsx", false},
	}
	for _, tt := range tests {
		if got := isLockFile(tt.path); got != tt.want {
			t.Errorf("isLockFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/srv/inbox", "/srv/inbox", true},
		{"/srv/inbox", "/srv/inbox/a.xlsx", true},
		{"/srv/inbox", "/srv/inbox/sub/a.xlsx", true},
		{"/srv/inbox", "/srv/outbox/a.xlsx", false},
		{"/srv/inbox", "/srv/inbox/../a.xlsx", false},
	}
	for _, tt := range tests {
		if got := inDir(tt.dir, tt.path); got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestInbox_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	in := New(nil, &recorder{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()

	if err := in.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	if err := in.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	if dirs := in.Directories(); len(dirs) != 1 || dirs[0] != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}
	if err := in.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if dirs := in.Directories(); len(dirs) != 0 {
		t.Errorf("after remove: %v", dirs)
	}
}

func TestInbox_Start_createsMissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "crm", "inbox")
	in := New([]string{root}, &recorder{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root should exist after Start: %v", err)
	}
}

func TestInbox_Sync(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.xlsx", "~$a.xlsx", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "b.xlsx"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	rec := &recorder{}
	New([]string{dir}, rec, WithExtensions([]string{".xlsx"})).Sync(context.Background())
	changed, _ := rec.snapshot()
	sort.Strings(changed)
	want := []string{filepath.Join(dir, "a.xlsx"), filepath.Join(dir, "sub", "b.xlsx")}
	if len(changed) != 2 || changed[0] != want[0] || changed[1] != want[1] {
		t.Errorf("Sync reported %v, want %v", changed, want)
	}

	rec = &recorder{}
	New([]string{dir}, rec, WithExtensions([]string{".xlsx"}), WithRecursive(false)).Sync(context.Background())
	if changed, _ := rec.snapshot(); len(changed) != 1 {
		t.Errorf("non-recursive Sync reported %v", changed)
	}
}

func TestInbox_reportsChangedAndRemovedFiles(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	in := New([]string{dir}, rec, WithExtensions([]string{".xlsx"}), WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()

	path := filepath.Join(dir, "q3.xlsx")
	if err := os.WriteFile(path, []byte("v1"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "~$q3.xlsx"), []byte("owner"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		changed, _ := rec.snapshot()
		return contains(changed, path)
	})

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		_, removed := rec.snapshot()
		return contains(removed, path)
	})

	changed, _ := rec.snapshot()
	for _, p := range changed {
		if p != path {
			t.Errorf("unexpected changed file %s", p)
		}
	}
}

func TestInbox_newSubdirectoryIsAdopted(t *testing.T) {
	dir := t.TempDir()
	rec := &recorder{}
	in := New([]string{dir}, rec, WithExtensions([]string{".xlsx"}), WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := in.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer in.Stop()

	nested := filepath.Join(dir, "2026", "q3")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(nested, "summary.xlsx")
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		changed, _ := rec.snapshot()
		return contains(changed, path)
	})
}

func TestHandlerFuncs_nilFields(t *testing.T) {
	var h Handler = HandlerFuncs{}
	h.FileChanged(context.Background(), "/in/a.xlsx")
	h.FileRemoved(context.Background(), "/in/a.xlsx")
}
