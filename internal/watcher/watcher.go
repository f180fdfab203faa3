// Package watcher turns inbox directories into a record source: spreadsheet
// files dropped into a watched directory are handed to a Handler once their
// writes settle, and files that disappear are reported as removed.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Handler receives inbox file events. Calls may arrive concurrently.
type Handler interface {
	FileChanged(ctx context.Context, path string)
	FileRemoved(ctx context.Context, path string)
}

// HandlerFuncs adapts a pair of functions to Handler. Nil fields are ignored.
type HandlerFuncs struct {
	Changed func(ctx context.Context, path string)
	Removed func(ctx context.Context, path string)
}

func (h HandlerFuncs) FileChanged(ctx context.Context, path string) {
	if h.Changed != nil {
		h.Changed(ctx, path)
	}
}

func (h HandlerFuncs) FileRemoved(ctx context.Context, path string) {
	if h.Removed != nil {
		h.Removed(ctx, path)
	}
}

// Inbox watches a set of root directories.
type Inbox struct {
	handler    Handler
	extensions []string
	recursive  bool
	debounce   time.Duration
	logger     *zap.Logger

	mu      sync.Mutex
	ctx     context.Context
	fsw     *fsnotify.Watcher
	roots   []string
	watched map[string][]string // root -> directories registered with fsnotify
	pending map[string]*time.Timer
	done    chan struct{}
	once    sync.Once
}

// Option configures an Inbox.
type Option func(*Inbox)

// WithLogger sets the logger for watch events.
func WithLogger(l *zap.Logger) Option {
	return func(in *Inbox) {
		if l != nil {
			in.logger = l
		}
	}
}

// WithExtensions limits the inbox to files with the given extensions.
// An empty list accepts every file.
func WithExtensions(exts []string) Option {
	return func(in *Inbox) { in.extensions = append([]string(nil), exts...) }
}

// WithRecursive controls whether subdirectories of a root are watched.
func WithRecursive(recursive bool) Option {
	return func(in *Inbox) { in.recursive = recursive }
}

// WithDebounce sets how long a file must stay quiet before FileChanged fires.
func WithDebounce(d time.Duration) Option {
	return func(in *Inbox) {
		if d > 0 {
			in.debounce = d
		}
	}
}

// New creates an inbox over roots. Watching begins with Start.
func New(roots []string, h Handler, opts ...Option) *Inbox {
	in := &Inbox{
		handler:   h,
		recursive: true,
		debounce:  defaultDebounce,
		logger:    zap.NewNop(),
		ctx:       context.Background(),
		watched:   make(map[string][]string),
		pending:   make(map[string]*time.Timer),
		done:      make(chan struct{}),
	}
	for _, r := range roots {
		in.roots = append(in.roots, filepath.Clean(r))
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Start registers every root (creating missing ones) and begins delivering
// events. It returns immediately; delivery stops when ctx is done or Stop is
// called. The same ctx is passed to the handler.
func (in *Inbox) Start(ctx context.Context) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.fsw != nil {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	in.fsw = fsw
	in.ctx = ctx
	for _, root := range in.roots {
		if err := in.watchRootLocked(root); err != nil {
			_ = fsw.Close()
			in.fsw = nil
			return err
		}
	}
	in.logger.Info("inbox watching",
		zap.Strings("roots", in.roots),
		zap.Strings("extensions", in.extensions),
		zap.Bool("recursive", in.recursive))
	go in.loop(ctx, fsw)
	return nil
}

func (in *Inbox) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			in.Stop()
			return
		case <-in.done:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			in.handle(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			in.logger.Warn("inbox watch error", zap.Error(err))
		}
	}
}

func (in *Inbox) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if !in.underRoot(path) {
		return
	}
	in.logger.Debug("inbox event", zap.String("op", ev.Op.String()), zap.String("path", path))

	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		in.cancel(path)
		if in.accepts(path) {
			in.handler.FileRemoved(in.context(), path)
		}
		return
	}
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
		return
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		if ev.Has(fsnotify.Create) {
			in.adoptDirectory(path)
		}
		return
	}
	if in.accepts(path) {
		in.schedule(path)
	}
}

// adoptDirectory starts watching a directory created under a root and
// reports the files already inside it.
func (in *Inbox) adoptDirectory(dir string) {
	in.mu.Lock()
	fsw, recursive := in.fsw, in.recursive
	in.mu.Unlock()
	if fsw == nil || !recursive {
		return
	}
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := fsw.Add(p); err != nil {
				in.logger.Warn("inbox could not watch directory", zap.String("path", p), zap.Error(err))
			}
			return nil
		}
		if in.accepts(p) {
			in.schedule(p)
		}
		return nil
	})
}

func (in *Inbox) schedule(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.pending[path]; ok {
		t.Stop()
	}
	in.pending[path] = time.AfterFunc(in.debounce, func() {
		in.mu.Lock()
		delete(in.pending, path)
		ctx := in.ctx
		in.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		in.logger.Debug("inbox file settled", zap.String("path", path))
		in.handler.FileChanged(ctx, path)
	})
}

func (in *Inbox) cancel(path string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if t, ok := in.pending[path]; ok {
		t.Stop()
		delete(in.pending, path)
	}
}

func (in *Inbox) context() context.Context {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.ctx
}

func (in *Inbox) accepts(path string) bool {
	return !isLockFile(path) && matchExtension(path, in.extensions)
}

// isLockFile reports owner files left next to open workbooks by Excel
// ("~$Book.xlsx") and LibreOffice (".~lock.Book.xlsx#").
func isLockFile(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".~lock.")
}

func matchExtension(path string, extensions []string) bool {
	if len(extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}

func (in *Inbox) underRoot(path string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, root := range in.roots {
		if inDir(root, path) {
			return true
		}
	}
	return false
}

func inDir(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (in *Inbox) watchRootLocked(root string) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return err
	}
	if !in.recursive {
		if err := in.fsw.Add(root); err != nil {
			return err
		}
		in.watched[root] = []string{root}
		return nil
	}
	var dirs []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := in.fsw.Add(p); err != nil {
			return err
		}
		dirs = append(dirs, p)
		return nil
	})
	if err != nil {
		return err
	}
	in.watched[root] = dirs
	return nil
}

// AddDirectory adds a root. With syncExisting, files already in it are
// reported through FileChanged in the background. Adding a known root is a
// no-op.
func (in *Inbox) AddDirectory(dir string, syncExisting bool) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, r := range in.roots {
		if r == abs {
			return nil
		}
	}
	if in.fsw != nil {
		if err := in.watchRootLocked(abs); err != nil {
			return err
		}
	}
	in.roots = append(in.roots, abs)
	in.logger.Info("inbox directory added", zap.String("path", abs))
	if syncExisting && in.fsw != nil {
		go in.syncRoot(in.ctx, abs)
	}
	return nil
}

// RemoveDirectory stops watching a root. Records already imported from it
// are kept.
func (in *Inbox) RemoveDirectory(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	for i, r := range in.roots {
		if r != abs {
			continue
		}
		if in.fsw != nil {
			for _, p := range in.watched[abs] {
				_ = in.fsw.Remove(p)
			}
		}
		delete(in.watched, abs)
		in.roots = append(in.roots[:i], in.roots[i+1:]...)
		in.logger.Info("inbox directory removed", zap.String("path", abs))
		return nil
	}
	return nil
}

// Directories returns the current roots.
func (in *Inbox) Directories() []string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]string(nil), in.roots...)
}

// Sync reports every matching file already present in the roots. It runs
// synchronously and stops early when ctx is done.
func (in *Inbox) Sync(ctx context.Context) {
	for _, root := range in.Directories() {
		if ctx.Err() != nil {
			return
		}
		in.syncRoot(ctx, root)
	}
}

func (in *Inbox) syncRoot(ctx context.Context, root string) {
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if p != root && !in.recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if in.accepts(p) {
			in.handler.FileChanged(ctx, p)
		}
		return nil
	})
}

// Stop ends watching and drops pending events. It is safe to call more than
// once.
func (in *Inbox) Stop() {
	in.mu.Lock()
	for p, t := range in.pending {
		t.Stop()
		delete(in.pending, p)
	}
	if in.fsw != nil {
		_ = in.fsw.Close()
		in.fsw = nil
	}
	in.mu.Unlock()
	in.once.Do(func() { close(in.done) })
}
