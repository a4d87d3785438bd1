// Package fs provides filesystem sources and sinks for batch runs: a
// directory source, an fsnotify-backed inbox, a JSON record sink and a stager
// that moves processed inputs to DONE or ERROR directories.
package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reoring/formskema/batch"
	"github.com/reoring/formskema/document"
	"github.com/reoring/formskema/extract"
)

// IDFunc derives the document id of a file. It must not read the file.
type IDFunc func(path string) string

// IDFromStem uses the file name without its extension.
func IDFromStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RandomID assigns a fresh UUID to every file.
func RandomID(string) string { return uuid.NewString() }

// SourceOption configures DirSource and WatchSource.
type SourceOption func(*sourceConfig)

type sourceConfig struct {
	id     IDFunc
	format document.Format
	settle time.Duration
	logger zerolog.Logger
}

// WithIDFunc sets how document ids are derived. Default IDFromStem.
func WithIDFunc(fn IDFunc) SourceOption {
	return func(c *sourceConfig) {
		if fn != nil {
			c.id = fn
		}
	}
}

// WithFormat forces a format instead of guessing from the extension.
func WithFormat(f document.Format) SourceOption {
	return func(c *sourceConfig) { c.format = f }
}

// WithSettle sets how long a watched file must stay unchanged before it is
// read.
func WithSettle(d time.Duration) SourceOption {
	return func(c *sourceConfig) { c.settle = d }
}

// WithLogger sets the logger used by the watcher.
func WithLogger(l zerolog.Logger) SourceOption {
	return func(c *sourceConfig) { c.logger = l }
}

func newSourceConfig(opts []SourceOption) sourceConfig {
	c := sourceConfig{id: IDFromStem, settle: 200 * time.Millisecond, logger: zerolog.Nop()}
	for _, fn := range opts {
		fn(&c)
	}
	return c
}

func (c sourceConfig) input(path string) (extract.Input, error) {
	in := extract.Input{Origin: path, Format: c.format}
	if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
		return in, fmt.Errorf("%s: not a regular file: %w", path, batch.ErrSkip)
	}
	if in.Format == "" {
		f, ok := document.FormatFromPath(path)
		if !ok {
			return in, fmt.Errorf("%s: unknown extension: %w", path, batch.ErrSkip)
		}
		in.Format = f
	}
	body, err := os.ReadFile(path)
	if err != nil {
		// The file may vanish or lose permissions between Stat and read.
		return in, fmt.Errorf("read %s: %v: %w", path, err, batch.ErrSkip)
	}
	in.ID = c.id(path)
	in.Body = body
	return in, nil
}

// DirSource yields the regular files of one directory in name order.
type DirSource struct {
	cfg   sourceConfig
	paths []string
}

// NewDirSource lists dir. Files added later are not picked up.
func NewDirSource(dir string, opts ...SourceOption) (*DirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	s := &DirSource{cfg: newSourceConfig(opts)}
	for _, e := range entries {
		if e.Type().IsRegular() && !strings.HasPrefix(e.Name(), ".") {
			s.paths = append(s.paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(s.paths)
	return s, nil
}

// Len is the number of files not yet yielded.
func (s *DirSource) Len() int { return len(s.paths) }

func (s *DirSource) Next(context.Context) (extract.Input, error) {
	if len(s.paths) == 0 {
		return extract.Input{}, io.EOF
	}
	p := s.paths[0]
	s.paths = s.paths[1:]
	return s.cfg.input(p)
}

// WatchSource yields the files already in a directory and then every file
// created in it, until the context is cancelled.
type WatchSource struct {
	cfg     sourceConfig
	dir     string
	watcher *fsnotify.Watcher
	pending map[string]time.Time
	order   []string
	// read remembers the state of files already yielded so late events for
	// an unchanged file do not yield it twice.
	read map[string]fileState
}

type fileState struct {
	size int64
	mod  time.Time
}

func stateOf(path string) (fileState, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, false
	}
	return fileState{size: info.Size(), mod: info.ModTime()}, true
}

// Watch starts watching dir.
func Watch(dir string, opts ...SourceOption) (*WatchSource, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	s := &WatchSource{cfg: newSourceConfig(opts), dir: dir, watcher: w, pending: map[string]time.Time{}, read: map[string]fileState{}}
	existing, err := NewDirSource(dir)
	if err != nil {
		w.Close()
		return nil, err
	}
	for _, p := range existing.paths {
		s.enqueue(p, time.Time{})
	}
	s.cfg.logger.Info().Str("dir", dir).Int("existing", len(existing.paths)).Msg("watching inbox")
	return s, nil
}

// Close stops the watcher.
func (s *WatchSource) Close() error { return s.watcher.Close() }

func (s *WatchSource) enqueue(path string, at time.Time) {
	if _, ok := s.pending[path]; !ok {
		s.order = append(s.order, path)
	}
	s.pending[path] = at
}

// ready pops the oldest pending file that has settled, or returns how long to
// wait for the next one.
func (s *WatchSource) ready(now time.Time) (string, time.Duration) {
	wait := time.Duration(-1)
	for i, p := range s.order {
		d := s.pending[p].Add(s.cfg.settle).Sub(now)
		if d <= 0 {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			delete(s.pending, p)
			return p, 0
		}
		if wait < 0 || d < wait {
			wait = d
		}
	}
	return "", wait
}

// Next blocks until a file is ready. It returns io.EOF once ctx is done or
// the watcher is closed.
func (s *WatchSource) Next(ctx context.Context) (extract.Input, error) {
	for {
		p, wait := s.ready(time.Now())
		if p != "" {
			if st, ok := stateOf(p); ok {
				s.read[p] = st
			}
			return s.cfg.input(p)
		}
		var (
			t     *time.Timer
			timer <-chan time.Time
		)
		if wait >= 0 {
			t = time.NewTimer(wait)
			timer = t.C
		}
		stop := func() {
			if t != nil {
				t.Stop()
			}
		}
		select {
		case <-ctx.Done():
			stop()
			return extract.Input{}, io.EOF
		case <-timer:
		case ev, ok := <-s.watcher.Events:
			stop()
			if !ok {
				return extract.Input{}, io.EOF
			}
			s.handle(ev)
		case err, ok := <-s.watcher.Errors:
			stop()
			if !ok {
				return extract.Input{}, io.EOF
			}
			s.cfg.logger.Error().Err(err).Msg("inbox watcher error")
		}
	}
}

func (s *WatchSource) handle(ev fsnotify.Event) {
	if strings.HasPrefix(filepath.Base(ev.Name), ".") {
		return
	}
	switch {
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		if st, ok := stateOf(ev.Name); ok {
			if prev, seen := s.read[ev.Name]; seen && prev.size == st.size && prev.mod.Equal(st.mod) {
				return
			}
		}
		s.cfg.logger.Debug().Str("event", ev.Op.String()).Str("file", ev.Name).Msg("inbox changed")
		s.enqueue(ev.Name, time.Now())
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		delete(s.read, ev.Name)
		if _, ok := s.pending[ev.Name]; ok {
			delete(s.pending, ev.Name)
			for i, p := range s.order {
				if p == ev.Name {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		}
	}
}
