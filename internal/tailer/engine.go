package tailer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"surveyor/internal/api"
	"surveyor/internal/events"
	"surveyor/internal/log"
	"surveyor/internal/survey"
	"surveyor/internal/survey/parser"
)

// Default chat log naming.
const (
	DefaultPrefix = "Chat-"
	DefaultSuffix = ".log"
)

// Store is the state the engine reads from and applies lines to.
type Store interface {
	// Cursor returns the configured directory and the byte offset already
	// consumed from its newest log.
	Cursor() (dir string, offset int64)

	// Ingest applies lines read from [from, to) in dir. It reports false and
	// changes nothing when dir or from no longer match the cursor.
	Ingest(dir string, from, to int64, lines []string) (Report, bool)
}

// Report is what one applied pass changed.
type Report struct {
	ZoneChanged  bool
	StateChanged bool
	Zone         string
	Seq          uint64
	Payload      api.RenderPayload
	Committed    []survey.Survey
	Collected    []events.Collection
}

// Recorder receives every decoded delta before it is applied.
type Recorder interface {
	Record(file string, from, to int64, text string) error
}

// Options tune how logs are found and read.
type Options struct {
	Prefix  string
	Suffix  string
	Decoder *Decoder
	Capture Recorder
}

func (o Options) withDefaults() Options {
	if o.Prefix == "" {
		o.Prefix = DefaultPrefix
	}
	if o.Suffix == "" {
		o.Suffix = DefaultSuffix
	}
	return o
}

// Engine watches one directory and feeds new log bytes into a Store.
type Engine struct {
	dir     string
	store   Store
	bus     *events.Bus
	opts    Options
	watcher *fsnotify.Watcher

	passMu    sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

// Start watches dir, runs one pass over whatever is already in the newest
// log and then runs a pass on every write or create in the directory.
func Start(dir string, store Store, bus *events.Bus, opts Options) (*Engine, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	e := &Engine{
		dir:     dir,
		store:   store,
		bus:     bus,
		opts:    opts.withDefaults(),
		watcher: watcher,
		done:    make(chan struct{}),
	}

	e.Pass()
	go e.loop()

	log.Info("watching log directory", "dir", dir, "prefix", e.opts.Prefix, "encoding", e.opts.Decoder.Name())
	return e, nil
}

// Dir is the watched directory.
func (e *Engine) Dir() string {
	return e.dir
}

// Done is closed once the watch loop has ended.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Close stops the watch. The loop ends when the event channel closes;
// pending events are not drained.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		err = e.watcher.Close()
	})
	return err
}

func (e *Engine) loop() {
	defer close(e.done)

	for {
		select {
		case event, ok := <-e.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !e.matches(filepath.Base(event.Name)) {
				continue
			}
			e.Pass()

		case err, ok := <-e.watcher.Errors:
			if !ok {
				return
			}
			log.Debug("watcher error", "dir", e.dir, "error", err)
		}
	}
}

func (e *Engine) matches(name string) bool {
	return strings.HasPrefix(name, e.opts.Prefix) && strings.HasSuffix(name, e.opts.Suffix)
}

// Pass reads everything past the stored offset in the newest log and
// applies it. Passes never overlap. Failures are logged and left for the
// next trigger.
func (e *Engine) Pass() {
	e.passMu.Lock()
	defer e.passMu.Unlock()

	dir, offset := e.store.Cursor()
	if dir == "" || dir != e.dir {
		return
	}

	path, err := FindLatestLog(dir, e.opts.Prefix, e.opts.Suffix)
	if err != nil {
		log.Debug("no log file", "dir", dir, "error", err)
		return
	}

	data, end, err := ReadFrom(path, offset)
	if err != nil {
		log.Debug("read log delta failed", "file", path, "offset", offset, "error", err)
		return
	}
	if len(data) == 0 {
		return
	}

	text, err := e.opts.Decoder.Decode(data)
	if err != nil {
		log.Debug("decode log delta failed", "file", path, "encoding", e.opts.Decoder.Name(), "error", err)
		return
	}

	if e.opts.Capture != nil {
		if err := e.opts.Capture.Record(path, offset, end, text); err != nil {
			log.Warn("capture failed", "file", path, "error", err)
		}
	}

	report, applied := e.store.Ingest(dir, offset, end, parser.SplitLines(text))
	if !applied {
		log.Debug("discarded stale pass", "dir", dir, "from", offset)
		return
	}
	e.publish(report)
}

func (e *Engine) publish(r Report) {
	if e.bus == nil {
		return
	}

	if r.ZoneChanged {
		if _, known := survey.LookupZone(r.Zone); !known {
			if hint, ok := survey.SuggestZone(r.Zone); ok {
				log.Warn("entered unknown zone", "zone", r.Zone, "closest", hint)
			}
		}
		e.bus.Fire(events.Event{Type: events.ZoneChanged, Source: "tailer"})
	}

	if r.StateChanged {
		e.bus.Fire(events.Event{
			Type:   events.StateUpdated,
			Data:   events.StateUpdate{Seq: r.Seq, Payload: r.Payload},
			Source: "tailer",
		})
	}

	if r.Committed != nil {
		e.bus.Fire(events.Event{
			Type:   events.BatchCommitted,
			Data:   events.BatchCommit{Zone: r.Zone, Surveys: r.Committed},
			Source: "tailer",
		})
	}

	for _, c := range r.Collected {
		e.bus.Fire(events.Event{Type: events.SurveyCollected, Data: c, Source: "tailer"})
	}
}

// ErrNoLog is returned when a directory holds no matching log file.
var ErrNoLog = errors.New("no matching log file")

// FindLatestLog returns the matching file in dir with the newest
// modification time.
func FindLatestLog(dir, prefix, suffix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}

	var (
		latest  string
		latestT int64
	)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		mod := info.ModTime().UnixNano()
		if latest == "" || mod > latestT {
			latest = filepath.Join(dir, name)
			latestT = mod
		}
	}

	if latest == "" {
		return "", ErrNoLog
	}
	return latest, nil
}

// ReadFrom returns the bytes of path past offset and the size they end at.
// A file no larger than offset yields no data.
func ReadFrom(path string, offset int64) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, offset, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, offset, err
	}
	size := info.Size()
	if size <= offset {
		return nil, offset, nil
	}

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, err
	}
	buf := make([]byte, size-offset)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, offset, err
	}
	return buf, size, nil
}
