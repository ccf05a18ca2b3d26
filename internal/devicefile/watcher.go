package devicefile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/signalsfoundry/commnet-calculator/internal/logging"
	"github.com/signalsfoundry/commnet-calculator/model"
	"github.com/spf13/viper"
)

// Snapshot is the most recent successfully loaded set of batches.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Batches  []Batch
}

// ChangeListener is called after a successful reload.
type ChangeListener func(Snapshot)

// Watcher keeps the batches of a fixed list of files current. A reload that
// fails is logged and the previous snapshot stays in place.
type Watcher struct {
	paths []string
	log   logging.Logger

	// reloadMu serialises load, store and notify so listeners see
	// snapshots in version order.
	reloadMu sync.Mutex

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewWatcher loads paths once and returns a Watcher. Call Watch to start
// following file changes.
func NewWatcher(paths []string, log logging.Logger) (*Watcher, error) {
	if log == nil {
		log = logging.Noop()
	}
	w := &Watcher{paths: append([]string(nil), paths...), log: log}
	if err := w.Reload(context.Background()); err != nil {
		return nil, err
	}
	return w, nil
}

// Snapshot returns a copy of the current snapshot.
func (w *Watcher) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return cloneSnapshot(w.snapshot)
}

// OnChange registers fn to run after every successful reload. Calls are
// made one at a time in version order; fn must not call Reload.
func (w *Watcher) OnChange(fn ChangeListener) {
	if fn == nil {
		return
	}
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

// Reload re-reads every file. On failure the previous snapshot is kept and
// listeners are not called.
func (w *Watcher) Reload(ctx context.Context) error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	batches, err := LoadFiles(w.paths)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.snapshot = Snapshot{
		Version:  w.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Batches:  batches,
	}
	snap := cloneSnapshot(w.snapshot)
	listeners := append([]ChangeListener(nil), w.listeners...)
	w.mu.Unlock()

	w.log.Info(ctx, "device files loaded",
		logging.Int("files", len(batches)),
		logging.Int("devices", countDevices(batches)),
		logging.Any("version", snap.Version),
	)
	for _, fn := range listeners {
		fn(snap)
	}
	return nil
}

// Watch starts following every file for writes. It returns once the
// watches are registered. Change events arriving after ctx is done are
// ignored.
func (w *Watcher) Watch(ctx context.Context) error {
	var errs []error
	for _, path := range w.paths {
		if strings.TrimSpace(path) == "" {
			continue
		}
		v := viper.New()
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			errs = append(errs, fmt.Errorf("watch %s: %w", path, err))
			continue
		}
		v.OnConfigChange(func(evt fsnotify.Event) {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if err := w.Reload(ctx); err != nil {
				w.log.Error(ctx, "device file reload failed; keeping previous devices",
					logging.String("file", evt.Name),
					logging.Err(err),
				)
			}
		})
		v.WatchConfig()
	}
	return errors.Join(errs...)
}

func countDevices(batches []Batch) int {
	n := 0
	for _, b := range batches {
		n += len(b.Devices)
	}
	return n
}

func cloneSnapshot(src Snapshot) Snapshot {
	dst := Snapshot{Version: src.Version, LoadedAt: src.LoadedAt}
	if src.Batches != nil {
		dst.Batches = make([]Batch, len(src.Batches))
		for i, b := range src.Batches {
			dst.Batches[i] = Batch{Source: b.Source, Devices: make([]model.DeviceDefinition, len(b.Devices))}
			for j, d := range b.Devices {
				dst.Batches[i].Devices[j] = d.Clone()
			}
		}
	}
	return dst
}
