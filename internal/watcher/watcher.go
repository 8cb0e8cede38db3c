// Package watcher implements the file watcher: a single recursive
// filesystem watch over the workspace root, debounced and broadcast to
// drop-tolerant consumers (the document store invalidating its cache, the
// manager forwarding workspace/didChangeWatchedFiles to backends).
//
// One recursive github.com/rjeczalik/notify watch is shared across every
// consumer rather than one watch per backend, debounced per key with
// time.AfterFunc. Nothing past the manager needs to know which backend
// cares about which glob pattern, so every consumer just gets a broadcast
// of every change and filters for itself.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rjeczalik/notify"
)

// ChangeKind classifies a filesystem event the same way LSP's
// FileChangeType does, so the Manager can translate it directly.
type ChangeKind int

const (
	Created ChangeKind = iota + 1
	Changed
	Deleted
)

// Event is one debounced filesystem change, broadcast to every subscriber.
type Event struct {
	Path string
	Kind ChangeKind
}

// Watcher owns one recursive filesystem watch rooted at a workspace
// directory and fans its debounced events out to subscribers.
type Watcher struct {
	root string

	debounce time.Duration
	events   chan notify.EventInfo

	subMu sync.RWMutex
	subs  map[chan Event]struct{}

	timerMu sync.Mutex
	timers  map[string]*time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started sync.Once
}

// New returns a Watcher rooted at root. It does not start watching until
// Start is called.
func New(root string) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		root:     root,
		debounce: 300 * time.Millisecond,
		events:   make(chan notify.EventInfo, 4096),
		subs:     make(map[chan Event]struct{}),
		timers:   make(map[string]*time.Timer),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start sets up the recursive watch and begins dispatching events. It is
// safe to call more than once; only the first call has effect.
func (w *Watcher) Start() error {
	var startErr error
	w.started.Do(func() {
		if _, err := Ulimit(); err != nil {
			slog.Warn("watcher: could not raise open file limit", "err", err)
		}

		watchPath := filepath.Join(w.root, "...")
		events := notify.Create | notify.Write | notify.Remove | notify.Rename
		if err := notify.Watch(watchPath, w.events, events); err != nil {
			startErr = err
			return
		}

		w.wg.Add(1)
		go w.loop()
		slog.Info("watcher: started recursive watch", "root", w.root)
	})
	return startErr
}

// Subscribe returns a channel that receives every debounced event from
// this point forward. Subscribers must drain their channel promptly;
// broadcast drops events for a subscriber whose channel is full rather than
// blocking the dispatch loop for everyone else.
func (w *Watcher) Subscribe() chan Event {
	ch := make(chan Event, 256)
	w.subMu.Lock()
	w.subs[ch] = struct{}{}
	w.subMu.Unlock()
	return ch
}

// Unsubscribe stops ch from receiving further events and closes it.
func (w *Watcher) Unsubscribe(ch chan Event) {
	w.subMu.Lock()
	if _, ok := w.subs[ch]; ok {
		delete(w.subs, ch)
		close(ch)
	}
	w.subMu.Unlock()
}

func (w *Watcher) broadcast(ev Event) {
	w.subMu.RLock()
	defer w.subMu.RUnlock()
	for ch := range w.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("watcher: subscriber channel full, dropping event", "path", ev.Path)
		}
	}
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case info, ok := <-w.events:
			if !ok {
				return
			}
			w.handle(info)
		}
	}
}

func (w *Watcher) handle(info notify.EventInfo) {
	path := info.Path()

	switch info.Event() {
	case notify.Create:
		w.debounced(path, Created)
	case notify.Write:
		w.debounced(path, Changed)
	case notify.Remove:
		// Deletes are never debounced: a delete immediately followed by a
		// recreate under the same path must not be coalesced away.
		w.broadcast(Event{Path: path, Kind: Deleted})
	case notify.Rename:
		w.broadcast(Event{Path: path, Kind: Deleted})
		if exists(path) {
			w.debounced(path, Created)
		}
	}
}

func (w *Watcher) debounced(path string, kind ChangeKind) {
	key := fmt.Sprintf("%s:%d", path, kind)

	w.timerMu.Lock()
	if t, ok := w.timers[key]; ok {
		t.Stop()
	}
	w.timers[key] = time.AfterFunc(w.debounce, func() {
		w.timerMu.Lock()
		delete(w.timers, key)
		w.timerMu.Unlock()
		w.broadcast(Event{Path: path, Kind: kind})
	})
	w.timerMu.Unlock()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Stop tears down the recursive watch, cancels the dispatch loop, and
// closes every remaining subscriber channel.
func (w *Watcher) Stop() {
	w.cancel()
	notify.Stop(w.events)
	w.wg.Wait()

	w.subMu.Lock()
	for ch := range w.subs {
		close(ch)
		delete(w.subs, ch)
	}
	w.subMu.Unlock()
}
