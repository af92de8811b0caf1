// Package dispatch runs upstream calls as request/success/failure action
// triples and applies successful results to the entity cache.
//
// Every call takes the next value of a process-wide sequence. The cache
// uses it to drop results that arrive after a newer request for the same
// record or list has already been applied. In-flight requests are never
// cancelled by newer ones.
package dispatch

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/copilot/internal/app/entitycache"
	"go.uber.org/zap"
)

// Phase is the stage of an action.
type Phase int

const (
	Request Phase = iota
	Success
	Failure
)

func (p Phase) String() string {
	switch p {
	case Request:
		return "request"
	case Success:
		return "success"
	case Failure:
		return "failure"
	}
	return "unknown"
}

// Action describes one stage of an upstream call.
type Action struct {
	Seq     uint64
	Phase   Phase
	Op      string
	Kind    entitycache.Kind
	UID     string
	Err     error
	Stale   bool
	Elapsed time.Duration
}

// Listener observes actions. Listeners run synchronously on the calling
// goroutine and must not block.
type Listener func(Action)

// Dispatcher sequences calls and fans actions out to listeners.
type Dispatcher struct {
	cache *entitycache.Cache
	log   *zap.Logger
	seq   atomic.Uint64

	mu        sync.RWMutex
	listeners []Listener

	loadersMu sync.Mutex
	loaders   map[string]teamLoad
}

// teamLoad is the last load of a team. complete is false while a load is in
// flight or after one of its queries failed.
type teamLoad struct {
	userID   string
	complete bool
}

// New creates a Dispatcher writing into cache. A logging listener is
// installed by default.
func New(cache *entitycache.Cache, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{cache: cache, log: logger, loaders: map[string]teamLoad{}}
	d.Subscribe(d.logAction)
	return d
}

// Cache returns the cache the dispatcher writes to.
func (d *Dispatcher) Cache() *entitycache.Cache { return d.cache }

// Subscribe adds a listener.
func (d *Dispatcher) Subscribe(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

func (d *Dispatcher) emit(a Action) {
	d.mu.RLock()
	ls := d.listeners
	d.mu.RUnlock()
	for _, l := range ls {
		l(a)
	}
}

func (d *Dispatcher) logAction(a Action) {
	fields := []zap.Field{
		zap.Uint64("seq", a.Seq),
		zap.String("op", a.Op),
		zap.String("kind", string(a.Kind)),
	}
	if a.UID != "" {
		fields = append(fields, zap.String("uid", a.UID))
	}
	switch a.Phase {
	case Request:
		d.log.Debug("dispatch request", fields...)
	case Success:
		d.log.Debug("dispatch success", append(fields,
			zap.Bool("stale", a.Stale),
			zap.Duration("elapsed", a.Elapsed))...)
	case Failure:
		d.log.Warn("dispatch failure", append(fields,
			zap.Duration("elapsed", a.Elapsed),
			zap.Error(a.Err))...)
	}
}

// call wraps fn in a request/success/failure triple. fn receives the
// request's sequence number and reports whether its result was applied.
func (d *Dispatcher) call(op string, kind entitycache.Kind, uid string, fn func(seq uint64) (bool, error)) error {
	seq := d.seq.Add(1)
	start := time.Now()
	d.emit(Action{Seq: seq, Phase: Request, Op: op, Kind: kind, UID: uid})

	applied, err := fn(seq)
	a := Action{Seq: seq, Op: op, Kind: kind, UID: uid, Elapsed: time.Since(start)}
	if err != nil {
		a.Phase, a.Err = Failure, err
		d.emit(a)
		return err
	}
	a.Phase, a.Stale = Success, !applied
	d.emit(a)
	return nil
}

// noteLoad records the outcome of a team load. The user is remembered so
// background refreshes can reuse their credentials; an empty userID keeps
// the previous one.
func (d *Dispatcher) noteLoad(teamID, userID string, complete bool) {
	d.loadersMu.Lock()
	defer d.loadersMu.Unlock()
	l := d.loaders[teamID]
	if userID != "" {
		l.userID = userID
	}
	if l.userID == "" {
		return
	}
	l.complete = complete
	d.loaders[teamID] = l
}

// TeamLoaded reports whether the team's last load fetched every collection.
func (d *Dispatcher) TeamLoaded(teamID string) bool {
	d.loadersMu.Lock()
	defer d.loadersMu.Unlock()
	return d.loaders[teamID].complete
}

// TeamLoaders returns teamID to userID for every team whose load got as far
// as the team record, complete or not.
func (d *Dispatcher) TeamLoaders() map[string]string {
	d.loadersMu.Lock()
	defer d.loadersMu.Unlock()
	out := make(map[string]string, len(d.loaders))
	for k, l := range d.loaders {
		out[k] = l.userID
	}
	return out
}
