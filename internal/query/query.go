// Package query tracks the loading/error/data lifecycle of remote reads and
// writes so that views only ever see a settled state or "loading".
package query

import (
	"context"
	"errors"
	"sync"
)

type Status int

const (
	Idle Status = iota
	Loading
	Success
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// State is what a view renders. Err is already a human readable message.
type State[K comparable, T any] struct {
	Key    K
	Status Status
	Data   T
	Err    string
}

type Fetcher[K comparable, T any] func(ctx context.Context, key K) (T, error)

// Describer converts a fetch error into the message stored in State.Err.
type Describer func(error) string

type Query[K comparable, T any] struct {
	fetch    Fetcher[K, T]
	describe Describer

	// notifyMu orders state changes with their delivery to subscribers.
	notifyMu sync.Mutex

	mu      sync.Mutex
	state   State[K, T]
	seq     uint64
	closed  bool
	changed chan struct{}
	subs    map[int]func(State[K, T])
	nextSub int
}

type Option func(*options)

type options struct {
	describe Describer
}

func WithDescriber(d Describer) Option {
	return func(o *options) { o.describe = d }
}

func defaultDescriber(err error) string { return err.Error() }

func New[K comparable, T any](fetch Fetcher[K, T], opts ...Option) *Query[K, T] {
	o := options{describe: defaultDescriber}
	for _, opt := range opts {
		opt(&o)
	}
	return &Query[K, T]{
		fetch:    fetch,
		describe: o.describe,
		changed:  make(chan struct{}),
		subs:     make(map[int]func(State[K, T])),
	}
}

// SetKey starts a fetch for key unless key is already the current key of a
// started query. The zero key is a valid key.
func (q *Query[K, T]) SetKey(key K) {
	q.update(func() bool {
		if q.state.Status != Idle && q.state.Key == key {
			return false
		}
		q.start(key)
		return true
	})
}

// Refetch starts a new fetch for the current key.
func (q *Query[K, T]) Refetch() {
	q.update(func() bool {
		q.start(q.state.Key)
		return true
	})
}

// start must run with q.mu held.
func (q *Query[K, T]) start(key K) {
	q.seq++
	token := q.seq
	q.state.Key = key
	q.state.Status = Loading
	q.state.Err = ""

	go func() {
		// in-flight fetches are never cancelled; stale results are dropped in resolve
		data, err := q.fetch(context.Background(), key)
		q.resolve(token, data, err)
	}()
}

func (q *Query[K, T]) resolve(token uint64, data T, err error) {
	q.update(func() bool {
		if token != q.seq {
			return false
		}
		if err != nil {
			var zero T
			q.state.Status = Error
			q.state.Data = zero
			q.state.Err = q.describe(err)
			return true
		}
		q.state.Status = Success
		q.state.Data = data
		q.state.Err = ""
		return true
	})
}

// update applies fn under the lock and, if it reports a change, wakes
// waiters and notifies subscribers with the new snapshot.
func (q *Query[K, T]) update(fn func() bool) {
	q.notifyMu.Lock()
	defer q.notifyMu.Unlock()

	q.mu.Lock()
	if q.closed || !fn() {
		q.mu.Unlock()
		return
	}
	snap := q.state
	close(q.changed)
	q.changed = make(chan struct{})
	subs := make([]func(State[K, T]), 0, len(q.subs))
	for _, sub := range q.subs {
		subs = append(subs, sub)
	}
	q.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

func (q *Query[K, T]) Snapshot() State[K, T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Subscribe registers fn for every state change. fn runs synchronously and
// must not call SetKey or Refetch.
func (q *Query[K, T]) Subscribe(fn func(State[K, T])) (unsubscribe func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return func() {}
	}
	id := q.nextSub
	q.nextSub++
	q.subs[id] = fn
	return func() {
		q.mu.Lock()
		delete(q.subs, id)
		q.mu.Unlock()
	}
}

// Wait blocks until the query is not loading, the query is closed or ctx is
// done.
func (q *Query[K, T]) Wait(ctx context.Context) (State[K, T], error) {
	for {
		q.mu.Lock()
		st, closed, ch := q.state, q.closed, q.changed
		q.mu.Unlock()
		if st.Status != Loading || closed {
			return st, nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

// Close stops the query from reacting: pending fetches still run to
// completion but their results are dropped, and subscribers are released.
func (q *Query[K, T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.subs = nil
	close(q.changed)
}

// ErrBusy is returned by Mutation.Submit while a previous submit is running.
var ErrBusy = errors.New("query: submit already in progress")

type MutationState[Out any] struct {
	Status Status
	Data   Out
	Err    string
}

// Mutation tracks a single write: idle → loading (submitting) → success | error.
type Mutation[In, Out any] struct {
	run      func(ctx context.Context, in In) (Out, error)
	describe Describer

	mu    sync.Mutex
	state MutationState[Out]
}

func NewMutation[In, Out any](run func(ctx context.Context, in In) (Out, error), opts ...Option) *Mutation[In, Out] {
	o := options{describe: defaultDescriber}
	for _, opt := range opts {
		opt(&o)
	}
	return &Mutation[In, Out]{run: run, describe: o.describe}
}

// Submit runs the mutation and returns its final state along with the raw
// error, so callers can inspect structured failures.
func (m *Mutation[In, Out]) Submit(ctx context.Context, in In) (MutationState[Out], error) {
	m.mu.Lock()
	if m.state.Status == Loading {
		st := m.state
		m.mu.Unlock()
		return st, ErrBusy
	}
	m.state = MutationState[Out]{Status: Loading}
	m.mu.Unlock()

	out, err := m.run(ctx, in)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.state = MutationState[Out]{Status: Error, Err: m.describe(err)}
		return m.state, err
	}
	m.state = MutationState[Out]{Status: Success, Data: out}
	return m.state, nil
}

func (m *Mutation[In, Out]) State() MutationState[Out] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Reset returns a settled mutation to idle.
func (m *Mutation[In, Out]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Status != Loading {
		m.state = MutationState[Out]{}
	}
}
