package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidTriggerTime = errors.New("scheduler: invalid trigger time")
	ErrStopped            = errors.New("scheduler: engine stopped")
)

type DueKind string

const (
	DueEarly    DueKind = "early"
	DueExpected DueKind = "expected"
	DueLate     DueKind = "late"
)

// DueEvent marks an edge or the centre of a tracker's forecast window.
type DueEvent struct {
	TrackerID int64
	Name      string
	Kind      DueKind
	TriggerAt time.Time
}

type entry struct {
	event DueEvent
	seq   uint64
	index int
}

// dueQueue orders by trigger time, then by insertion.
type dueQueue []*entry

func (q dueQueue) Len() int { return len(q) }

func (q dueQueue) Less(i, j int) bool {
	if q[i].event.TriggerAt.Equal(q[j].event.TriggerAt) {
		return q[i].seq < q[j].seq
	}
	return q[i].event.TriggerAt.Before(q[j].event.TriggerAt)
}

func (q dueQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *dueQueue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *dueQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

type Option func(*Engine)

// WithClock replaces time.Now for deciding which events are due.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

type Stats struct {
	Pending   int
	Delivered uint64
	Dropped   uint64
}

// Engine delivers due events on C. Delivery never blocks: events that find
// the channel full are counted as dropped.
type Engine struct {
	mu        sync.Mutex
	queue     dueQueue
	byTracker map[int64][]*entry
	seq       uint64
	now       func() time.Time

	out     chan DueEvent
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool

	delivered uint64
	dropped   uint64
}

func NewEngine(bufferSize int, opts ...Option) *Engine {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	e := &Engine{
		byTracker: make(map[int64][]*entry),
		now:       time.Now,
		out:       make(chan DueEvent, bufferSize),
		wakeup:    make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) C() <-chan DueEvent {
	return e.out
}

func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started || e.stopped {
		return
	}
	e.started = true
	go e.loop()
}

// Stop ends the loop and closes C. It is safe to call more than once.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.started || e.stopped {
		e.stopped = true
		e.mu.Unlock()
		return
	}
	e.stopped = true
	close(e.stopCh)
	e.mu.Unlock()
	<-e.doneCh
}

func (e *Engine) Schedule(ev DueEvent) error {
	if ev.TriggerAt.IsZero() {
		return ErrInvalidTriggerTime
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	e.pushLocked(ev)
	e.signalWakeup()
	return nil
}

// Replace drops every pending event for trackerID and queues events in its
// place. Events at or before now are skipped.
func (e *Engine) Replace(trackerID int64, events []DueEvent, now time.Time) error {
	for _, ev := range events {
		if ev.TriggerAt.IsZero() {
			return ErrInvalidTriggerTime
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}

	e.removeLocked(trackerID)
	for _, ev := range events {
		if !ev.TriggerAt.After(now) {
			continue
		}
		ev.TrackerID = trackerID
		e.pushLocked(ev)
	}
	e.signalWakeup()
	return nil
}

func (e *Engine) Cancel(trackerID int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeLocked(trackerID)
	e.signalWakeup()
}

func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Engine) Dropped() uint64 {
	return atomic.LoadUint64(&e.dropped)
}

func (e *Engine) Stats() Stats {
	return Stats{
		Pending:   e.Pending(),
		Delivered: atomic.LoadUint64(&e.delivered),
		Dropped:   atomic.LoadUint64(&e.dropped),
	}
}

func (e *Engine) pushLocked(ev DueEvent) {
	e.seq++
	item := &entry{event: ev, seq: e.seq}
	heap.Push(&e.queue, item)
	e.byTracker[ev.TrackerID] = append(e.byTracker[ev.TrackerID], item)
}

func (e *Engine) removeLocked(trackerID int64) {
	for _, item := range e.byTracker[trackerID] {
		if item.index >= 0 {
			heap.Remove(&e.queue, item.index)
		}
	}
	delete(e.byTracker, trackerID)
}

func (e *Engine) loop() {
	defer close(e.doneCh)
	defer close(e.out)

	var timer *time.Timer
	for {
		wait, ok := e.untilNext()
		if !ok {
			select {
			case <-e.wakeup:
				continue
			case <-e.stopCh:
				return
			}
		}

		timer = resetTimer(timer, wait)
		select {
		case <-timer.C:
			e.deliver(e.popDue())
		case <-e.wakeup:
		case <-e.stopCh:
			stopTimer(timer)
			return
		}
	}
}

func (e *Engine) deliver(due []DueEvent) {
	for _, ev := range due {
		select {
		case e.out <- ev:
			atomic.AddUint64(&e.delivered, 1)
		default:
			atomic.AddUint64(&e.dropped, 1)
		}
	}
}

func (e *Engine) signalWakeup() {
	select {
	case e.wakeup <- struct{}{}:
	default:
	}
}

// untilNext is the wait before the earliest pending event.
func (e *Engine) untilNext() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return 0, false
	}
	wait := e.queue[0].event.TriggerAt.Sub(e.now())
	if wait < 0 {
		wait = 0
	}
	return wait, true
}

func (e *Engine) popDue() []DueEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var out []DueEvent
	for len(e.queue) > 0 && !e.queue[0].event.TriggerAt.After(now) {
		item := heap.Pop(&e.queue).(*entry)
		e.forgetLocked(item)
		out = append(out, item.event)
	}
	return out
}

func (e *Engine) forgetLocked(item *entry) {
	list := e.byTracker[item.event.TrackerID]
	for i, it := range list {
		if it == item {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(e.byTracker, item.event.TrackerID)
		return
	}
	e.byTracker[item.event.TrackerID] = list
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
