package game

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"
	"time"
)

// TickResult tells a scheduler what to do with a task after a tick.
type TickResult int

const (
	Reschedule TickResult = iota
	Stop
)

// Task is a unit of per-frame work. Returning Reschedule asks to run again on
// the next frame.
type Task interface {
	Tick() TickResult
}

// Scheduler runs tasks on the next frame.
type Scheduler interface {
	Schedule(task Task)
}

// taskSet holds tasks due on the next frame.
type taskSet struct {
	mu      sync.Mutex
	pending []Task
}

func (ts *taskSet) Schedule(task Task) {
	ts.mu.Lock()
	ts.pending = append(ts.pending, task)
	ts.mu.Unlock()
}

// frame runs every due task once and re-queues those that asked for it.
func (ts *taskSet) frame() int {
	ts.mu.Lock()
	due := ts.pending
	ts.pending = nil
	ts.mu.Unlock()

	for _, t := range due {
		if t.Tick() == Reschedule {
			ts.Schedule(t)
		}
	}
	return len(due)
}

func (ts *taskSet) Len() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.pending)
}

// FrameScheduler fires frames from a ticker. All ticks run on the goroutine
// that called Run, one after another.
type FrameScheduler struct {
	taskSet
	interval time.Duration
}

// minFrameInterval bounds absurd frame rates; time.NewTicker panics on 0.
const minFrameInterval = time.Millisecond

func NewFrameScheduler(frameRate int) *FrameScheduler {
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	interval := time.Second / time.Duration(frameRate)
	if interval < minFrameInterval {
		interval = minFrameInterval
	}
	return &FrameScheduler{interval: interval}
}

func (s *FrameScheduler) Interval() time.Duration {
	return s.interval
}

// Run blocks until every task has stopped (nil) or ctx is done (ctx.Err()).
func (s *FrameScheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.frame()
			if s.Len() == 0 {
				return nil
			}
		}
	}
}

// ManualScheduler fires a frame only when Step is called.
type ManualScheduler struct {
	taskSet
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

// Step runs one frame and returns the number of tasks that ticked.
func (s *ManualScheduler) Step() int {
	return s.frame()
}

// Frame is the outcome of one tick.
type Frame struct {
	Seq      uint64     `json:"seq"`
	Commands int        `json:"commands"`
	Step     StepResult `json:"step"`
	Snapshot Snapshot   `json:"snapshot"`
}

// FrameTask is the per-frame Pong update: drain queued commands, move the
// ball, draw. It is the only code that touches its Simulation once scheduled.
type FrameTask struct {
	sim     *Simulation
	queue   *CommandQueue
	surface Surface
	onFrame func(Frame)
	before  func(*Simulation)

	seq     uint64
	stopped atomic.Bool
	err     atomic.Value
}

// NewFrameTask wires a simulation to its input queue and draw surface.
// onFrame, if set, runs at the end of every tick on the scheduler goroutine.
func NewFrameTask(sim *Simulation, queue *CommandQueue, surface Surface, onFrame func(Frame)) (*FrameTask, error) {
	if isNilSurface(surface) {
		return nil, ErrNoSurface
	}
	return &FrameTask{sim: sim, queue: queue, surface: surface, onFrame: onFrame}, nil
}

// isNilSurface also catches a nil pointer wrapped in the interface.
func isNilSurface(s Surface) bool {
	if s == nil {
		return true
	}
	v := reflect.ValueOf(s)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// BeforeDrain sets fn to run at the start of every tick, ahead of queued
// commands. Call it before the task is scheduled.
func (t *FrameTask) BeforeDrain(fn func(*Simulation)) {
	t.before = fn
}

func (t *FrameTask) Tick() TickResult {
	if t.stopped.Load() {
		return Stop
	}

	if t.before != nil {
		t.before(t.sim)
	}
	n := t.queue.Drain(func(cmd Command) { cmd.Apply(t.sim) })
	step := t.sim.MoveBall()
	snap := t.sim.Snapshot()
	snap.Draw(t.surface)

	if f, ok := t.surface.(Flusher); ok {
		if err := f.Flush(); err != nil {
			t.err.Store(err)
			t.stopped.Store(true)
			return Stop
		}
	}

	t.seq++
	if t.onFrame != nil {
		t.onFrame(Frame{Seq: t.seq, Commands: n, Step: step, Snapshot: snap})
	}
	return Reschedule
}

// Stop makes the next tick return Stop. Safe from any goroutine.
func (t *FrameTask) Stop() {
	t.stopped.Store(true)
}

// Err returns the surface error that stopped the task, if any.
func (t *FrameTask) Err() error {
	if err, ok := t.err.Load().(error); ok {
		return err
	}
	return nil
}
