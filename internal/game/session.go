package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// GameStatus is the lifecycle state of a session.
type GameStatus string

const (
	StatusWaiting    GameStatus = "WAITING"
	StatusInProgress GameStatus = "IN_PROGRESS"
	StatusCompleted  GameStatus = "COMPLETED"
	StatusCancelled  GameStatus = "CANCELLED"
)

// HostSeat controls both paddles from one keyboard.
const HostSeat = -1

// FrameMessage is what remote renderers receive every tick.
type FrameMessage struct {
	Seq    uint64   `json:"seq"`
	Ops    []DrawOp `json:"ops"`
	Scores [2]int   `json:"scores"`
}

// SessionEvent is a notable change in a session, fanned out to its watchers.
type SessionEvent struct {
	Type   string    `json:"type"` // "session_started", "score", "session_ended"
	Token  string    `json:"token"`
	Side   string    `json:"side,omitempty"`
	Scores [2]int    `json:"scores"`
	Status string    `json:"status,omitempty"`
	At     time.Time `json:"at"`
}

// FrameSink receives rendered frames and session events, typically a
// websocket hub.
type FrameSink interface {
	PublishFrame(token string, msg FrameMessage)
	PublishEvent(ev SessionEvent)
}

// Session runs one Pong game on its own frame loop. The loop goroutine is the
// only owner of the simulation; everything else goes through the command
// queue or reads the last published snapshot.
type Session struct {
	ID           string      `json:"id"`
	Token        string      `json:"token"`
	Court        Constraints `json:"court"`
	Status       GameStatus  `json:"status"`
	CreatedAt    time.Time   `json:"created_at"`
	StartedAt    *time.Time  `json:"started_at,omitempty"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	LastActivity time.Time   `json:"last_activity"`

	sim       *Simulation
	queue     *CommandQueue
	inputs    map[int]*InputAdapter
	recorder  *Recorder
	task      *FrameTask
	scheduler *FrameScheduler

	snapshot    Snapshot
	connections [2]int

	sink    FrameSink
	publish func(SessionEvent)
	log     *zap.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.RWMutex
}

// SessionState is the JSON view returned by the API.
type SessionState struct {
	ID           string     `json:"id"`
	Token        string     `json:"token"`
	Status       GameStatus `json:"status"`
	Snapshot     Snapshot   `json:"snapshot"`
	Connections  [2]int     `json:"connections"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	LastActivity time.Time  `json:"last_activity"`
}

func newSession(ctx context.Context, id, token string, sim *Simulation, frameRate, queueSize int, sink FrameSink, publish func(SessionEvent), log *zap.Logger) (*Session, error) {
	if log == nil {
		log = zap.NewNop()
	}
	queue := NewCommandQueue(queueSize)
	now := time.Now()

	s := &Session{
		ID:           id,
		Token:        token,
		Court:        sim.Constraints,
		Status:       StatusWaiting,
		CreatedAt:    now,
		LastActivity: now,
		sim:          sim,
		queue:        queue,
		inputs: map[int]*InputAdapter{
			HostSeat: NewInputAdapter(DefaultKeyMap(), queue),
			0:        NewInputAdapter(SeatKeyMap(0), queue),
			1:        NewInputAdapter(SeatKeyMap(1), queue),
		},
		recorder:  NewRecorder(),
		scheduler: NewFrameScheduler(frameRate),
		snapshot:  sim.Snapshot(),
		sink:      sink,
		publish:   publish,
		log:       log.With(zap.String("token", token)),
		baseCtx:   ctx,
		done:      make(chan struct{}),
	}

	task, err := NewFrameTask(sim, queue, s.recorder, s.onFrame)
	if err != nil {
		return nil, err
	}
	task.BeforeDrain(s.syncConnections)
	s.task = task
	return s, nil
}

// start launches the frame loop. It is a no-op unless the session is waiting.
func (s *Session) start() {
	s.mu.Lock()
	if s.Status != StatusWaiting {
		s.mu.Unlock()
		return
	}
	now := time.Now()
	s.Status = StatusInProgress
	s.StartedAt = &now
	s.LastActivity = now
	loopCtx, cancel := context.WithCancel(s.baseCtx)
	s.cancel = cancel
	s.mu.Unlock()

	s.scheduler.Schedule(s.task)
	go func() {
		defer close(s.done)
		err := s.scheduler.Run(loopCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Warn("frame loop ended", zap.Error(err))
		}
		if terr := s.task.Err(); terr != nil {
			s.log.Error("surface failed", zap.Error(terr))
		}
	}()

	s.log.Info("session started", zap.Int("frame_rate", int(time.Second/s.scheduler.Interval())))
	s.emit(SessionEvent{Type: "session_started", Status: string(StatusInProgress)})
}

// stop ends the loop and marks the session with the given final status. It
// reports false if the session was already finished.
func (s *Session) stop(status GameStatus) bool {
	s.mu.Lock()
	if s.Status == StatusCompleted || s.Status == StatusCancelled {
		s.mu.Unlock()
		return false
	}
	wasRunning := s.Status == StatusInProgress
	now := time.Now()
	s.Status = status
	s.CompletedAt = &now
	cancel := s.cancel
	s.mu.Unlock()

	s.task.Stop()
	if cancel != nil {
		cancel()
	}
	if wasRunning {
		<-s.done
	}

	s.log.Info("session stopped", zap.String("status", string(status)))
	s.emit(SessionEvent{Type: "session_ended", Status: string(status)})
	return true
}

// Done is closed when the frame loop has exited. It never closes for a session
// that was stopped before it started.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Connect registers a client on a seat (0, 1 or HostSeat) and starts the loop
// on first connection.
func (s *Session) Connect(seat int) error {
	paddles := seatPaddles(seat)
	if paddles == nil {
		return ErrInvalidSeat
	}

	s.mu.Lock()
	if s.Status == StatusCompleted || s.Status == StatusCancelled {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	for _, p := range paddles {
		s.connections[p]++
	}
	s.LastActivity = time.Now()
	s.mu.Unlock()

	s.start()
	return nil
}

// Disconnect is the inverse of Connect.
func (s *Session) Disconnect(seat int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range seatPaddles(seat) {
		if s.connections[p] == 0 {
			continue
		}
		s.connections[p]--
	}
}

// syncConnections runs on the loop goroutine and copies the seat counts into
// the players' connection states. Connection changes bypass the command queue.
func (s *Session) syncConnections(sim *Simulation) {
	s.mu.RLock()
	conns := s.connections
	s.mu.RUnlock()
	for p, n := range conns {
		state := ConnNotConnected
		if n > 0 {
			state = ConnEstablished
		}
		sim.SetConnState(p, state)
	}
}

// Connected reports whether any client holds a seat.
func (s *Session) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connections[0] > 0 || s.connections[1] > 0
}

// HandleKey queues the command bound to a key for the given seat.
func (s *Session) HandleKey(seat int, ev KeyEvent) bool {
	in, ok := s.inputs[seat]
	if !ok {
		return false
	}
	if !in.HandleKey(ev) {
		return false
	}
	s.mu.Lock()
	s.LastActivity = time.Now()
	s.mu.Unlock()
	return true
}

// Snapshot returns the state as of the last completed frame.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SessionState{
		ID:           s.ID,
		Token:        s.Token,
		Status:       s.Status,
		Snapshot:     s.snapshot,
		Connections:  s.connections,
		CreatedAt:    s.CreatedAt,
		StartedAt:    s.StartedAt,
		LastActivity: s.LastActivity,
	}
}

func (s *Session) GetStatus() GameStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Status
}

// IdleSince returns the time of the last connection or key press. The expiry
// checker ignores it while a client is connected.
func (s *Session) IdleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastActivity
}

// onFrame runs on the loop goroutine after every tick.
func (s *Session) onFrame(f Frame) {
	s.mu.Lock()
	s.snapshot = f.Snapshot
	s.mu.Unlock()

	scores := [2]int{f.Snapshot.Scores[0].Value, f.Snapshot.Scores[1].Value}
	if s.sink != nil {
		s.sink.PublishFrame(s.Token, FrameMessage{Seq: f.Seq, Ops: s.recorder.Ops(), Scores: scores})
	}

	if f.Step.AnyScored() {
		for i, scored := range f.Step.Scored {
			if !scored {
				continue
			}
			side := SideLeft
			if i == 1 {
				side = SideRight
			}
			s.log.Debug("score", zap.String("side", side.String()), zap.Int("left", scores[0]), zap.Int("right", scores[1]))
			s.emit(SessionEvent{Type: "score", Side: side.String(), Scores: scores})
		}
	}
}

func (s *Session) emit(ev SessionEvent) {
	if s.publish == nil {
		return
	}
	ev.Token = s.Token
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	if ev.Type != "score" {
		snap := s.Snapshot()
		ev.Scores = [2]int{snap.Scores[0].Value, snap.Scores[1].Value}
	}
	s.publish(ev)
}

func seatPaddles(seat int) []int {
	switch seat {
	case 0, 1:
		return []int{seat}
	case HostSeat:
		return []int{0, 1}
	}
	return nil
}
