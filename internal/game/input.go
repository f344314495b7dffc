package game

// KeyEvent is a raw key press from an input source. Key uses browser
// KeyboardEvent.key names ("w", "ArrowUp", ...).
type KeyEvent struct {
	Key string `json:"key"`
}

// CommandKind distinguishes paddle moves from connection changes.
type CommandKind int

const (
	CmdMovePaddle CommandKind = iota
	CmdConnect
	CmdDisconnect
)

// Command is a discrete instruction for the simulation owner. Paddle is the
// paddle (and player) index, 0 = left, 1 = right.
type Command struct {
	Kind      CommandKind
	Paddle    int
	Direction Direction
}

// Apply executes the command against the simulation.
func (c Command) Apply(s *Simulation) {
	switch c.Kind {
	case CmdMovePaddle:
		s.MovePaddle(c.Direction, c.Paddle)
	case CmdConnect:
		s.SetConnState(c.Paddle, ConnEstablished)
	case CmdDisconnect:
		s.SetConnState(c.Paddle, ConnNotConnected)
	}
}

// KeyMap translates key names into paddle commands.
type KeyMap map[string]Command

// DefaultKeyMap drives both paddles from one keyboard: W/S for the left
// paddle, arrow keys for the right one.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		"w":         {Paddle: 0, Direction: DirUp},
		"W":         {Paddle: 0, Direction: DirUp},
		"s":         {Paddle: 0, Direction: DirDown},
		"S":         {Paddle: 0, Direction: DirDown},
		"ArrowUp":   {Paddle: 1, Direction: DirUp},
		"ArrowDown": {Paddle: 1, Direction: DirDown},
	}
}

// SeatKeyMap binds every supported key to a single paddle, for a player who
// controls only their own side.
func SeatKeyMap(paddle int) KeyMap {
	km := DefaultKeyMap()
	for k, cmd := range km {
		cmd.Paddle = paddle
		km[k] = cmd
	}
	return km
}

func (km KeyMap) Translate(ev KeyEvent) (Command, bool) {
	cmd, ok := km[ev.Key]
	return cmd, ok
}

// CommandQueue is a bounded FIFO between input sources and the goroutine that
// owns the simulation.
type CommandQueue struct {
	ch chan Command
}

func NewCommandQueue(size int) *CommandQueue {
	if size <= 0 {
		size = 1
	}
	return &CommandQueue{ch: make(chan Command, size)}
}

// Push enqueues without blocking and reports false when the queue is full.
func (q *CommandQueue) Push(cmd Command) bool {
	select {
	case q.ch <- cmd:
		return true
	default:
		return false
	}
}

// Drain hands every queued command to fn, in arrival order, and returns how
// many there were. Commands pushed while draining may be picked up too.
func (q *CommandQueue) Drain(fn func(Command)) int {
	n := 0
	for {
		select {
		case cmd := <-q.ch:
			fn(cmd)
			n++
		default:
			return n
		}
	}
}

func (q *CommandQueue) Len() int {
	return len(q.ch)
}

// InputAdapter turns key events into queued commands. Unmapped keys are
// ignored.
type InputAdapter struct {
	keys  KeyMap
	queue *CommandQueue
}

func NewInputAdapter(keys KeyMap, queue *CommandQueue) *InputAdapter {
	return &InputAdapter{keys: keys, queue: queue}
}

// HandleKey reports whether the key produced a queued command.
func (a *InputAdapter) HandleKey(ev KeyEvent) bool {
	cmd, ok := a.keys.Translate(ev)
	if !ok {
		return false
	}
	return a.queue.Push(cmd)
}
