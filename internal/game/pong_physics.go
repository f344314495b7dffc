package game

import "fmt"

// Options tunes a Simulation. Zero values are not valid; start from
// DefaultOptions.
type Options struct {
	Speed        float64 `json:"speed"`
	InitialScore int     `json:"initial_score"`
	BallRadius   float64 `json:"ball_radius"`
	PaddleWidth  float64 `json:"paddle_width"`
	PaddleHeight float64 `json:"paddle_height"`
	PaddleMargin float64 `json:"paddle_margin"`
}

func DefaultOptions() Options {
	return Options{
		Speed:        DefaultSpeed,
		InitialScore: InitialScore,
		BallRadius:   BallRadius,
		PaddleWidth:  PaddleWidth,
		PaddleHeight: PaddleHeight,
		PaddleMargin: PaddleMargin,
	}
}

func (o Options) validate(c Constraints) error {
	switch {
	case o.BallRadius <= 0:
		return fmt.Errorf("%w: ball radius must be positive", ErrInvalidOptions)
	case o.Speed <= 0:
		return fmt.Errorf("%w: speed must be positive", ErrInvalidOptions)
	case o.PaddleWidth <= 0 || o.PaddleHeight <= 0:
		return fmt.Errorf("%w: paddle size must be positive", ErrInvalidOptions)
	case o.PaddleHeight > c.Height():
		return fmt.Errorf("%w: paddle height %.1f exceeds court height %.1f", ErrInvalidOptions, o.PaddleHeight, c.Height())
	case 2*(o.PaddleMargin+o.PaddleWidth) >= c.Width():
		return fmt.Errorf("%w: paddles do not fit in a court %.1f wide", ErrInvalidOptions, c.Width())
	}
	return nil
}

// CollisionEvent records one collision predicate that fired during a step.
type CollisionEvent struct {
	Type   string `json:"type"`   // "paddle", "boundary", "wall"
	Side   string `json:"side"`   // "left", "right", "top", "bottom"
	Effect string `json:"effect"` // "bounce", "score", "none"
}

// StepResult describes what happened in one MoveBall call. The four hit
// predicates are evaluated against the pre-move position.
type StepResult struct {
	LeftPaddleHit    bool             `json:"left_paddle_hit"`
	RightPaddleHit   bool             `json:"right_paddle_hit"`
	LeftBoundaryHit  bool             `json:"left_boundary_hit"`
	RightBoundaryHit bool             `json:"right_boundary_hit"`
	Bounced          bool             `json:"bounced"`
	WallBounced      bool             `json:"wall_bounced"`
	Scored           [2]bool          `json:"scored"`
	Events           []CollisionEvent `json:"events,omitempty"`
}

// AnyScored reports whether a score changed this step.
func (r StepResult) AnyScored() bool {
	return r.Scored[0] || r.Scored[1]
}

// Simulation is the Pong state: one ball, two paddles, two players, two
// scores. It is not safe for concurrent use; a single owner drives it.
type Simulation struct {
	Ball        Ball        `json:"ball"`
	Direction   Vec2        `json:"direction"` // components are -1 or +1
	Paddles     [2]*Paddle  `json:"paddles"`
	Players     [2]Player   `json:"players"`
	Scores      [2]Score    `json:"scores"`
	Constraints Constraints `json:"constraints"`
	Boundaries  [2]Line     `json:"boundaries"`
	Speed       float64     `json:"speed"`
}

// New builds a simulation with the default options.
func New(c Constraints) (*Simulation, error) {
	return NewWithOptions(c, DefaultOptions())
}

// NewWithOptions builds a simulation for the court. The result depends only on
// its arguments.
func NewWithOptions(c Constraints, opts Options) (*Simulation, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := opts.validate(c); err != nil {
		return nil, err
	}

	layout := layoutFor(c, opts)

	s := &Simulation{
		Ball:        NewBall(layout.ball.X, layout.ball.Y, opts.BallRadius),
		Direction:   NewVec2(1, 1),
		Constraints: c,
		Boundaries:  [2]Line{c.LeftBoundary(), c.RightBoundary()},
		Speed:       opts.Speed,
		Players: [2]Player{
			{ID: 1, Conn: ConnNotConnected},
			{ID: 2, Conn: ConnNotConnected},
		},
	}
	s.Paddles[0] = NewPaddle(SideLeft, layout.paddles[0].X, layout.paddles[0].Y, opts.PaddleWidth, opts.PaddleHeight)
	s.Paddles[1] = NewPaddle(SideRight, layout.paddles[1].X, layout.paddles[1].Y, opts.PaddleWidth, opts.PaddleHeight)
	for i := range s.Scores {
		s.Scores[i] = Score{Value: opts.InitialScore, Position: layout.scoreLabels[i]}
	}

	return s, nil
}

// PaddleStep is the displacement applied by one paddle command.
func (s *Simulation) PaddleStep() float64 {
	return s.Speed * PaddleStepFactor
}

// MovePaddle moves paddle index one step up or down. A move that would take
// the paddle outside [Y1, Y2-Height] is dropped, as is an unknown index.
// It reports whether the paddle moved.
func (s *Simulation) MovePaddle(dir Direction, index int) bool {
	if index < 0 || index >= len(s.Paddles) {
		return false
	}
	p := s.Paddles[index]

	newY := p.Position.Y + dir.sign()*s.PaddleStep()
	if newY < s.Constraints.Y1 || newY > s.Constraints.Y2-p.Height {
		return false
	}

	p.Update(p.Position.X, newY)
	return true
}

// MoveBall advances the ball by one frame. Collision predicates, bounces and
// scoring all use the position from before the move; the ball is then advanced
// by Speed along the (possibly reversed) direction.
func (s *Simulation) MoveBall() StepResult {
	var r StepResult

	ball := s.Ball
	dx, dy := s.Direction.X, s.Direction.Y

	r.LeftPaddleHit = s.Paddles[0].Line.CollidesWith(ball)
	r.RightPaddleHit = s.Paddles[1].Line.CollidesWith(ball)
	r.LeftBoundaryHit = s.Boundaries[0].CollidesWith(ball)
	r.RightBoundaryHit = s.Boundaries[1].CollidesWith(ball)

	// Paddle bounce.
	if (dx < 0 && r.LeftPaddleHit) || (dx > 0 && r.RightPaddleHit) {
		s.Direction.X = -dx
		r.Bounced = true
		r.Events = append(r.Events, CollisionEvent{Type: "paddle", Side: sideOf(dx), Effect: "bounce"})
	}

	// Scoring uses the direction the ball had when the frame started, so a
	// paddle bounce and a score can both happen in one frame.
	if dx < 0 && r.LeftBoundaryHit {
		s.Scores[0].Decrement()
		r.Scored[0] = true
		r.Events = append(r.Events, CollisionEvent{Type: "boundary", Side: "left", Effect: "score"})
	}
	if dx > 0 && r.RightBoundaryHit {
		s.Scores[1].Decrement()
		r.Scored[1] = true
		r.Events = append(r.Events, CollisionEvent{Type: "boundary", Side: "right", Effect: "score"})
	}

	// Top and bottom walls reflect dy only.
	y := ball.Position.Y
	if y <= s.Constraints.Y1 && dy < 0 {
		s.Direction.Y = -dy
		r.WallBounced = true
		r.Events = append(r.Events, CollisionEvent{Type: "wall", Side: "top", Effect: "bounce"})
	} else if y >= s.Constraints.Y2 && dy > 0 {
		s.Direction.Y = -dy
		r.WallBounced = true
		r.Events = append(r.Events, CollisionEvent{Type: "wall", Side: "bottom", Effect: "bounce"})
	}

	next := ball.Position.Plus(s.Direction.Times(s.Speed))
	s.Ball.Update(next.X, next.Y)

	return r
}

// SetConnState records a player's connection state. Unknown indexes are ignored.
func (s *Simulation) SetConnState(index int, state ConnState) {
	if index < 0 || index >= len(s.Players) {
		return
	}
	s.Players[index].Conn = state
}

// Draw renders the current state. See Snapshot.Draw for the order.
func (s *Simulation) Draw(surface Surface) {
	s.Snapshot().Draw(surface)
}

func sideOf(dx float64) string {
	if dx < 0 {
		return "left"
	}
	return "right"
}
