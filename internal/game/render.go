package game

import "strconv"

// Surface is an immediate-mode 2D drawing target. The simulation only issues
// calls; it never reads anything back.
type Surface interface {
	Clear(x1, y1, x2, y2 float64)
	DrawRect(x, y, w, h float64)
	DrawCircle(x, y, r float64)
	DrawText(s string, x, y float64)
}

// Flusher is implemented by surfaces that buffer a frame and need an explicit
// present step once it is drawn.
type Flusher interface {
	Flush() error
}

type BallState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Radius float64 `json:"radius"`
}

type PaddleState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Side   string  `json:"side"`
}

type ScoreState struct {
	Value int     `json:"value"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// Snapshot is a read-only copy of the simulation handed to renderers and to
// other goroutines.
type Snapshot struct {
	Court     Constraints    `json:"court"`
	Ball      BallState      `json:"ball"`
	Direction Vec2           `json:"direction"`
	Paddles   [2]PaddleState `json:"paddles"`
	Scores    [2]ScoreState  `json:"scores"`
	Players   [2]Player      `json:"players"`
}

func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Court:     s.Constraints,
		Ball:      BallState{X: s.Ball.Position.X, Y: s.Ball.Position.Y, Radius: s.Ball.Radius},
		Direction: s.Direction,
		Players:   s.Players,
	}
	for i, p := range s.Paddles {
		snap.Paddles[i] = PaddleState{X: p.Position.X, Y: p.Position.Y, Width: p.Width, Height: p.Height, Side: p.Side.String()}
	}
	for i, sc := range s.Scores {
		snap.Scores[i] = ScoreState{Value: sc.Value, X: sc.Position.X, Y: sc.Position.Y}
	}
	return snap
}

// Draw clears the court then draws the ball, both paddles and both scores,
// always in that order.
func (snap Snapshot) Draw(surface Surface) {
	c := snap.Court
	surface.Clear(c.X1, c.Y1, c.X2, c.Y2)
	surface.DrawCircle(snap.Ball.X, snap.Ball.Y, snap.Ball.Radius)
	for _, p := range snap.Paddles {
		surface.DrawRect(p.X, p.Y, p.Width, p.Height)
	}
	for _, sc := range snap.Scores {
		surface.DrawText(strconv.Itoa(sc.Value), sc.X, sc.Y)
	}
}

// DrawOp is one recorded Surface call.
type DrawOp struct {
	Op   string  `json:"op"` // "clear", "rect", "circle", "text"
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w,omitempty"`
	H    float64 `json:"h,omitempty"`
	R    float64 `json:"r,omitempty"`
	Text string  `json:"text,omitempty"`
}

// Recorder is a Surface that keeps the calls of the current frame so they can
// be replayed elsewhere, e.g. on a browser canvas. Clear starts a new frame.
type Recorder struct {
	ops []DrawOp
}

func NewRecorder() *Recorder {
	return &Recorder{ops: make([]DrawOp, 0, 8)}
}

func (r *Recorder) Clear(x1, y1, x2, y2 float64) {
	r.ops = r.ops[:0]
	r.ops = append(r.ops, DrawOp{Op: "clear", X: x1, Y: y1, W: x2 - x1, H: y2 - y1})
}

func (r *Recorder) DrawRect(x, y, w, h float64) {
	r.ops = append(r.ops, DrawOp{Op: "rect", X: x, Y: y, W: w, H: h})
}

func (r *Recorder) DrawCircle(x, y, radius float64) {
	r.ops = append(r.ops, DrawOp{Op: "circle", X: x, Y: y, R: radius})
}

func (r *Recorder) DrawText(s string, x, y float64) {
	r.ops = append(r.ops, DrawOp{Op: "text", X: x, Y: y, Text: s})
}

// Ops returns a copy of the current frame's calls.
func (r *Recorder) Ops() []DrawOp {
	out := make([]DrawOp, len(r.ops))
	copy(out, r.ops)
	return out
}
