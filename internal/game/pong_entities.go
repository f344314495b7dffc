package game

import "fmt"

// Side identifies which half of the court a paddle defends.
type Side int

const (
	SideLeft Side = iota
	SideRight
)

func (s Side) String() string {
	if s == SideLeft {
		return "left"
	}
	return "right"
}

// Direction is a discrete paddle move.
type Direction int

const (
	DirUp Direction = iota
	DirDown
)

func (d Direction) String() string {
	if d == DirUp {
		return "up"
	}
	return "down"
}

// sign maps the direction onto the court's y axis (y grows downwards).
func (d Direction) sign() float64 {
	if d == DirUp {
		return -1
	}
	return 1
}

// Ball is the single moving circle.
type Ball struct {
	Position Vec2    `json:"position"`
	Radius   float64 `json:"radius"`
}

func NewBall(x, y, radius float64) Ball {
	return Ball{Position: NewVec2(x, y), Radius: radius}
}

func (b *Ball) Update(x, y float64) *Ball {
	b.Position = NewVec2(x, y)
	return b
}

// Paddle is a rectangle anchored at its top-left corner. Line is its
// inward-facing vertical edge and is kept in sync by Update.
type Paddle struct {
	Position Vec2    `json:"position"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Side     Side    `json:"side"`
	Line     Line    `json:"line"`
}

func NewPaddle(side Side, x, y, width, height float64) *Paddle {
	p := &Paddle{Width: width, Height: height, Side: side}
	p.Update(x, y)
	return p
}

// Update moves the paddle and recomputes its collision line: the edge at
// x+Width for a left paddle, the edge at x for a right paddle, spanning the
// full paddle height.
func (p *Paddle) Update(x, y float64) *Paddle {
	p.Position = NewVec2(x, y)

	edge := x
	if p.Side == SideLeft {
		edge = x + p.Width
	}
	p.Line = NewLine(NewVec2(edge, y), NewVec2(edge, y+p.Height))
	return p
}

// Score counts down from InitialScore. There is no floor.
type Score struct {
	Value    int  `json:"value"`
	Position Vec2 `json:"position"`
}

func (s *Score) Decrement() {
	s.Value--
}

// ConnState is a player's connection state.
type ConnState int

const (
	ConnNotConnected ConnState = iota
	ConnEstablished
)

func (c ConnState) String() string {
	if c == ConnEstablished {
		return "established"
	}
	return "not_connected"
}

func (c ConnState) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *ConnState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "established":
		*c = ConnEstablished
	case "not_connected":
		*c = ConnNotConnected
	default:
		return fmt.Errorf("unknown connection state %q", b)
	}
	return nil
}

type Player struct {
	ID   int       `json:"id"`
	Conn ConnState `json:"conn"`
}
