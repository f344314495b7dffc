package game

import "fmt"

// Constraints is the court rectangle [X1,X2]×[Y1,Y2].
type Constraints struct {
	X1 float64 `json:"x1"`
	X2 float64 `json:"x2"`
	Y1 float64 `json:"y1"`
	Y2 float64 `json:"y2"`
}

// NewCourt returns a court of the given size anchored at the origin.
func NewCourt(width, height float64) Constraints {
	return Constraints{X1: 0, X2: width, Y1: 0, Y2: height}
}

func (c Constraints) Width() float64  { return c.X2 - c.X1 }
func (c Constraints) Height() float64 { return c.Y2 - c.Y1 }

func (c Constraints) Center() Vec2 {
	return NewVec2((c.X1+c.X2)/2, (c.Y1+c.Y2)/2)
}

func (c Constraints) Validate() error {
	if !(c.X1 < c.X2) {
		return fmt.Errorf("%w: x1 (%.1f) must be less than x2 (%.1f)", ErrInvalidCourt, c.X1, c.X2)
	}
	if !(c.Y1 < c.Y2) {
		return fmt.Errorf("%w: y1 (%.1f) must be less than y2 (%.1f)", ErrInvalidCourt, c.Y1, c.Y2)
	}
	return nil
}

// LeftBoundary is the scoring line along x = X1.
func (c Constraints) LeftBoundary() Line {
	return NewLine(NewVec2(c.X1, c.Y1), NewVec2(c.X1, c.Y2))
}

// RightBoundary is the scoring line along x = X2.
func (c Constraints) RightBoundary() Line {
	return NewLine(NewVec2(c.X2, c.Y1), NewVec2(c.X2, c.Y2))
}

// courtLayout holds the deterministic start positions for a court.
type courtLayout struct {
	ball        Vec2
	paddles     [2]Vec2
	scoreLabels [2]Vec2
}

// layoutFor places both paddles symmetric about the court's vertical center
// line, vertically centered, and the ball at the court center.
func layoutFor(c Constraints, opts Options) courtLayout {
	center := c.Center()
	top := center.Y - opts.PaddleHeight/2

	return courtLayout{
		ball: center,
		paddles: [2]Vec2{
			NewVec2(c.X1+opts.PaddleMargin, top),
			NewVec2(c.X2-opts.PaddleMargin-opts.PaddleWidth, top),
		},
		scoreLabels: [2]Vec2{
			NewVec2(c.X1+c.Width()/4, c.Y1+scoreTopOffset),
			NewVec2(c.X1+3*c.Width()/4, c.Y1+scoreTopOffset),
		},
	}
}
