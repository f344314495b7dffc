package game

// Distance returns the Euclidean distance between p and q.
func Distance(p, q Vec2) float64 {
	return p.DistanceTo(q)
}

// Line is a segment used as a collision proxy for a flat edge: the inner face
// of a paddle or one of the court's scoring boundaries.
type Line struct {
	P1 Vec2 `json:"p1"`
	P2 Vec2 `json:"p2"`
}

func NewLine(p1, p2 Vec2) Line {
	return Line{P1: p1, P2: p2}
}

func (l Line) Length() float64 {
	return Distance(l.P1, l.P2)
}

// CollidesWith reports whether the ball's center lies on the segment within a
// tolerance band of half the ball radius. The test compares the sum of the
// distances from the center to both endpoints against the segment length.
func (l Line) CollidesWith(b Ball) bool {
	d := Distance(b.Position, l.P1) + Distance(b.Position, l.P2)
	length := l.Length()

	// Zero-length segment: only an exact hit counts.
	if length < degenerateEpsilon {
		return d < degenerateEpsilon
	}

	band := b.Radius / 2
	return d > length-band && d < length+band
}
