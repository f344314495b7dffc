package game

// Defaults for the Pong court. Coordinates are canvas pixels with the origin
// at the top-left corner and y growing downwards.
const (
	CourtWidth  = 500.0
	CourtHeight = 400.0

	BallRadius   = 6.0
	DefaultSpeed = 3.0
	InitialScore = 5

	PaddleWidth  = 10.0
	PaddleHeight = 60.0
	PaddleMargin = 10.0 // gap between a court edge and the outer face of its paddle

	// PaddleStepFactor scales Speed into the per-command paddle displacement.
	PaddleStepFactor = 5.0

	DefaultFrameRate = 60

	scoreTopOffset = 30.0

	// Lines shorter than this are treated as points.
	degenerateEpsilon = 1e-9
)
