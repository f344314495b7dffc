package game

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSim(t *testing.T, c Constraints) *Simulation {
	t.Helper()
	sim, err := New(c)
	require.NoError(t, err)
	return sim
}

func TestNewLayout(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))

	assert.Equal(t, NewVec2(250, 150), sim.Ball.Position)
	assert.Equal(t, BallRadius, sim.Ball.Radius)
	assert.Equal(t, NewVec2(1, 1), sim.Direction)

	left, right := sim.Paddles[0], sim.Paddles[1]
	assert.Equal(t, SideLeft, left.Side)
	assert.Equal(t, SideRight, right.Side)
	assert.Equal(t, NewVec2(10, 120), left.Position)
	assert.Equal(t, NewVec2(480, 120), right.Position)
	// Symmetric about the vertical center line.
	assert.Equal(t, 250-left.Line.P1.X, right.Line.P1.X-250)

	for i := range sim.Scores {
		assert.Equal(t, InitialScore, sim.Scores[i].Value)
		assert.Equal(t, ConnNotConnected, sim.Players[i].Conn)
	}
	assert.Equal(t, 1, sim.Players[0].ID)
	assert.Equal(t, 2, sim.Players[1].ID)

	assert.Equal(t, 0.0, sim.Boundaries[0].P1.X)
	assert.Equal(t, 500.0, sim.Boundaries[1].P1.X)
}

func TestNewIsDeterministic(t *testing.T) {
	a := newTestSim(t, NewCourt(640, 480))
	b := newTestSim(t, NewCourt(640, 480))
	assert.Equal(t, a.Snapshot(), b.Snapshot())
}

func TestNewRejectsBadInput(t *testing.T) {
	_, err := New(Constraints{X1: 10, X2: 10, Y1: 0, Y2: 100})
	assert.True(t, errors.Is(err, ErrInvalidCourt))

	_, err = New(Constraints{X1: 0, X2: 100, Y1: 50, Y2: 10})
	assert.True(t, errors.Is(err, ErrInvalidCourt))

	opts := DefaultOptions()
	opts.BallRadius = 0
	_, err = NewWithOptions(NewCourt(500, 300), opts)
	assert.True(t, errors.Is(err, ErrInvalidOptions))

	_, err = New(NewCourt(500, 40))
	assert.True(t, errors.Is(err, ErrInvalidOptions))
}

// Scenario A: free flight.
func TestMoveBallFreeFlight(t *testing.T) {
	sim := newTestSim(t, Constraints{X1: 0, X2: 500, Y1: 0, Y2: 300})
	sim.Ball.Update(15, 50)
	sim.Direction = NewVec2(1, 1)

	r := sim.MoveBall()

	assert.Equal(t, NewVec2(18, 53), sim.Ball.Position)
	assert.False(t, r.Bounced)
	assert.False(t, r.WallBounced)
	assert.False(t, r.AnyScored())
	assert.Empty(t, r.Events)
	assert.Equal(t, NewVec2(1, 1), sim.Direction)
	assert.Equal(t, InitialScore, sim.Scores[0].Value)
	assert.Equal(t, InitialScore, sim.Scores[1].Value)
}

// Scenario B: top wall.
func TestMoveBallTopWall(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))
	sim.Ball.Update(250, 0)
	sim.Direction = NewVec2(1, -1)

	r := sim.MoveBall()

	assert.True(t, r.WallBounced)
	assert.Equal(t, 1.0, sim.Direction.Y)
	assert.Equal(t, 1.0, sim.Direction.X)
	assert.GreaterOrEqual(t, sim.Ball.Position.Y, 0.0)
}

func TestMoveBallBottomWall(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))
	sim.Ball.Update(250, 301)
	sim.Direction = NewVec2(-1, 1)

	r := sim.MoveBall()

	assert.True(t, r.WallBounced)
	assert.Equal(t, -1.0, sim.Direction.Y)
	assert.Equal(t, -1.0, sim.Direction.X)
	assert.Equal(t, 298.0, sim.Ball.Position.Y)
}

func TestMoveBallWallIgnoresOutgoingDirection(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))
	sim.Ball.Update(250, 0)
	sim.Direction = NewVec2(1, 1)

	r := sim.MoveBall()

	assert.False(t, r.WallBounced)
	assert.Equal(t, 1.0, sim.Direction.Y)
}

// Scenario C: left boundary scores against the left player.
func TestMoveBallScoresLeft(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))
	sim.Ball.Update(0, 150)
	sim.Direction = NewVec2(-1, 1)

	r := sim.MoveBall()

	assert.True(t, r.Scored[0])
	assert.False(t, r.Scored[1])
	assert.Equal(t, InitialScore-1, sim.Scores[0].Value)
	assert.Equal(t, InitialScore, sim.Scores[1].Value)
	// No respawn and no direction change.
	assert.Equal(t, NewVec2(-3, 153), sim.Ball.Position)
	assert.Equal(t, -1.0, sim.Direction.X)
}

func TestMoveBallScoresRight(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))
	sim.Ball.Update(500, 40)
	sim.Direction = NewVec2(1, -1)

	r := sim.MoveBall()

	assert.True(t, r.Scored[1])
	assert.Equal(t, InitialScore, sim.Scores[0].Value)
	assert.Equal(t, InitialScore-1, sim.Scores[1].Value)
}

func TestBoundaryHitMovingAwayDoesNotScore(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))
	sim.Ball.Update(0, 150)
	sim.Direction = NewVec2(1, 1)

	r := sim.MoveBall()

	assert.True(t, r.LeftBoundaryHit)
	assert.False(t, r.AnyScored())
	assert.Equal(t, InitialScore, sim.Scores[0].Value)
}

func TestScoreHasNoFloor(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))
	for i := 0; i < InitialScore+3; i++ {
		sim.Ball.Update(0, 150)
		sim.Direction = NewVec2(-1, 1)
		sim.MoveBall()
	}
	assert.Equal(t, -3, sim.Scores[0].Value)
}

// Scenario D: a paddle reverses dx exactly once while the ball is still in
// its band on the next frame.
func TestMoveBallPaddleBounceOnce(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))
	face := sim.Paddles[0].Line
	sim.Ball.Update(face.P1.X, (face.P1.Y+face.P2.Y)/2)
	sim.Direction = NewVec2(-1, 1)

	r := sim.MoveBall()
	require.True(t, r.LeftPaddleHit)
	assert.True(t, r.Bounced)
	assert.Equal(t, 1.0, sim.Direction.X)

	r = sim.MoveBall()
	assert.True(t, r.LeftPaddleHit, "ball is still inside the band")
	assert.False(t, r.Bounced)
	assert.Equal(t, 1.0, sim.Direction.X)
}

func TestMoveBallRightPaddleBounce(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))
	face := sim.Paddles[1].Line
	sim.Ball.Update(face.P1.X, face.P1.Y+10)
	sim.Direction = NewVec2(1, -1)

	r := sim.MoveBall()

	assert.True(t, r.Bounced)
	assert.Equal(t, -1.0, sim.Direction.X)
	assert.Equal(t, -1.0, sim.Direction.Y)
	assert.Equal(t, NewVec2(face.P1.X-3, face.P1.Y+7), sim.Ball.Position)
}

func TestBounceAndScoreInOneFrame(t *testing.T) {
	opts := DefaultOptions()
	opts.BallRadius = 40
	opts.PaddleMargin = 0
	sim, err := NewWithOptions(NewCourt(500, 300), opts)
	require.NoError(t, err)

	sim.Ball.Update(2, 150)
	sim.Direction = NewVec2(-1, 1)

	r := sim.MoveBall()

	assert.True(t, r.Bounced)
	assert.True(t, r.Scored[0])
	assert.Equal(t, 1.0, sim.Direction.X)
	assert.Equal(t, InitialScore-1, sim.Scores[0].Value)
	assert.Len(t, r.Events, 2)
}

func TestMoveBallTwiceDoubleApplies(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))
	sim.Ball.Update(100, 100)

	sim.MoveBall()
	sim.MoveBall()

	assert.Equal(t, NewVec2(106, 106), sim.Ball.Position)
}

func TestBallStaysNearCourtVertically(t *testing.T) {
	c := NewCourt(500, 300)
	sim := newTestSim(t, c)
	sim.Direction = NewVec2(1, -1)

	bouncedOnce := false
	for i := 0; i < 5000; i++ {
		r := sim.MoveBall()
		if r.WallBounced {
			bouncedOnce = true
		}
		y := sim.Ball.Position.Y
		if bouncedOnce {
			require.GreaterOrEqual(t, y, c.Y1-sim.Speed, "frame %d", i)
			require.LessOrEqual(t, y, c.Y2+sim.Speed, "frame %d", i)
		}
		// Keep the ball in play horizontally so the walls keep being tested.
		if x := sim.Ball.Position.X; x < c.X1 || x > c.X2 {
			sim.Ball.Update(c.Center().X, y)
		}
	}
	assert.True(t, bouncedOnce)
}

func TestMovePaddle(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))
	start := sim.Paddles[0].Position.Y
	step := sim.PaddleStep()
	assert.Equal(t, 15.0, step)

	assert.True(t, sim.MovePaddle(DirUp, 0))
	assert.Equal(t, start-step, sim.Paddles[0].Position.Y)
	assert.Equal(t, start-step, sim.Paddles[0].Line.P1.Y)

	assert.True(t, sim.MovePaddle(DirDown, 1))
	assert.Equal(t, start+step, sim.Paddles[1].Position.Y)

	assert.False(t, sim.MovePaddle(DirUp, 2))
	assert.False(t, sim.MovePaddle(DirUp, -1))
}

func TestMovePaddleRejectsOutOfCourt(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))
	p := sim.Paddles[0]

	p.Update(p.Position.X, 10)
	assert.False(t, sim.MovePaddle(DirUp, 0))
	assert.Equal(t, 10.0, p.Position.Y)

	p.Update(p.Position.X, 15)
	assert.True(t, sim.MovePaddle(DirUp, 0))
	assert.Equal(t, 0.0, p.Position.Y)

	p.Update(p.Position.X, 300-p.Height)
	assert.False(t, sim.MovePaddle(DirDown, 0))
	assert.Equal(t, 300-p.Height, p.Position.Y)
}

func TestMovePaddleNeverLeavesCourt(t *testing.T) {
	c := NewCourt(500, 300)
	rng := rand.New(rand.NewSource(7))

	for run := 0; run < 50; run++ {
		sim := newTestSim(t, c)
		for i := 0; i < 200; i++ {
			dir := DirUp
			if rng.Intn(2) == 1 {
				dir = DirDown
			}
			sim.MovePaddle(dir, rng.Intn(2))
		}
		for _, p := range sim.Paddles {
			require.GreaterOrEqual(t, p.Position.Y, c.Y1)
			require.LessOrEqual(t, p.Position.Y, c.Y2-p.Height)
		}
	}
}

func TestDrawOrder(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))
	rec := NewRecorder()

	sim.Draw(rec)
	ops := rec.Ops()

	require.Len(t, ops, 6)
	kinds := make([]string, len(ops))
	for i, op := range ops {
		kinds[i] = op.Op
	}
	assert.Equal(t, []string{"clear", "circle", "rect", "rect", "text", "text"}, kinds)

	assert.Equal(t, DrawOp{Op: "clear", X: 0, Y: 0, W: 500, H: 300}, ops[0])
	assert.Equal(t, DrawOp{Op: "circle", X: 250, Y: 150, R: BallRadius}, ops[1])
	assert.Equal(t, 10.0, ops[2].X)
	assert.Equal(t, 480.0, ops[3].X)
	assert.Equal(t, "5", ops[4].Text)
	assert.Equal(t, 125.0, ops[4].X)
	assert.Equal(t, 375.0, ops[5].X)
}

func TestDrawIsReadOnly(t *testing.T) {
	sim := newTestSim(t, NewCourt(500, 300))
	before := sim.Snapshot()
	sim.Draw(NewRecorder())
	assert.Equal(t, before, sim.Snapshot())
}

func TestRecorderClearStartsNewFrame(t *testing.T) {
	rec := NewRecorder()
	rec.DrawCircle(1, 1, 1)
	rec.Clear(0, 0, 10, 10)
	assert.Len(t, rec.Ops(), 1)

	ops := rec.Ops()
	ops[0].Op = "changed"
	assert.Equal(t, "clear", rec.Ops()[0].Op)
}
