package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu     sync.Mutex
	frames map[string][]FrameMessage
	events []SessionEvent
}

func newFakeSink() *fakeSink {
	return &fakeSink{frames: map[string][]FrameMessage{}}
}

func (f *fakeSink) PublishFrame(token string, msg FrameMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames[token] = append(f.frames[token], msg)
}

func (f *fakeSink) PublishEvent(ev SessionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

func (f *fakeSink) frameCount(token string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.frames[token])
}

func (f *fakeSink) eventTypes(token string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, ev := range f.events {
		if ev.Token == token {
			out = append(out, ev.Type)
		}
	}
	return out
}

func newTestManager(t *testing.T) (*SessionManager, *fakeSink) {
	return newTestManagerWith(t, nil, nil, 16)
}

func newTestManagerWith(t *testing.T, db *sqlx.DB, rdb *redis.Client, queueSize int) (*SessionManager, *fakeSink) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	mgr := NewSessionManager(ctx, db, rdb, ManagerConfig{
		Court:       NewCourt(500, 300),
		Options:     DefaultOptions(),
		FrameRate:   500,
		QueueSize:   queueSize,
		IdleTimeout: time.Minute,
	})
	sink := newFakeSink()
	mgr.SetSink(sink)
	t.Cleanup(func() {
		mgr.Shutdown()
		cancel()
	})
	return mgr, sink
}

func TestCreateAndGetSession(t *testing.T) {
	mgr, _ := newTestManager(t)

	s, err := mgr.CreateSession()
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Len(t, s.Token, 16)
	assert.Equal(t, StatusWaiting, s.GetStatus())
	assert.Equal(t, 1, mgr.ActiveCount())

	got, err := mgr.GetSession(s.Token)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = mgr.GetSession("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	other, err := mgr.CreateSession()
	require.NoError(t, err)
	assert.NotEqual(t, s.Token, other.Token)
}

func TestCreateSessionRejectsBadConfig(t *testing.T) {
	mgr := NewSessionManager(context.Background(), nil, nil, ManagerConfig{
		Court:   NewCourt(500, 20),
		Options: DefaultOptions(),
	})
	_, err := mgr.CreateSession()
	assert.ErrorIs(t, err, ErrInvalidOptions)
	assert.Equal(t, 0, mgr.ActiveCount())
}

func TestSessionStartsOnConnectAndStreamsFrames(t *testing.T) {
	mgr, sink := newTestManager(t)
	s, err := mgr.CreateSession()
	require.NoError(t, err)

	require.NoError(t, s.Connect(0))
	assert.Equal(t, StatusInProgress, s.GetStatus())

	require.Eventually(t, func() bool { return sink.frameCount(s.Token) >= 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"session_started"}, sink.eventTypes(s.Token))

	snap := s.Snapshot()
	assert.Greater(t, snap.Ball.X, 250.0)
	assert.Equal(t, ConnEstablished, snap.Players[0].Conn)
	assert.Equal(t, ConnNotConnected, snap.Players[1].Conn)

	sink.mu.Lock()
	msg := sink.frames[s.Token][0]
	sink.mu.Unlock()
	assert.Equal(t, uint64(1), msg.Seq)
	assert.Len(t, msg.Ops, 6)
	assert.Equal(t, [2]int{InitialScore, InitialScore}, msg.Scores)
}

func TestSessionKeysMovePaddles(t *testing.T) {
	mgr, _ := newTestManager(t)
	s, err := mgr.CreateSession()
	require.NoError(t, err)
	start := s.Snapshot().Paddles

	require.NoError(t, s.Connect(HostSeat))
	assert.True(t, s.HandleKey(HostSeat, KeyEvent{Key: "w"}))
	assert.True(t, s.HandleKey(1, KeyEvent{Key: "ArrowDown"}))
	assert.False(t, s.HandleKey(1, KeyEvent{Key: "q"}))
	assert.False(t, s.HandleKey(7, KeyEvent{Key: "w"}))

	require.Eventually(t, func() bool {
		p := s.Snapshot().Paddles
		return p[0].Y < start[0].Y && p[1].Y > start[1].Y
	}, 2*time.Second, 5*time.Millisecond)

	snap := s.Snapshot()
	assert.Equal(t, ConnEstablished, snap.Players[0].Conn)
	assert.Equal(t, ConnEstablished, snap.Players[1].Conn)
}

func TestSessionConnectRules(t *testing.T) {
	mgr, _ := newTestManager(t)
	s, err := mgr.CreateSession()
	require.NoError(t, err)

	assert.ErrorIs(t, s.Connect(3), ErrInvalidSeat)
	assert.Equal(t, StatusWaiting, s.GetStatus())

	require.NoError(t, mgr.StopSession(s.Token))
	assert.ErrorIs(t, s.Connect(0), ErrSessionClosed)
	assert.Equal(t, StatusCancelled, s.GetStatus())
}

func TestSessionDisconnect(t *testing.T) {
	mgr, _ := newTestManager(t)
	s, err := mgr.CreateSession()
	require.NoError(t, err)

	require.NoError(t, s.Connect(1))
	require.NoError(t, s.Connect(1))
	s.Disconnect(1)
	assert.Equal(t, [2]int{0, 1}, s.State().Connections)

	s.Disconnect(1)
	s.Disconnect(1)
	assert.Equal(t, [2]int{0, 0}, s.State().Connections)

	require.Eventually(t, func() bool {
		return s.Snapshot().Players[1].Conn == ConnNotConnected && s.Snapshot().Ball.X > 260
	}, 2*time.Second, 5*time.Millisecond)
}

func TestConnectSurvivesFullInputQueue(t *testing.T) {
	mgr, _ := newTestManagerWith(t, nil, nil, 2)
	s, err := mgr.CreateSession()
	require.NoError(t, err)

	// The loop is not running yet, so nothing drains these.
	assert.True(t, s.HandleKey(HostSeat, KeyEvent{Key: "w"}))
	assert.True(t, s.HandleKey(HostSeat, KeyEvent{Key: "w"}))
	assert.False(t, s.HandleKey(HostSeat, KeyEvent{Key: "w"}))

	require.NoError(t, s.Connect(0))
	require.Eventually(t, func() bool {
		return s.Snapshot().Players[0].Conn == ConnEstablished
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, ConnNotConnected, s.Snapshot().Players[1].Conn)

	for i := 0; i < 2; i++ {
		s.HandleKey(HostSeat, KeyEvent{Key: "s"})
	}
	s.Disconnect(0)
	require.Eventually(t, func() bool {
		return s.Snapshot().Players[0].Conn == ConnNotConnected
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStopSession(t *testing.T) {
	mgr, sink := newTestManager(t)
	s, err := mgr.CreateSession()
	require.NoError(t, err)
	require.NoError(t, s.Connect(0))

	require.NoError(t, mgr.StopSession(s.Token))

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("frame loop did not exit")
	}
	assert.Equal(t, StatusCancelled, s.GetStatus())
	assert.NotNil(t, s.State().StartedAt)
	assert.Equal(t, 0, mgr.ActiveCount())
	assert.Equal(t, []string{"session_started", "session_ended"}, sink.eventTypes(s.Token))

	frames := sink.frameCount(s.Token)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, frames, sink.frameCount(s.Token))

	assert.ErrorIs(t, mgr.StopSession(s.Token), ErrSessionNotFound)
}

func TestCheckExpiredSessions(t *testing.T) {
	mgr, sink := newTestManager(t)
	idle, err := mgr.CreateSession()
	require.NoError(t, err)
	fresh, err := mgr.CreateSession()
	require.NoError(t, err)

	now := time.Now()
	assert.Equal(t, 0, mgr.CheckExpiredSessions(now))

	// Push the clock past the idle timeout, then touch one session.
	later := idle.IdleSince().Add(2 * time.Minute)
	fresh.mu.Lock()
	fresh.LastActivity = later
	fresh.mu.Unlock()

	assert.Equal(t, 1, mgr.CheckExpiredSessions(later))
	assert.Equal(t, StatusCompleted, idle.GetStatus())
	assert.Equal(t, StatusWaiting, fresh.GetStatus())
	assert.Equal(t, 1, mgr.ActiveCount())
	assert.Equal(t, []string{"session_ended"}, sink.eventTypes(idle.Token))
}

func TestConnectedSessionNeverExpires(t *testing.T) {
	mgr, _ := newTestManager(t)
	s, err := mgr.CreateSession()
	require.NoError(t, err)
	require.NoError(t, s.Connect(1))

	later := s.IdleSince().Add(time.Hour)
	assert.Equal(t, 0, mgr.CheckExpiredSessions(later))
	assert.Equal(t, StatusInProgress, s.GetStatus())

	s.Disconnect(1)
	assert.Equal(t, 1, mgr.CheckExpiredSessions(later))
	assert.Equal(t, StatusCompleted, s.GetStatus())
}

func TestScoreEventsArePublished(t *testing.T) {
	mgr, sink := newTestManager(t)
	s, err := mgr.CreateSession()
	require.NoError(t, err)

	// Before the loop starts nothing else touches the simulation.
	s.sim.Ball.Update(3, 150)
	s.sim.Direction = NewVec2(-1, 1)
	require.NoError(t, s.Connect(0))

	require.Eventually(t, func() bool {
		for _, typ := range sink.eventTypes(s.Token) {
			if typ == "score" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	for _, ev := range sink.events {
		if ev.Type == "score" {
			assert.Equal(t, "left", ev.Side)
			assert.Equal(t, InitialScore-1, ev.Scores[0])
			assert.Equal(t, InitialScore, ev.Scores[1])
			break
		}
	}
}

func TestShutdownCancelsAll(t *testing.T) {
	mgr, _ := newTestManager(t)
	a, err := mgr.CreateSession()
	require.NoError(t, err)
	b, err := mgr.CreateSession()
	require.NoError(t, err)
	require.NoError(t, a.Connect(0))

	mgr.Shutdown()

	assert.Equal(t, 0, mgr.ActiveCount())
	assert.Equal(t, StatusCancelled, a.GetStatus())
	assert.Equal(t, StatusCancelled, b.GetStatus())
}

func TestRecentSessionsWithoutDatabase(t *testing.T) {
	mgr, _ := newTestManager(t)
	rows, err := mgr.RecentSessions(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestLookupRecordWithoutRedis(t *testing.T) {
	mgr, _ := newTestManager(t)
	_, err := mgr.LookupRecord(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
