package game

import (
	"context"
	"fmt"
	"time"

	"github.com/playmatatu/arcade/internal/models"
	"go.uber.org/zap"
)

// Session records live in Postgres when a database is configured. Every
// method here is a no-op without one.

func (m *SessionManager) recordSessionCreated(s *Session) {
	if m.db == nil {
		return
	}
	_, err := m.db.Exec(`
		INSERT INTO pong_sessions (id, token, status, court_width, court_height, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.Token, string(StatusWaiting), s.Court.Width(), s.Court.Height(), s.CreatedAt)
	if err != nil {
		m.log.Error("insert session record failed", zap.String("token", s.Token), zap.Error(err))
	}
}

func (m *SessionManager) recordSessionStarted(s *Session) {
	if m.db == nil {
		return
	}
	st := s.State()
	if st.StartedAt == nil {
		return
	}
	_, err := m.db.Exec(`UPDATE pong_sessions SET status = $1, started_at = $2 WHERE id = $3`,
		string(StatusInProgress), *st.StartedAt, s.ID)
	if err != nil {
		m.log.Error("mark session started failed", zap.String("token", s.Token), zap.Error(err))
	}
}

func (m *SessionManager) recordSessionEnded(s *Session, status GameStatus) {
	if m.db == nil {
		return
	}
	_, err := m.db.Exec(`UPDATE pong_sessions SET status = $1, completed_at = $2 WHERE id = $3`,
		string(status), time.Now(), s.ID)
	if err != nil {
		m.log.Error("mark session ended failed", zap.String("token", s.Token), zap.Error(err))
	}
}

// RecentSessions lists the newest session records.
func (m *SessionManager) RecentSessions(ctx context.Context, limit int) ([]models.PongSession, error) {
	if m.db == nil {
		return []models.PongSession{}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var rows []models.PongSession
	err := m.db.SelectContext(ctx, &rows, `
		SELECT id, token, status, court_width, court_height, created_at, started_at, completed_at
		FROM pong_sessions
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return rows, nil
}
