package game

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EventsChannel is the Redis pub/sub channel carrying SessionEvents.
const EventsChannel = "pong_events"

const sessionKeyPrefix = "pong:session:"

// ManagerConfig holds what every new session is built from.
type ManagerConfig struct {
	Court       Constraints
	Options     Options
	FrameRate   int
	QueueSize   int
	IdleTimeout time.Duration
	Logger      *zap.Logger
}

// SessionRecord is the registry entry stored in Redis for a live session.
type SessionRecord struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	Court     Constraints `json:"court"`
	Status    GameStatus  `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// SessionManager owns all live sessions of this process.
type SessionManager struct {
	sessions map[string]*Session // keyed by token
	rdb      *redis.Client
	db       *sqlx.DB
	cfg      ManagerConfig
	sink     FrameSink
	log      *zap.Logger
	ctx      context.Context
	mu       sync.RWMutex
}

// NewSessionManager creates a manager. db and rdb may be nil. Session loops
// are bound to ctx.
func NewSessionManager(ctx context.Context, db *sqlx.DB, rdb *redis.Client, cfg ManagerConfig) *SessionManager {
	l := cfg.Logger
	if l == nil {
		l = zap.NewNop()
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 10 * time.Minute
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		rdb:      rdb,
		db:       db,
		cfg:      cfg,
		log:      l.Named("session"),
		ctx:      ctx,
	}
}

// SetSink sets where frames and (without Redis) events are delivered.
func (m *SessionManager) SetSink(sink FrameSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
}

func generateToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// CreateSession builds a simulation for the configured court and registers a
// waiting session. The frame loop starts when the first client connects.
func (m *SessionManager) CreateSession() (*Session, error) {
	sim, err := NewWithOptions(m.cfg.Court, m.cfg.Options)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	token := generateToken()
	for _, exists := m.sessions[token]; exists; _, exists = m.sessions[token] {
		token = generateToken()
	}
	s, err := newSession(m.ctx, uuid.NewString(), token, sim, m.cfg.FrameRate, m.cfg.QueueSize, m.sink, m.handleEvent, m.log)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.sessions[token] = s
	m.mu.Unlock()

	m.log.Info("session created", zap.String("id", s.ID), zap.String("token", token))

	m.saveSessionToRedis(s)
	m.recordSessionCreated(s)
	return s, nil
}

// GetSession returns a live session by token.
func (m *SessionManager) GetSession(token string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// LookupRecord returns the Redis registry entry for a token, which may belong
// to another instance.
func (m *SessionManager) LookupRecord(ctx context.Context, token string) (*SessionRecord, error) {
	if m.rdb == nil {
		return nil, ErrSessionNotFound
	}
	data, err := m.rdb.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec SessionRecord
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// StopSession ends a session and forgets it.
func (m *SessionManager) StopSession(token string) error {
	return m.endSession(token, StatusCancelled)
}

func (m *SessionManager) endSession(token string, status GameStatus) error {
	m.mu.Lock()
	s, ok := m.sessions[token]
	if ok {
		delete(m.sessions, token)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	if s.stop(status) {
		m.recordSessionEnded(s, status)
	}
	m.removeSessionFromRedis(token)
	return nil
}

func (m *SessionManager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown stops every live session.
func (m *SessionManager) Shutdown() {
	m.mu.RLock()
	tokens := make([]string, 0, len(m.sessions))
	for t := range m.sessions {
		tokens = append(tokens, t)
	}
	m.mu.RUnlock()

	for _, t := range tokens {
		m.endSession(t, StatusCancelled)
	}
}

// StartExpiryChecker periodically cancels idle sessions until ctx is done.
func (m *SessionManager) StartExpiryChecker(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		m.log.Info("expiry checker started", zap.Duration("interval", interval), zap.Duration("idle_timeout", m.cfg.IdleTimeout))

		for {
			select {
			case <-ctx.Done():
				m.log.Info("expiry checker stopping")
				return
			case <-ticker.C:
				m.CheckExpiredSessions(time.Now())
			}
		}
	}()
}

// CheckExpiredSessions completes sessions with no connected client and no
// activity for longer than the idle timeout, and refreshes the registry TTL of
// the rest. It returns how many were completed.
func (m *SessionManager) CheckExpiredSessions(now time.Time) int {
	m.mu.RLock()
	var expired, alive []*Session
	for _, s := range m.sessions {
		if !s.Connected() && now.Sub(s.IdleSince()) > m.cfg.IdleTimeout {
			expired = append(expired, s)
		} else {
			alive = append(alive, s)
		}
	}
	m.mu.RUnlock()

	for _, s := range expired {
		m.log.Info("closing idle session", zap.String("token", s.Token), zap.Time("idle_since", s.IdleSince()))
		m.endSession(s.Token, StatusCompleted)
	}
	for _, s := range alive {
		m.touchSessionInRedis(s)
	}
	return len(expired)
}

// handleEvent is called by sessions for every SessionEvent.
func (m *SessionManager) handleEvent(ev SessionEvent) {
	if ev.Type == "session_started" {
		if s, err := m.GetSession(ev.Token); err == nil {
			m.recordSessionStarted(s)
			m.saveSessionToRedis(s)
		}
	}
	m.PublishEvent(ev)
}

// PublishEvent fans an event out through Redis when configured, otherwise
// straight to the sink.
func (m *SessionManager) PublishEvent(ev SessionEvent) {
	if m.rdb != nil {
		b, err := json.Marshal(ev)
		if err != nil {
			m.log.Error("marshal event failed", zap.Error(err))
			return
		}
		if err := m.rdb.Publish(m.ctx, EventsChannel, b).Err(); err != nil {
			m.log.Warn("publish event failed", zap.String("type", ev.Type), zap.String("token", ev.Token), zap.Error(err))
		}
		return
	}

	m.mu.RLock()
	sink := m.sink
	m.mu.RUnlock()
	if sink != nil {
		sink.PublishEvent(ev)
	}
}

func (m *SessionManager) registryTTL() time.Duration {
	return 2 * m.cfg.IdleTimeout
}

func (m *SessionManager) saveSessionToRedis(s *Session) {
	if m.rdb == nil {
		return
	}
	st := s.State()
	rec := SessionRecord{ID: st.ID, Token: st.Token, Court: s.Court, Status: st.Status, CreatedAt: st.CreatedAt}
	data, err := json.Marshal(rec)
	if err != nil {
		m.log.Error("marshal session record failed", zap.Error(err))
		return
	}
	if err := m.rdb.SetEx(m.ctx, sessionKeyPrefix+s.Token, data, m.registryTTL()).Err(); err != nil {
		m.log.Warn("save session to redis failed", zap.String("token", s.Token), zap.Error(err))
	}
}

func (m *SessionManager) touchSessionInRedis(s *Session) {
	if m.rdb == nil {
		return
	}
	if err := m.rdb.Expire(m.ctx, sessionKeyPrefix+s.Token, m.registryTTL()).Err(); err != nil {
		m.log.Warn("refresh session ttl failed", zap.String("token", s.Token), zap.Error(err))
	}
}

func (m *SessionManager) removeSessionFromRedis(token string) {
	if m.rdb == nil {
		return
	}
	if err := m.rdb.Del(m.ctx, sessionKeyPrefix+token).Err(); err != nil {
		m.log.Warn("remove session from redis failed", zap.String("token", token), zap.Error(err))
	}
}
