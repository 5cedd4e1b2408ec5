package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/psychodraw/internal/models"
	appErrors "github.com/noah-isme/psychodraw/pkg/errors"
	"github.com/noah-isme/psychodraw/pkg/jobs"
	"github.com/noah-isme/psychodraw/pkg/storage"
)

// TeardownJobType is the job type used to close idle sessions.
const TeardownJobType = "session.teardown"

// WizardFactory builds the wizard owned by a new session.
type WizardFactory func(sessionID string) *Wizard

type sessionMetrics interface {
	SessionOpened()
	SessionClosed()
}

type teardownQueue interface {
	Enqueue(job jobs.Job) error
}

type previewTokenParser interface {
	Parse(token string) (blobID, sessionID string, expiresAt time.Time, err error)
}

type previewBlobOpener interface {
	Open(id string) (io.ReadSeeker, storage.Blob, error)
}

// SessionServiceConfig configures token signing and idle expiry.
type SessionServiceConfig struct {
	Secret string
	TTL    time.Duration
	MaxAge time.Duration
	Issuer string
}

// Session is one browser session's ownership scope for a wizard. All wizard access goes
// through Do, which serialises events.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu       sync.Mutex
	wizard   *Wizard
	lastSeen atomic.Int64
}

// Do runs fn with exclusive access to the wizard.
func (s *Session) Do(fn func(w *Wizard) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wizard.Closed() {
		return appErrors.ErrSessionClosed
	}
	return fn(s.wizard)
}

// LastSeen returns the time of the last resolved request.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

// PreviewContent is a preview blob ready to be served.
type PreviewContent struct {
	Reader      io.ReadSeeker
	ContentType string
	ModTime     time.Time
	SessionID   string
}

// SessionService is the registry of live wizard sessions.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	factory WizardFactory
	signer  previewTokenParser
	blobs   previewBlobOpener
	queue   teardownQueue
	metrics sessionMetrics
	cfg     SessionServiceConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewSessionService constructs the registry.
func NewSessionService(factory WizardFactory, signer previewTokenParser, blobs previewBlobOpener, metrics sessionMetrics, logger *zap.Logger, cfg SessionServiceConfig) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Hour
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "psychodraw"
	}
	return &SessionService{
		sessions: make(map[string]*Session),
		factory:  factory,
		signer:   signer,
		blobs:    blobs,
		metrics:  metrics,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// UseQueue routes idle-session teardown through queue instead of closing inline.
func (s *SessionService) UseQueue(queue teardownQueue) {
	s.queue = queue
}

// Start opens a new session with a fresh wizard and returns its signed token.
func (s *SessionService) Start(ctx context.Context) (*Session, string, time.Time, error) {
	now := s.now()
	id := uuid.NewString()
	token, expiresAt, err := s.issueToken(id, now)
	if err != nil {
		return nil, "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue session token")
	}

	session := &Session{ID: id, CreatedAt: now.UTC(), wizard: s.factory(id)}
	session.touch(now)

	s.mu.Lock()
	s.sessions[id] = session
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionOpened()
	}
	s.logger.Info("wizard session started", zap.String("session_id", id))
	return session, token, expiresAt, nil
}

// Resolve validates token and returns its live session.
func (s *SessionService) Resolve(token string) (*Session, error) {
	id, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}
	session, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if session.LastSeen().Before(now.Add(-s.cfg.TTL)) {
		return nil, appErrors.Clone(appErrors.ErrSessionNotFound, "wizard session expired")
	}
	session.touch(now)
	return session, nil
}

// ParseToken verifies a session token and returns the session id it names.
func (s *SessionService) ParseToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	}, jwt.WithIssuer(s.cfg.Issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrSessionNotFound.Code, appErrors.ErrSessionNotFound.Status, "invalid session token")
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || !token.Valid || claims.Kind != models.SessionTokenKind || claims.SessionID == "" {
		return "", appErrors.Clone(appErrors.ErrSessionNotFound, "invalid session token claims")
	}
	return claims.SessionID, nil
}

// End closes the session and releases its previews. Ending an unknown session reports
// ErrSessionNotFound.
func (s *SessionService) End(id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()
	if !ok {
		return appErrors.ErrSessionNotFound
	}

	session.mu.Lock()
	released := session.wizard.Close()
	session.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionClosed()
	}
	s.logger.Info("wizard session ended", zap.String("session_id", id), zap.Int("previews_released", len(released)))
	return nil
}

// Count returns the number of live sessions.
func (s *SessionService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Idle lists sessions not seen for longer than the idle TTL.
func (s *SessionService) Idle() []string {
	cutoff := s.now().Add(-s.cfg.TTL)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for id, session := range s.sessions {
		if session.LastSeen().Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Sweep tears down idle sessions, through the queue when one is attached. It returns how
// many sessions were scheduled.
func (s *SessionService) Sweep(ctx context.Context) int {
	scheduled := 0
	for _, id := range s.Idle() {
		if ctx.Err() != nil {
			break
		}
		if s.queue == nil {
			if err := s.End(id); err == nil {
				scheduled++
			}
			continue
		}
		err := s.queue.Enqueue(jobs.Job{ID: id, Type: TeardownJobType, Payload: id})
		switch {
		case err == nil:
			scheduled++
		case errors.Is(err, jobs.ErrDuplicate):
		default:
			s.logger.Warn("failed to enqueue session teardown", zap.String("session_id", id), zap.Error(err))
		}
	}
	return scheduled
}

// HandleTeardown is the jobs.Handler for TeardownJobType. Sessions that became active again
// or are already gone are skipped.
func (s *SessionService) HandleTeardown(ctx context.Context, job jobs.Job) error {
	id, ok := job.Payload.(string)
	if !ok || id == "" {
		return fmt.Errorf("teardown job %s: invalid payload", job.ID)
	}
	session, err := s.lookup(id)
	if err != nil {
		return nil
	}
	if !session.LastSeen().Before(s.now().Add(-s.cfg.TTL)) {
		return nil
	}
	if err := s.End(id); err != nil && !errors.Is(err, appErrors.ErrSessionNotFound) {
		return err
	}
	return nil
}

// RunJanitor sweeps idle sessions every interval until ctx is done.
func (s *SessionService) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(ctx); n > 0 {
				s.logger.Info("idle sessions scheduled for teardown", zap.Int("count", n))
			}
		}
	}
}

// Shutdown ends every live session.
func (s *SessionService) Shutdown() {
	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	for _, id := range ids {
		_ = s.End(id)
	}
}

// OpenPreview resolves a preview token to its bytes. The handle must still be live in the
// session that owns it.
func (s *SessionService) OpenPreview(token string) (*PreviewContent, error) {
	blobID, sessionID, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPreviewNotFound.Code, appErrors.ErrPreviewNotFound.Status, appErrors.ErrPreviewNotFound.Message)
	}
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, appErrors.ErrPreviewNotFound
	}

	var content *PreviewContent
	err = session.Do(func(w *Wizard) error {
		if !w.HasPreview(blobID) {
			return appErrors.ErrPreviewNotFound
		}
		reader, blob, err := s.blobs.Open(blobID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrPreviewNotFound.Code, appErrors.ErrPreviewNotFound.Status, appErrors.ErrPreviewNotFound.Message)
		}
		content = &PreviewContent{Reader: reader, ContentType: blob.ContentType, ModTime: blob.CreatedAt, SessionID: sessionID}
		return nil
	})
	if err != nil {
		if errors.Is(err, appErrors.ErrSessionClosed) {
			return nil, appErrors.ErrPreviewNotFound
		}
		return nil, err
	}
	return content, nil
}

func (s *SessionService) lookup(id string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, appErrors.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionService) issueToken(id string, issuedAt time.Time) (string, time.Time, error) {
	if s.cfg.Secret == "" {
		return "", time.Time{}, fmt.Errorf("session secret missing")
	}
	expiresAt := issuedAt.Add(s.cfg.MaxAge)
	claims := &models.SessionClaims{
		SessionID: id,
		Kind:      models.SessionTokenKind,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   id,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
