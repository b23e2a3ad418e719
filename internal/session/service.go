package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aegis-admin/aegis-admin/internal/observability"
	"github.com/aegis-admin/aegis-admin/internal/shared"
)

// AccessTokenMinter issues access tokens bound to a user/session pair.
// Satisfied by the tokens manager.
type AccessTokenMinter interface {
	Mint(userID, sessionID string) (string, error)
}

// Service owns the refresh-token lifecycle: issue, rotate, revoke. The
// rotation path enforces at most one successful redemption per token via the
// repository's find-and-lock.
type Service struct {
	repo       Repository
	minter     AccessTokenMinter
	refreshTTL time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
	audit      *shared.AuditLogger
	now        func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, minter AccessTokenMinter, refreshTTL time.Duration, logger *slog.Logger, metrics *observability.Metrics, audit *shared.AuditLogger) *Service {
	return &Service{
		repo:       repo,
		minter:     minter,
		refreshTTL: refreshTTL,
		logger:     logger,
		metrics:    metrics,
		audit:      audit,
		now:        time.Now,
	}
}

// Create issues a new session for a freshly authenticated user and returns
// the raw refresh token exactly once.
func (s *Service) Create(ctx context.Context, userID string, device Device) (Session, string, error) {
	rawToken, tokenHash, err := newRefreshToken()
	if err != nil {
		return Session{}, "", err
	}
	sess := Session{
		ID:               uuid.NewString(),
		UserID:           userID,
		RefreshTokenHash: tokenHash,
		Device:           device,
		ExpiresAt:        s.now().UTC().Add(s.refreshTTL),
		IsActive:         true,
	}
	if err := s.repo.Create(ctx, sess); err != nil {
		return Session{}, "", err
	}
	s.record(ctx, userID, "session.create", sess.ID, map[string]any{"ip": device.IP})
	return sess, rawToken, nil
}

// Refresh redeems a raw refresh token for a fresh access/refresh pair,
// rotating the stored hash so the presented token can never be redeemed
// again. Replay of an already-rotated token kills the whole session: the
// legitimate holder re-authenticates, the attacker gets nothing.
func (s *Service) Refresh(ctx context.Context, rawToken string, device Device) (TokenPair, error) {
	tokenHash := hashToken(rawToken)
	lockToken := uuid.NewString()

	sess, err := s.repo.FindAndLock(ctx, tokenHash, lockToken)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return TokenPair{}, s.rejectUnmatched(ctx, tokenHash)
		}
		return TokenPair{}, err
	}

	if sess.Expired(s.now()) {
		// Lazily retire sessions the purge job has not reached yet.
		if derr := s.repo.Deactivate(ctx, sess.ID); derr != nil && s.logger != nil {
			s.logger.Warn("deactivate expired session", slog.String("session_id", sess.ID), slog.Any("error", derr))
		}
		s.unlock(ctx, sess.ID, lockToken)
		s.recordRefresh("rejected")
		return TokenPair{}, fmt.Errorf("%w: refresh token expired", shared.ErrAuthentication)
	}

	accessToken, err := s.minter.Mint(sess.UserID, sess.ID)
	if err != nil {
		s.unlock(ctx, sess.ID, lockToken)
		return TokenPair{}, err
	}

	newRaw, newHash, err := newRefreshToken()
	if err != nil {
		s.unlock(ctx, sess.ID, lockToken)
		return TokenPair{}, err
	}

	expiresAt := s.now().UTC().Add(s.refreshTTL)
	if err := s.repo.Rotate(ctx, sess.ID, lockToken, newHash, tokenHash, expiresAt); err != nil {
		return TokenPair{}, err
	}

	s.recordRefresh("rotated")
	s.record(ctx, sess.UserID, "session.rotate", sess.ID, nil)
	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: newRaw,
		SessionID:    sess.ID,
		UserID:       sess.UserID,
	}, nil
}

// Deactivate terminates a session (logout), independent of any rotation
// lock currently held.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.repo.Deactivate(ctx, id)
}

// DeactivateAllForUser terminates every session of a user, used when a
// password is reset or an account is considered compromised.
func (s *Service) DeactivateAllForUser(ctx context.Context, userID string) error {
	return s.repo.DeactivateAllForUser(ctx, userID)
}

// Validate returns the session only while it is active and unexpired. The
// authorization gate calls this on every request so a killed session takes
// effect before the access token's own TTL runs out.
func (s *Service) Validate(ctx context.Context, id string) (Session, error) {
	sess, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Session{}, shared.ErrAuthentication
		}
		return Session{}, err
	}
	if !sess.IsActive || sess.Expired(s.now()) {
		return Session{}, shared.ErrAuthentication
	}
	return sess, nil
}

// PurgeExpired deletes sessions whose refresh window has passed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now().UTC())
}

// rejectUnmatched handles a presented hash that matched no redeemable
// session: either the token is garbage, the session is gone, a concurrent
// redemption holds the lock, or this is a replay of a rotated token. The
// replay case deactivates the session entirely.
func (s *Service) rejectUnmatched(ctx context.Context, tokenHash string) error {
	compromised, err := s.repo.DeactivateByPreviousHash(ctx, tokenHash)
	if err == nil {
		s.recordRefresh("replayed")
		if s.logger != nil {
			s.logger.Warn("refresh token replay detected, session revoked",
				slog.String("session_id", compromised.ID),
				slog.String("user_id", compromised.UserID))
		}
		s.record(ctx, compromised.UserID, "session.replay_revoked", compromised.ID, nil)
		return fmt.Errorf("%w: refresh token reuse detected", shared.ErrAuthentication)
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	s.recordRefresh("rejected")
	return fmt.Errorf("%w: invalid or expired refresh token", shared.ErrAuthentication)
}

func (s *Service) unlock(ctx context.Context, id, lockToken string) {
	if err := s.repo.ReleaseLock(ctx, id, lockToken); err != nil && s.logger != nil {
		s.logger.Warn("release rotation lock", slog.String("session_id", id), slog.Any("error", err))
	}
}

func (s *Service) recordRefresh(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordRefresh(outcome)
	}
}

func (s *Service) record(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "session",
		EntityID: entityID,
		Meta:     meta,
	})
}

func newRefreshToken() (raw, hash string, err error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	return raw, hashToken(raw), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
