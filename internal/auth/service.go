package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/aegis-admin/aegis-admin/internal/observability"
	"github.com/aegis-admin/aegis-admin/internal/session"
	"github.com/aegis-admin/aegis-admin/internal/shared"
)

// MailEnqueuer submits transactional mail to the background queue.
type MailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, to, subject, body string) error
}

// Service implements credential verification and the account lifecycle
// around the session manager.
type Service struct {
	repo       Repository
	sessions   *session.Service
	minter     session.AccessTokenMinter
	mailer     MailEnqueuer
	bcryptCost int
	resetTTL   time.Duration
	logger     *slog.Logger
	metrics    *observability.Metrics
	audit      *shared.AuditLogger
	now        func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, sessions *session.Service, minter session.AccessTokenMinter, mailer MailEnqueuer, bcryptCost int, resetTTL time.Duration, logger *slog.Logger, metrics *observability.Metrics, audit *shared.AuditLogger) *Service {
	return &Service{
		repo:       repo,
		sessions:   sessions,
		minter:     minter,
		mailer:     mailer,
		bcryptCost: bcryptCost,
		resetTTL:   resetTTL,
		logger:     logger,
		metrics:    metrics,
		audit:      audit,
		now:        time.Now,
	}
}

// Register creates a new account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, email, name, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, fmt.Errorf("%w: email and password are required", shared.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return User{}, err
	}
	user := User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return User{}, err
	}
	created, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return User{}, err
	}
	s.record(ctx, created.ID, "auth.register", created.ID, map[string]any{"email": email})
	return created, nil
}

// Login verifies credentials and opens a session. Every failure mode
// collapses into ErrAuthentication so responses leak nothing about which
// part was wrong.
func (s *Service) Login(ctx context.Context, email, password string, device session.Device) (session.TokenPair, error) {
	email = normalizeEmail(email)
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.recordLogin("failure")
			return session.TokenPair{}, shared.ErrAuthentication
		}
		return session.TokenPair{}, err
	}
	if !user.IsActive {
		s.recordLogin("failure")
		return session.TokenPair{}, shared.ErrAuthentication
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordLogin("failure")
		return session.TokenPair{}, shared.ErrAuthentication
	}

	sess, refreshToken, err := s.sessions.Create(ctx, user.ID, device)
	if err != nil {
		return session.TokenPair{}, err
	}
	accessToken, err := s.minter.Mint(user.ID, sess.ID)
	if err != nil {
		return session.TokenPair{}, err
	}

	s.recordLogin("success")
	s.record(ctx, user.ID, "auth.login", sess.ID, map[string]any{"ip": device.IP})
	return session.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		SessionID:    sess.ID,
		UserID:       user.ID,
	}, nil
}

// Refresh redeems a refresh token for a rotated pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string, device session.Device) (session.TokenPair, error) {
	return s.sessions.Refresh(ctx, refreshToken, device)
}

// Logout terminates the caller's session.
func (s *Service) Logout(ctx context.Context, identity shared.Identity) error {
	if err := s.sessions.Deactivate(ctx, identity.SessionID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	s.record(ctx, identity.UserID, "auth.logout", identity.SessionID, nil)
	return nil
}

// LogoutAll terminates every session of the caller.
func (s *Service) LogoutAll(ctx context.Context, identity shared.Identity) error {
	if err := s.sessions.DeactivateAllForUser(ctx, identity.UserID); err != nil {
		return err
	}
	s.record(ctx, identity.UserID, "auth.logout_all", identity.UserID, nil)
	return nil
}

// RequestPasswordReset issues a single-use reset token and mails it out.
// Unknown emails are swallowed so the endpoint cannot be used to probe for
// accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			if s.logger != nil {
				s.logger.Info("password reset requested for unknown email")
			}
			return nil
		}
		return err
	}

	raw, hash, err := newResetToken()
	if err != nil {
		return err
	}
	token := ResetToken{
		TokenHash: hash,
		UserID:    user.ID,
		ExpiresAt: s.now().UTC().Add(s.resetTTL),
	}
	if err := s.repo.CreateResetToken(ctx, token); err != nil {
		return err
	}

	if s.mailer != nil {
		body := fmt.Sprintf("Use the following code to reset your password: %s\nIt expires in %s.", raw, s.resetTTL)
		if err := s.mailer.EnqueueSendEmail(ctx, user.Email, "Password reset", body); err != nil {
			if s.logger != nil {
				s.logger.Error("enqueue reset mail", slog.Any("error", err))
			}
			return err
		}
	}
	s.record(ctx, user.ID, "auth.reset_requested", user.ID, nil)
	return nil
}

// CompletePasswordReset consumes a reset token, rewrites the password and
// revokes every live session of the account.
func (s *Service) CompletePasswordReset(ctx context.Context, rawToken, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", shared.ErrValidation)
	}
	sum := sha256.Sum256([]byte(rawToken))
	token, err := s.repo.ConsumeResetToken(ctx, hex.EncodeToString(sum[:]), s.now())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset token", shared.ErrAuthentication)
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, token.UserID, string(hash)); err != nil {
		return err
	}
	if err := s.sessions.DeactivateAllForUser(ctx, token.UserID); err != nil {
		return err
	}
	s.record(ctx, token.UserID, "auth.reset_completed", token.UserID, nil)
	return nil
}

// PurgeResetTokens removes expired reset tokens.
func (s *Service) PurgeResetTokens(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredResetTokens(ctx, s.now().UTC())
}

func (s *Service) recordLogin(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(outcome)
	}
}

func (s *Service) record(ctx context.Context, actorID, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "auth",
		EntityID: entityID,
		Meta:     meta,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func newResetToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(buf)
	sum := sha256.Sum256([]byte(raw))
	return raw, hex.EncodeToString(sum[:]), nil
}
