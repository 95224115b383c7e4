package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BharathKumarMurugan/cloud-drive/internal/common"
	"github.com/BharathKumarMurugan/cloud-drive/internal/logging"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/auth"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/config"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/otp"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/sessions"
)

// Service drives the authentication flow: email in, OTP out, session secret
// at the end. It owns no state beyond the repositories it is handed.
type Service struct {
	repo            Repository
	sessionRepo     sessions.Repository
	issuer          otp.Issuer
	logger          logging.Logger
	jwtSecret       []byte
	sessionValidity time.Duration
}

func NewService(repo Repository, sessionRepo sessions.Repository, issuer otp.Issuer, logger logging.Logger, cfg *config.Config) *Service {
	return &Service{
		repo:            repo,
		sessionRepo:     sessionRepo,
		issuer:          issuer,
		logger:          logger.With("module", "users_service"),
		jwtSecret:       []byte(cfg.SecretKey),
		sessionValidity: cfg.SessionValidityDuration,
	}
}

// CreateAccount starts a sign-up attempt. An OTP is dispatched whether or not
// the email already has an account; a user record is created only when one
// does not exist yet, so repeated calls with the same email never produce
// duplicates. When the dispatch fails, nothing is created.
func (s *Service) CreateAccount(ctx context.Context, fullName, email string) (string, error) {

	existing, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	hint := ""
	if existing != nil {
		hint = existing.AccountID
	}

	accountID, err := s.issuer.Dispatch(ctx, email, hint)
	if err != nil {
		return "", err
	}

	if existing == nil {
		user := &User{
			AccountID: accountID,
			Email:     email,
			FullName:  fullName,
			AvatarURL: DefaultAvatarURL,
		}
		if _, err := s.repo.Create(ctx, user); err != nil {
			return "", fmt.Errorf("%w: %v", common.ErrStoreWrite, err)
		}
	}

	return accountID, nil
}

// SignIn starts a sign-in attempt for an existing account. An unknown email
// yields common.ErrorNotFound so the caller can redirect to sign-up; it is a
// normal result, not a failure.
func (s *Service) SignIn(ctx context.Context, email string) (string, error) {

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("%w: %v", common.ErrStoreRead, err)
	}

	if _, err := s.issuer.Dispatch(ctx, email, user.AccountID); err != nil {
		return "", err
	}

	return user.AccountID, nil
}

// ResendOtp re-dispatches a code for an in-progress attempt. It never creates
// a user record.
func (s *Service) ResendOtp(ctx context.Context, email string) error {

	existing, err := s.lookupByEmail(ctx, email)
	if err != nil {
		return err
	}

	hint := ""
	if existing != nil {
		hint = existing.AccountID
	}

	_, err = s.issuer.Dispatch(ctx, email, hint)
	return err
}

// VerifyOtp submits the code and, on success, establishes a session bound to
// the account and returns the opaque session secret. A failed verification
// leaves no session behind.
func (s *Service) VerifyOtp(ctx context.Context, accountID, code string) (string, error) {

	if err := s.issuer.Verify(ctx, accountID, code); err != nil {
		return "", err
	}

	secret, err := auth.GenerateToken(accountID, s.jwtSecret, s.sessionValidity)
	if err != nil {
		return "", common.ErrorInternal
	}

	if err := s.sessionRepo.Create(ctx, accountID, secret, s.sessionValidity); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrStoreWrite, err)
	}

	return secret, nil
}

// ResolveCurrentUser maps a session secret to the signed-in user. A nil user
// with a nil error means "unauthenticated": bad or expired token, revoked
// session, or no matching user record. Callers must redirect, not fail.
func (s *Service) ResolveCurrentUser(ctx context.Context, secret string) (*User, error) {

	if secret == "" {
		return nil, nil
	}

	accountID, err := auth.GetAccountIDFromToken(secret, s.jwtSecret)
	if err != nil {
		return nil, nil
	}

	sess, err := s.sessionRepo.Find(ctx, secret)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStoreRead, err)
	}

	if time.Now().After(sess.Expires) {
		return nil, nil
	}

	user, err := s.repo.GetUserByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStoreRead, err)
	}

	return user, nil
}

// SignOut revokes the session. Store failures are logged and suppressed: the
// user-facing contract is that sign-out always succeeds locally.
func (s *Service) SignOut(ctx context.Context, secret string) error {

	if err := s.sessionRepo.Delete(ctx, secret); err != nil {
		s.logger.Warn(ctx, "session deletion failed, signing out locally anyway", "error", err.Error())
	}

	return nil
}

func (s *Service) lookupByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStoreRead, err)
	}
	return user, nil
}
