package users

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/BharathKumarMurugan/cloud-drive/internal/common"
	"github.com/BharathKumarMurugan/cloud-drive/internal/logging"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/config"
	"github.com/BharathKumarMurugan/cloud-drive/internal/server/sessions"
)

// --- fakes ---

type fakeUsersRepo struct {
	byEmail   map[string]*User
	byAccount map[string]*User

	created   []*User
	createErr error
	getErr    error
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{
		byEmail:   map[string]*User{},
		byAccount: map[string]*User{},
	}
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *User) (*User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	u.ID = "id-" + u.AccountID
	f.byEmail[u.Email] = u
	f.byAccount[u.AccountID] = u
	f.created = append(f.created, u)
	return u, nil
}

func (f *fakeUsersRepo) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeUsersRepo) GetUserByAccountID(ctx context.Context, accountID string) (*User, error) {
	u, ok := f.byAccount[accountID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

type fakeIssuer struct {
	dispatchErr error
	verifyErr   error

	dispatched []string // emails, in order
	minted     int
}

func (f *fakeIssuer) Dispatch(ctx context.Context, email string, accountID string) (string, error) {
	if f.dispatchErr != nil {
		return "", f.dispatchErr
	}
	f.dispatched = append(f.dispatched, email)
	if accountID == "" {
		f.minted++
		return "minted-acc", nil
	}
	return accountID, nil
}

func (f *fakeIssuer) Verify(ctx context.Context, accountID string, code string) error {
	return f.verifyErr
}

type fakeSessionsRepo struct {
	rows map[string]*sessions.Session

	createErr error
	deleteErr error
	deleted   []string
}

func newFakeSessionsRepo() *fakeSessionsRepo {
	return &fakeSessionsRepo{rows: map[string]*sessions.Session{}}
}

func (f *fakeSessionsRepo) Create(ctx context.Context, accountID string, token string, validity time.Duration) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.rows[token] = &sessions.Session{Token: token, AccountID: accountID, Expires: time.Now().Add(validity)}
	return nil
}

func (f *fakeSessionsRepo) Find(ctx context.Context, token string) (*sessions.Session, error) {
	s, ok := f.rows[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return s, nil
}

func (f *fakeSessionsRepo) Delete(ctx context.Context, token string) error {
	f.deleted = append(f.deleted, token)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	delete(f.rows, token)
	return nil
}

func newTestService(repo Repository, sess sessions.Repository, issuer *fakeIssuer) *Service {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	cfg := &config.Config{
		SecretKey:               "k",
		SessionValidityDuration: time.Hour,
	}
	return NewService(repo, sess, issuer, logger, cfg)
}

// --- tests ---

func TestCreateAccount_NewUser(t *testing.T) {
	repo := newFakeUsersRepo()
	issuer := &fakeIssuer{}
	s := newTestService(repo, newFakeSessionsRepo(), issuer)

	accountID, err := s.CreateAccount(context.Background(), "Ada Lovelace", "ada@example.com")
	if err != nil {
		t.Fatalf("CreateAccount error: %v", err)
	}
	if accountID != "minted-acc" {
		t.Fatalf("want minted-acc, got %q", accountID)
	}
	if len(repo.created) != 1 {
		t.Fatalf("want 1 user created, got %d", len(repo.created))
	}
	u := repo.created[0]
	if u.Email != "ada@example.com" || u.FullName != "Ada Lovelace" || u.AvatarURL != DefaultAvatarURL {
		t.Fatalf("unexpected user record: %+v", u)
	}
}

func TestCreateAccount_ExistingUserIsIdempotent(t *testing.T) {
	repo := newFakeUsersRepo()
	issuer := &fakeIssuer{}
	s := newTestService(repo, newFakeSessionsRepo(), issuer)

	first, err := s.CreateAccount(context.Background(), "Ada Lovelace", "ada@example.com")
	if err != nil {
		t.Fatalf("first CreateAccount error: %v", err)
	}

	second, err := s.CreateAccount(context.Background(), "Ada Lovelace", "ada@example.com")
	if err != nil {
		t.Fatalf("second CreateAccount error: %v", err)
	}

	if first != second {
		t.Fatalf("accountID changed between attempts: %q vs %q", first, second)
	}
	if len(repo.created) != 1 {
		t.Fatalf("duplicate user record created: %d rows", len(repo.created))
	}
	// the existing-account branch still dispatches a fresh OTP
	if len(issuer.dispatched) != 2 {
		t.Fatalf("want 2 dispatches, got %d", len(issuer.dispatched))
	}
}

func TestCreateAccount_DispatchFailureCreatesNothing(t *testing.T) {
	repo := newFakeUsersRepo()
	issuer := &fakeIssuer{dispatchErr: common.ErrOtpDispatch}
	s := newTestService(repo, newFakeSessionsRepo(), issuer)

	_, err := s.CreateAccount(context.Background(), "Ada Lovelace", "ada@example.com")
	if !errors.Is(err, common.ErrOtpDispatch) {
		t.Fatalf("want ErrOtpDispatch, got %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("no user record may exist after a failed dispatch, got %d", len(repo.created))
	}
}

func TestSignIn_UnknownEmailIsNotFound(t *testing.T) {
	s := newTestService(newFakeUsersRepo(), newFakeSessionsRepo(), &fakeIssuer{})

	_, err := s.SignIn(context.Background(), "nobody@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestSignIn_ExistingUser(t *testing.T) {
	repo := newFakeUsersRepo()
	issuer := &fakeIssuer{}
	s := newTestService(repo, newFakeSessionsRepo(), issuer)

	created, err := s.CreateAccount(context.Background(), "Ada Lovelace", "ada@example.com")
	if err != nil {
		t.Fatalf("CreateAccount error: %v", err)
	}

	got, err := s.SignIn(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("SignIn error: %v", err)
	}
	if got != created {
		t.Fatalf("accountID mismatch: got %q want %q", got, created)
	}
	if len(issuer.dispatched) != 2 {
		t.Fatalf("sign-in must dispatch a fresh OTP")
	}
}

func TestResendOtp_NeverCreatesUser(t *testing.T) {
	repo := newFakeUsersRepo()
	issuer := &fakeIssuer{}
	s := newTestService(repo, newFakeSessionsRepo(), issuer)

	if err := s.ResendOtp(context.Background(), "new@example.com"); err != nil {
		t.Fatalf("ResendOtp error: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("resend must not create user records")
	}
	if len(issuer.dispatched) != 1 {
		t.Fatalf("want 1 dispatch, got %d", len(issuer.dispatched))
	}
}

func TestVerifyOtp_SuccessEstablishesResolvableSession(t *testing.T) {
	repo := newFakeUsersRepo()
	issuer := &fakeIssuer{}
	sess := newFakeSessionsRepo()
	s := newTestService(repo, sess, issuer)

	accountID, err := s.CreateAccount(context.Background(), "Ada Lovelace", "ada@example.com")
	if err != nil {
		t.Fatalf("CreateAccount error: %v", err)
	}

	secret, err := s.VerifyOtp(context.Background(), accountID, "123456")
	if err != nil {
		t.Fatalf("VerifyOtp error: %v", err)
	}
	if secret == "" {
		t.Fatalf("expected session secret")
	}

	user, err := s.ResolveCurrentUser(context.Background(), secret)
	if err != nil {
		t.Fatalf("ResolveCurrentUser error: %v", err)
	}
	if user == nil || user.Email != "ada@example.com" {
		t.Fatalf("expected resolved user, got %+v", user)
	}
}

func TestVerifyOtp_WrongCodeLeavesNoSession(t *testing.T) {
	repo := newFakeUsersRepo()
	issuer := &fakeIssuer{verifyErr: common.ErrInvalidOtp}
	sess := newFakeSessionsRepo()
	s := newTestService(repo, sess, issuer)

	_, err := s.VerifyOtp(context.Background(), "acc-1", "000000")
	if !errors.Is(err, common.ErrInvalidOtp) {
		t.Fatalf("want ErrInvalidOtp, got %v", err)
	}
	if len(sess.rows) != 0 {
		t.Fatalf("no session may exist after a failed verification")
	}
}

func TestResolveCurrentUser_Unauthenticated(t *testing.T) {
	s := newTestService(newFakeUsersRepo(), newFakeSessionsRepo(), &fakeIssuer{})

	for _, secret := range []string{"", "garbage-token"} {
		user, err := s.ResolveCurrentUser(context.Background(), secret)
		if err != nil {
			t.Fatalf("ResolveCurrentUser(%q) error: %v", secret, err)
		}
		if user != nil {
			t.Fatalf("ResolveCurrentUser(%q) must be nil for unauthenticated callers", secret)
		}
	}
}

func TestResolveCurrentUser_RevokedSession(t *testing.T) {
	repo := newFakeUsersRepo()
	sess := newFakeSessionsRepo()
	s := newTestService(repo, sess, &fakeIssuer{})

	accountID, _ := s.CreateAccount(context.Background(), "Ada Lovelace", "ada@example.com")
	secret, err := s.VerifyOtp(context.Background(), accountID, "123456")
	if err != nil {
		t.Fatalf("VerifyOtp error: %v", err)
	}

	if err := s.SignOut(context.Background(), secret); err != nil {
		t.Fatalf("SignOut error: %v", err)
	}

	user, err := s.ResolveCurrentUser(context.Background(), secret)
	if err != nil {
		t.Fatalf("ResolveCurrentUser error: %v", err)
	}
	if user != nil {
		t.Fatalf("revoked session must not resolve, got %+v", user)
	}
}

func TestSignOut_SuppressesStoreFailure(t *testing.T) {
	sess := newFakeSessionsRepo()
	sess.deleteErr = errors.New("provider unreachable")
	s := newTestService(newFakeUsersRepo(), sess, &fakeIssuer{})

	if err := s.SignOut(context.Background(), "some-secret"); err != nil {
		t.Fatalf("SignOut must suppress store failures, got %v", err)
	}
	if len(sess.deleted) != 1 {
		t.Fatalf("deletion must still be attempted")
	}
}
