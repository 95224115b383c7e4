package otp

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/BharathKumarMurugan/cloud-drive/internal/common"
)

type fakeMailer struct {
	sendErr error

	lastTo   string
	lastCode string
	sent     int
}

func (m *fakeMailer) Send(ctx context.Context, to string, code string) error {
	m.sent++
	m.lastTo = to
	m.lastCode = code
	return m.sendErr
}

func newIssuerWithMock(t *testing.T, mailer Mailer) (*PostgresIssuer, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresIssuer(db, mailer, 10*time.Minute), mock, db
}

func TestDispatch_MintsAccountIDAndSendsCode(t *testing.T) {
	mailer := &fakeMailer{}
	issuer, mock, db := newIssuerWithMock(t, mailer)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+account_id\s+FROM\s+otp_challenges\b`).
		WithArgs("a@b.c").
		WillReturnError(sql.ErrNoRows)

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+otp_challenges\b.*ON\s+CONFLICT\s*\(account_id\)`).
		WithArgs(sqlmock.AnyArg(), "a@b.c", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	accountID, err := issuer.Dispatch(context.Background(), "a@b.c", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accountID == "" {
		t.Fatalf("expected minted account id")
	}
	if mailer.sent != 1 || mailer.lastTo != "a@b.c" {
		t.Fatalf("expected one mail to a@b.c, got %d to %q", mailer.sent, mailer.lastTo)
	}
	if len(mailer.lastCode) != codeDigits {
		t.Fatalf("expected %d-digit code, got %q", codeDigits, mailer.lastCode)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDispatch_ReusesHintedAccountID(t *testing.T) {
	mailer := &fakeMailer{}
	issuer, mock, db := newIssuerWithMock(t, mailer)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+otp_challenges\b`).
		WithArgs("acc-7", "a@b.c", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	accountID, err := issuer.Dispatch(context.Background(), "a@b.c", "acc-7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if accountID != "acc-7" {
		t.Fatalf("want acc-7, got %q", accountID)
	}
}

func TestDispatch_MailFailureRemovesChallenge(t *testing.T) {
	mailer := &fakeMailer{sendErr: errors.New("smtp down")}
	issuer, mock, db := newIssuerWithMock(t, mailer)
	defer db.Close()

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+otp_challenges\b`).
		WithArgs("acc-7", "a@b.c", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+otp_challenges\b`).
		WithArgs("acc-7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := issuer.Dispatch(context.Background(), "a@b.c", "acc-7")
	if !errors.Is(err, common.ErrOtpDispatch) {
		t.Fatalf("want ErrOtpDispatch, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestVerify_SuccessConsumesChallenge(t *testing.T) {
	issuer, mock, db := newIssuerWithMock(t, &fakeMailer{})
	defer db.Close()

	salt := []byte("0123456789abcdef")
	rows := sqlmock.NewRows([]string{"code_hash", "salt", "expires_at"}).
		AddRow(hashCode("123456", salt), salt, time.Now().Add(time.Minute))

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^SELECT\s+code_hash,\s*salt,\s*expires_at\s+FROM\s+otp_challenges\b`).
		WithArgs("acc-1").
		WillReturnRows(rows)
	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+otp_challenges\b`).
		WithArgs("acc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := issuer.Verify(context.Background(), "acc-1", "123456"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestVerify_WrongCode(t *testing.T) {
	issuer, mock, db := newIssuerWithMock(t, &fakeMailer{})
	defer db.Close()

	salt := []byte("0123456789abcdef")
	rows := sqlmock.NewRows([]string{"code_hash", "salt", "expires_at"}).
		AddRow(hashCode("123456", salt), salt, time.Now().Add(time.Minute))

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^SELECT\s+code_hash,\s*salt,\s*expires_at\s+FROM\s+otp_challenges\b`).
		WithArgs("acc-1").
		WillReturnRows(rows)
	mock.ExpectRollback()

	err := issuer.Verify(context.Background(), "acc-1", "654321")
	if !errors.Is(err, common.ErrInvalidOtp) {
		t.Fatalf("want ErrInvalidOtp, got %v", err)
	}
}

func TestVerify_ExpiredCode(t *testing.T) {
	issuer, mock, db := newIssuerWithMock(t, &fakeMailer{})
	defer db.Close()

	salt := []byte("0123456789abcdef")
	rows := sqlmock.NewRows([]string{"code_hash", "salt", "expires_at"}).
		AddRow(hashCode("123456", salt), salt, time.Now().Add(-time.Minute))

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^SELECT\s+code_hash,\s*salt,\s*expires_at\s+FROM\s+otp_challenges\b`).
		WithArgs("acc-1").
		WillReturnRows(rows)
	mock.ExpectRollback()

	err := issuer.Verify(context.Background(), "acc-1", "123456")
	if !errors.Is(err, common.ErrInvalidOtp) {
		t.Fatalf("want ErrInvalidOtp, got %v", err)
	}
}

func TestVerify_NoChallenge(t *testing.T) {
	issuer, mock, db := newIssuerWithMock(t, &fakeMailer{})
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`(?s)^SELECT\s+code_hash,\s*salt,\s*expires_at\s+FROM\s+otp_challenges\b`).
		WithArgs("acc-1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := issuer.Verify(context.Background(), "acc-1", "123456")
	if !errors.Is(err, common.ErrInvalidOtp) {
		t.Fatalf("want ErrInvalidOtp, got %v", err)
	}
}
