package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/BharathKumarMurugan/cloud-drive/internal/common"
	"github.com/BharathKumarMurugan/cloud-drive/internal/dbx"
)

const codeDigits = 6

// PostgresIssuer keeps pending challenges in the otp_challenges table, one
// per account. Codes are stored as argon2id hashes with a per-row salt.
type PostgresIssuer struct {
	db       *sql.DB
	mailer   Mailer
	validity time.Duration
}

func NewPostgresIssuer(db *sql.DB, mailer Mailer, validity time.Duration) *PostgresIssuer {
	return &PostgresIssuer{db: db, mailer: mailer, validity: validity}
}

func (i *PostgresIssuer) Dispatch(ctx context.Context, email string, accountID string) (string, error) {

	if accountID == "" {
		id, err := i.pendingAccountID(ctx, email)
		if err != nil {
			return "", fmt.Errorf("%w: %v", common.ErrOtpDispatch, err)
		}
		if id == "" {
			id = uuid.NewString()
		}
		accountID = id
	}

	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrOtpDispatch, err)
	}

	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrOtpDispatch, err)
	}

	query :=
		`INSERT INTO otp_challenges (account_id, email, code_hash, salt, expires_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (account_id)
		 DO UPDATE SET email = EXCLUDED.email, code_hash = EXCLUDED.code_hash,
		   salt = EXCLUDED.salt, expires_at = EXCLUDED.expires_at
		 `

	_, err = i.db.ExecContext(ctx, query,
		accountID, email, hashCode(code, salt), salt, time.Now().Add(i.validity))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrOtpDispatch, err)
	}

	if err := i.mailer.Send(ctx, email, code); err != nil {
		// The challenge is unusable if the code never reached the inbox.
		_, _ = i.db.ExecContext(ctx, `DELETE FROM otp_challenges WHERE account_id = $1`, accountID)
		return "", fmt.Errorf("%w: %v", common.ErrOtpDispatch, err)
	}

	return accountID, nil
}

func (i *PostgresIssuer) Verify(ctx context.Context, accountID string, code string) error {

	err := dbx.WithTx(ctx, i.db, nil, func(ctx context.Context, tx dbx.DBTX) error {

		query :=
			`SELECT code_hash, salt, expires_at FROM otp_challenges
			 WHERE account_id = $1
			 FOR UPDATE
			 `

		var codeHash, salt []byte
		var expires time.Time
		err := tx.QueryRowContext(ctx, query, accountID).Scan(&codeHash, &salt, &expires)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrInvalidOtp
			}
			return fmt.Errorf("error performing sql request: %v", err)
		}

		if time.Now().After(expires) {
			return common.ErrInvalidOtp
		}

		if subtle.ConstantTimeCompare(codeHash, hashCode(code, salt)) != 1 {
			return common.ErrInvalidOtp
		}

		// Consume the challenge so the code cannot be replayed.
		_, err = tx.ExecContext(ctx, `DELETE FROM otp_challenges WHERE account_id = $1`, accountID)
		if err != nil {
			return fmt.Errorf("error performing sql request: %v", err)
		}

		return nil
	})

	return err
}

func (i *PostgresIssuer) pendingAccountID(ctx context.Context, email string) (string, error) {

	query :=
		`SELECT account_id FROM otp_challenges
		 WHERE email = $1
		 `

	var id string
	err := i.db.QueryRowContext(ctx, query, email).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("error performing sql request: %v", err)
	}

	return id, nil
}

func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}

func hashCode(code string, salt []byte) []byte {
	return argon2.IDKey([]byte(code), salt, 1, 64*1024, 4, 32)
}
