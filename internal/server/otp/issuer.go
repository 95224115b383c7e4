// Package otp implements the one-time-passcode side of the authentication
// flow: minting provider account IDs, emailing short-lived numeric codes and
// verifying submitted codes.
package otp

import "context"

// Issuer hands out and checks one-time passcodes.
//
// Dispatch emails a fresh code for the given address and returns the account
// ID the pending challenge is bound to. An empty accountID hint means the
// caller knows of no existing account; the issuer then reuses the account ID
// of a pending challenge for the same address, or mints a new one. Dispatch
// failures are reported as common.ErrOtpDispatch.
//
// Verify checks the submitted code against the pending challenge for the
// account and consumes the challenge on success. Wrong or expired codes are
// reported as common.ErrInvalidOtp.
type Issuer interface {
	Dispatch(ctx context.Context, email string, accountID string) (string, error)
	Verify(ctx context.Context, accountID string, code string) error
}
