/*
Copyright 2026 Meridian Bank Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package meridian

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-bank/meridian/internal/apierror"
	redlock "github.com/meridian-bank/meridian/internal/lock"
	"github.com/meridian-bank/meridian/model"
)

const (
	otpCodeLength  = 6
	pinLength      = 4
	otpLockTimeout = 10 * time.Second
	otpLockWait    = 5 * time.Second
)

// invalidCredential is the uniform answer to every failed factor check. The
// caller never learns which factor was wrong or why.
func invalidCredential(err error) error {
	return apierror.NewAPIError(apierror.ErrUnauthorized, "Invalid credential", err)
}

// SetPin stores a one-way hash of the user's 4-digit transaction PIN,
// replacing any prior value. The plaintext never reaches the store.
func (m *Meridian) SetPin(ctx context.Context, userID, pin string) error {
	if err := validateNumericCode(pin, pinLength); err != nil {
		return apierror.NewAPIError(apierror.ErrInvalidInput, fmt.Sprintf("PIN must be %d digits", pinLength), err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to hash PIN", err)
	}
	return m.datasource.UpsertPin(ctx, userID, string(hash))
}

// ChangePin replaces the PIN after proving knowledge of the current one.
func (m *Meridian) ChangePin(ctx context.Context, userID, currentPin, newPin string) error {
	if err := m.VerifyPin(ctx, userID, currentPin); err != nil {
		return err
	}
	return m.SetPin(ctx, userID, newPin)
}

// VerifyPin checks a candidate PIN against the stored hash. The PIN is a
// durable credential; verification has no consumption semantics.
func (m *Meridian) VerifyPin(ctx context.Context, userID, pin string) error {
	stored, err := m.datasource.GetPin(ctx, userID)
	if err != nil {
		return invalidCredential(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PinHash), []byte(pin)); err != nil {
		return invalidCredential(err)
	}
	return nil
}

// SetStepUpCode configures or replaces one of the user's step-up codes (COT
// or Secure-ID). Only the hash is stored.
func (m *Meridian) SetStepUpCode(ctx context.Context, userID string, kind model.StepUpKind, code string, enabled bool) error {
	if code == "" {
		return apierror.NewAPIError(apierror.ErrInvalidInput, "Step-up code is required", nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to hash step-up code", err)
	}
	return m.datasource.UpsertStepUpCode(ctx, &model.StepUpCode{
		UserID:   userID,
		Kind:     kind,
		CodeHash: string(hash),
		Enabled:  enabled,
	})
}

// VerifyStepUpCode checks a candidate COT or Secure-ID code. Step-up codes
// are durable and reusable; swapping this for a single-use implementation
// would not change any caller.
func (m *Meridian) VerifyStepUpCode(ctx context.Context, userID string, kind model.StepUpKind, code string) error {
	stored, err := m.datasource.GetStepUpCode(ctx, userID, kind)
	if err != nil {
		return invalidCredential(err)
	}
	if !stored.Enabled {
		return invalidCredential(nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.CodeHash), []byte(code)); err != nil {
		return invalidCredential(err)
	}
	return nil
}

// IssueOtp issues a fresh 6-digit one-time password for the user, voiding any
// prior unused one. Issuance serializes with verification for the same user
// behind a redis lock, so two codes are never simultaneously live. The
// returned Otp carries the plaintext code for delivery; only demo mode may
// echo it to the caller.
func (m *Meridian) IssueOtp(ctx context.Context, userID string) (*model.Otp, error) {
	if userID == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "User ID is required", nil)
	}

	locker, err := m.lockOtp(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer m.unlockOtp(ctx, locker)

	code, err := randomNumericCode(otpCodeLength)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to generate OTP", err)
	}
	return m.datasource.CreateOtp(ctx, &model.Otp{UserID: userID, Code: code})
}

// VerifyOtp consumes the user's live OTP. Consumption is exactly-once: a
// second verification with the same code fails even if the code matches.
func (m *Meridian) VerifyOtp(ctx context.Context, userID, code string) error {
	locker, err := m.lockOtp(ctx, userID)
	if err != nil {
		return err
	}
	defer m.unlockOtp(ctx, locker)

	if err := m.datasource.ConsumeOtp(ctx, userID, code); err != nil {
		if apierror.CodeOf(err) == apierror.ErrUnauthorized {
			return invalidCredential(err)
		}
		return err
	}
	return nil
}

func (m *Meridian) lockOtp(ctx context.Context, userID string) (*redlock.Locker, error) {
	locker := redlock.NewLocker(m.redis, fmt.Sprintf("otp:%s", userID), model.GenerateUUIDWithSuffix("loc"))
	if err := locker.WaitLock(ctx, otpLockTimeout, otpLockWait); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrTransient, "OTP operation already in progress", err)
	}
	return locker, nil
}

func (m *Meridian) unlockOtp(ctx context.Context, locker *redlock.Locker) {
	if err := locker.Unlock(ctx); err != nil {
		logrus.Error("lock error", err)
	}
}

func randomNumericCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

func validateNumericCode(code string, length int) error {
	if len(code) != length {
		return fmt.Errorf("code must be %d digits", length)
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			return fmt.Errorf("code must be numeric")
		}
	}
	return nil
}
