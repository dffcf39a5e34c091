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

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/meridian-bank/meridian/internal/apierror"
	"github.com/meridian-bank/meridian/model"
)

// UpsertPin sets or replaces a user's transaction PIN hash. Only the hash
// crosses this boundary; hashing happens in the service layer.
func (d Datasource) UpsertPin(ctx context.Context, userID, pinHash string) error {
	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO meridian.user_pins (user_id, pin_hash, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (user_id)
		DO UPDATE SET pin_hash = EXCLUDED.pin_hash, updated_at = NOW()
	`, userID, pinHash)
	if err != nil {
		return classifyPgError(err, "Failed to save PIN")
	}
	return nil
}

// GetPin retrieves a user's PIN record.
func (d Datasource) GetPin(ctx context.Context, userID string) (*model.UserPin, error) {
	pin := &model.UserPin{}
	err := d.Conn.QueryRowContext(ctx, `
		SELECT id, user_id, pin_hash, created_at, updated_at
		FROM meridian.user_pins
		WHERE user_id = $1
	`, userID).Scan(&pin.ID, &pin.UserID, &pin.PinHash, &pin.CreatedAt, &pin.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("No PIN set for user '%s'", userID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve PIN", err)
	}
	return pin, nil
}

// CreateOtp voids every unused code the user still holds and inserts a fresh
// one, in one transaction. At most one live OTP exists per user at any commit
// point.
func (d Datasource) CreateOtp(ctx context.Context, otp *model.Otp) (*model.Otp, error) {
	tx, err := d.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to begin OTP issue", err)
	}
	defer rollback(tx)

	_, err = tx.ExecContext(ctx, `
		UPDATE meridian.otp_codes
		SET used = true
		WHERE user_id = $1 AND used = false
	`, otp.UserID)
	if err != nil {
		return nil, classifyPgError(err, "Failed to void prior OTP codes")
	}

	otp.OtpID = model.GenerateUUIDWithSuffix("otp")
	otp.CreatedAt = time.Now()
	if otp.ExpiresAt.IsZero() {
		otp.ExpiresAt = otp.CreatedAt.Add(model.OtpTTL)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO meridian.otp_codes (otp_id, user_id, code, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, false, $5)
		RETURNING id
	`, otp.OtpID, otp.UserID, otp.Code, otp.ExpiresAt, otp.CreatedAt).Scan(&otp.ID)
	if err != nil {
		return nil, classifyPgError(err, "Failed to record OTP")
	}

	if err := tx.Commit(); err != nil {
		return nil, classifyPgError(err, "Failed to commit OTP issue")
	}
	return otp, nil
}

// ConsumeOtp marks the user's live matching code used. The conditional update
// is the single consumption point: of two racing verifications only one can
// flip used from false to true, the other finds no live row. Expiry is
// evaluated by the database clock in the same statement, so a correct but
// late code also finds no row.
func (d Datasource) ConsumeOtp(ctx context.Context, userID, code string) error {
	var otpID string
	err := d.Conn.QueryRowContext(ctx, `
		UPDATE meridian.otp_codes
		SET used = true
		WHERE user_id = $1 AND code = $2 AND used = false AND expires_at > NOW()
		RETURNING otp_id
	`, userID, code).Scan(&otpID)
	if err != nil {
		if err == sql.ErrNoRows {
			return apierror.NewAPIError(apierror.ErrUnauthorized, "Invalid or expired OTP", err)
		}
		return classifyPgError(err, "Failed to consume OTP")
	}
	return nil
}

// UpsertStepUpCode sets or replaces one of a user's step-up credentials.
func (d Datasource) UpsertStepUpCode(ctx context.Context, code *model.StepUpCode) error {
	_, err := d.Conn.ExecContext(ctx, `
		INSERT INTO meridian.stepup_codes (user_id, kind, code_hash, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (user_id, kind)
		DO UPDATE SET code_hash = EXCLUDED.code_hash, enabled = EXCLUDED.enabled, updated_at = NOW()
	`, code.UserID, code.Kind, code.CodeHash, code.Enabled)
	if err != nil {
		return classifyPgError(err, "Failed to save step-up code")
	}
	return nil
}

// GetStepUpCode retrieves one step-up credential.
func (d Datasource) GetStepUpCode(ctx context.Context, userID string, kind model.StepUpKind) (*model.StepUpCode, error) {
	code := &model.StepUpCode{}
	err := d.Conn.QueryRowContext(ctx, `
		SELECT id, user_id, kind, code_hash, enabled, created_at, updated_at
		FROM meridian.stepup_codes
		WHERE user_id = $1 AND kind = $2
	`, userID, kind).Scan(&code.ID, &code.UserID, &code.Kind, &code.CodeHash, &code.Enabled, &code.CreatedAt, &code.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("No %s code set for user '%s'", kind, userID), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve step-up code", err)
	}
	return code, nil
}

// GetEnabledStepUpKinds reports which step-up factors the user has enabled.
// Absent kinds are simply missing from the map.
func (d Datasource) GetEnabledStepUpKinds(ctx context.Context, userID string) (map[model.StepUpKind]bool, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT kind
		FROM meridian.stepup_codes
		WHERE user_id = $1 AND enabled = true
	`, userID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve step-up kinds", err)
	}
	defer rows.Close()

	kinds := make(map[model.StepUpKind]bool)
	for rows.Next() {
		var kind model.StepUpKind
		if err := rows.Scan(&kind); err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan step-up kind", err)
		}
		kinds[kind] = true
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over step-up kinds", err)
	}
	return kinds, nil
}
