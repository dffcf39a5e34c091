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

const accountColumns = "id, account_id, user_id, account_number, account_type, balance, status, created_at, updated_at"

// accountNumberCacheTTL bounds the number -> account_id lookaside. The mapping
// never changes once assigned, so the TTL only caps memory.
const accountNumberCacheTTL = 24 * time.Hour

func accountNumberCacheKey(number string) string {
	return fmt.Sprintf("account:number:%s", number)
}

// CreateAccount inserts a new account row. The caller provides user, number,
// type and opening balance; ID and timestamps are assigned here. A duplicate
// account number surfaces as a conflict so the service can regenerate.
func (d Datasource) CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error) {
	account.AccountID = model.GenerateUUIDWithSuffix("acc")
	account.CreatedAt = time.Now()
	account.UpdatedAt = account.CreatedAt
	if account.Status == "" {
		account.Status = model.AccountStatusActive
	}

	err := d.Conn.QueryRowContext(ctx, `
		INSERT INTO meridian.accounts (account_id, user_id, account_number, account_type, balance, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, account.AccountID, account.UserID, account.Number, account.Type, account.Balance, account.Status, account.CreatedAt, account.UpdatedAt).Scan(&account.ID)
	if err != nil {
		return nil, classifyPgError(err, "Failed to create account")
	}

	return account, nil
}

// GetAccountByID retrieves an account by its public ID.
func (d Datasource) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM meridian.accounts
		WHERE account_id = $1
	`, id)

	account, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with ID '%s' not found", id), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve account", err)
	}
	return account, nil
}

// GetAccountByNumber resolves an account number to its account. The number to
// ID mapping is immutable, so it is served from cache when possible; the row
// itself is always read fresh because balances move constantly.
func (d Datasource) GetAccountByNumber(ctx context.Context, number string) (*model.Account, error) {
	if d.Cache != nil {
		var accountID string
		if err := d.Cache.Get(ctx, accountNumberCacheKey(number), &accountID); err == nil && accountID != "" {
			return d.GetAccountByID(ctx, accountID)
		}
	}

	row := d.Conn.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM meridian.accounts
		WHERE account_number = $1
	`, number)

	account, err := scanAccount(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with number '%s' not found", number), err)
		}
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve account", err)
	}

	if d.Cache != nil {
		if err := d.Cache.Set(ctx, accountNumberCacheKey(number), account.AccountID, accountNumberCacheTTL); err != nil {
			logrusCacheWarn(err)
		}
	}
	return account, nil
}

// GetAccountsByUser retrieves every account owned by a user, oldest first.
func (d Datasource) GetAccountsByUser(ctx context.Context, userID string) ([]*model.Account, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM meridian.accounts
		WHERE user_id = $1
		ORDER BY created_at ASC
	`, userID)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve accounts", err)
	}
	defer rows.Close()

	var accounts []*model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan account data", err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over accounts", err)
	}
	return accounts, nil
}

// UpdateAccountStatus freezes or unfreezes an account.
func (d Datasource) UpdateAccountStatus(ctx context.Context, id string, status model.AccountStatus) error {
	result, err := d.Conn.ExecContext(ctx, `
		UPDATE meridian.accounts
		SET status = $2, updated_at = NOW()
		WHERE account_id = $1
	`, id, status)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to update account status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apierror.NewAPIError(apierror.ErrNotFound, fmt.Sprintf("Account with ID '%s' not found", id), nil)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*model.Account, error) {
	account := &model.Account{}
	err := row.Scan(&account.ID, &account.AccountID, &account.UserID, &account.Number, &account.Type, &account.Balance, &account.Status, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return account, nil
}
