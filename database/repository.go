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

	"github.com/meridian-bank/meridian/model"
)

// IDataSource defines the interface for data source operations, grouping related functionalities.
type IDataSource interface {
	account       // Interface for account-related operations
	transaction   // Interface for ledger and funds-movement operations
	verification  // Interface for PIN, OTP and step-up credential operations
	authorization // Interface for multi-factor transfer attempts
}

// account defines methods for handling accounts.
type account interface {
	CreateAccount(ctx context.Context, account *model.Account) (*model.Account, error)                  // Inserts a new account
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)                              // Retrieves an account by ID
	GetAccountByNumber(ctx context.Context, number string) (*model.Account, error)                      // Retrieves an account by its number
	GetAccountsByUser(ctx context.Context, userID string) ([]*model.Account, error)                     // Retrieves all accounts owned by a user
	UpdateAccountStatus(ctx context.Context, id string, status model.AccountStatus) error               // Freezes or unfreezes an account
}

// transaction defines methods for handling funds movements and their ledger entries.
// Every movement runs as a single database transaction: row locks in ascending
// account order, balance checks, balance updates and the ledger insert commit
// or roll back together.
type transaction interface {
	ExecuteTransfer(ctx context.Context, txn *model.Transaction) (*model.Transaction, error)                        // Moves funds between two accounts atomically
	ApplyAdjustment(ctx context.Context, txn *model.Transaction, bypassFrozen bool) (*model.Transaction, error)     // Applies a one-sided deposit or withdrawal
	ReverseTransaction(ctx context.Context, transactionID string) (*model.Transaction, error)                       // Undoes a completed entry with a compensating entry
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)                                      // Retrieves a ledger entry by ID
	GetTransactionByRef(ctx context.Context, reference string) (*model.Transaction, error)                          // Retrieves a ledger entry by reference code
	GetTransactionsByAccount(ctx context.Context, accountID string, limit, offset int) ([]*model.Transaction, error) // Retrieves an account's entries, newest first
	GetTransactionsByUser(ctx context.Context, userID string, limit, offset int) ([]*model.Transaction, error)       // Retrieves entries touching any of a user's accounts
	GetTransactionsByStatus(ctx context.Context, status model.TransactionStatus, limit, offset int) ([]*model.Transaction, error) // Retrieves entries in a given status
}

// verification defines methods for durable credentials and one-time passwords.
type verification interface {
	UpsertPin(ctx context.Context, userID, pinHash string) error                                              // Sets or replaces a user's transaction PIN hash
	GetPin(ctx context.Context, userID string) (*model.UserPin, error)                                        // Retrieves a user's PIN record
	CreateOtp(ctx context.Context, otp *model.Otp) (*model.Otp, error)                                        // Inserts a fresh OTP, voiding prior unused ones
	ConsumeOtp(ctx context.Context, userID, code string) error                                                // Marks a live matching OTP used, exactly once
	UpsertStepUpCode(ctx context.Context, code *model.StepUpCode) error                                       // Sets or replaces a COT or Secure-ID code
	GetStepUpCode(ctx context.Context, userID string, kind model.StepUpKind) (*model.StepUpCode, error)       // Retrieves one step-up credential
	GetEnabledStepUpKinds(ctx context.Context, userID string) (map[model.StepUpKind]bool, error)              // Lists which step-up factors a user has enabled
}

// authorization defines methods for persisted multi-factor transfer attempts.
type authorization interface {
	CreateAuthorization(ctx context.Context, auth *model.TransferAuthorization) (*model.TransferAuthorization, error) // Persists a new attempt
	GetAuthorization(ctx context.Context, id string) (*model.TransferAuthorization, error)                            // Retrieves an attempt by ID
	AdvanceAuthorization(ctx context.Context, id string, from, to model.AuthorizationState) error                     // Moves an attempt between states, conditionally
	FailAuthorization(ctx context.Context, id string) error                                                           // Marks a non-terminal attempt failed
	ExecuteAuthorizedTransfer(ctx context.Context, id string) (*model.Transaction, error)                             // Claims an authorized attempt and runs its transfer once
}
