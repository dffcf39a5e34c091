package meridian

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/meridian-bank/meridian/config"
	"github.com/meridian-bank/meridian/internal/apierror"
	"github.com/meridian-bank/meridian/model"
)

// accountNumberAttempts bounds regeneration when a freshly drawn account
// number collides with an existing one.
const accountNumberAttempts = 5

// CreateAccount opens an account for a user with a server-generated account
// number. Numbers are unique and never reused; a collision with an existing
// number draws a fresh one.
func (m *Meridian) CreateAccount(ctx context.Context, userID string, accountType model.AccountType, openingBalance decimal.Decimal) (*model.Account, error) {
	if userID == "" {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "User ID is required", nil)
	}
	if openingBalance.IsNegative() {
		return nil, apierror.NewAPIError(apierror.ErrInvalidInput, "Opening balance cannot be negative", nil)
	}

	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}

	var created *model.Account
	for attempt := 0; attempt < accountNumberAttempts; attempt++ {
		account := &model.Account{
			UserID:  userID,
			Number:  model.NewAccountNumber(configuration.Transfer.AccountNumberLength),
			Type:    accountType,
			Balance: openingBalance,
			Status:  model.AccountStatusActive,
		}
		created, err = m.datasource.CreateAccount(ctx, account)
		if err == nil {
			return created, nil
		}
		if apierror.CodeOf(err) != apierror.ErrConflict {
			return nil, err
		}
	}
	return nil, err
}

// GetAccount retrieves an account by its public ID.
func (m *Meridian) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	return m.datasource.GetAccountByID(ctx, id)
}

// GetAccountByNumber resolves an account number to its account.
func (m *Meridian) GetAccountByNumber(ctx context.Context, number string) (*model.Account, error) {
	return m.datasource.GetAccountByNumber(ctx, number)
}

// GetUserAccounts lists every account a user owns.
func (m *Meridian) GetUserAccounts(ctx context.Context, userID string) ([]*model.Account, error) {
	return m.datasource.GetAccountsByUser(ctx, userID)
}

// GetBalance reports an account's current balance.
func (m *Meridian) GetBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := m.datasource.GetAccountByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}
