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

package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"

	"github.com/meridian-bank/meridian/model"
)

// CreateAccount opens an account for a user. The account number is always
// generated server-side.
type CreateAccount struct {
	UserID         string  `json:"user_id"`
	AccountType    string  `json:"account_type"`
	OpeningBalance float64 `json:"opening_balance"`
}

func (a *CreateAccount) ValidateCreateAccount() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.UserID, validation.Required),
		validation.Field(&a.AccountType, validation.Required, validation.By(accountTypeRule)),
		validation.Field(&a.OpeningBalance, validation.Min(0.0)),
	)
}

// Transfer names the receiver by internal account ID or by account number,
// never both.
type Transfer struct {
	SenderAccountID       string  `json:"sender_account_id"`
	ReceiverAccountID     string  `json:"receiver_account_id,omitempty"`
	ReceiverAccountNumber string  `json:"receiver_account_number,omitempty"`
	Amount                float64 `json:"amount"`
	Narration             string  `json:"narration,omitempty"`
}

func receiverIDOrNumberValidation(t *Transfer) validation.RuleFunc {
	return func(value interface{}) error {
		if (t.ReceiverAccountID == "" && t.ReceiverAccountNumber == "") || (t.ReceiverAccountID != "" && t.ReceiverAccountNumber != "") {
			return errors.New("either receiver_account_id or receiver_account_number is required, not both")
		}
		return nil
	}
}

func (t *Transfer) ValidateTransfer() error {
	return validation.ValidateStruct(t,
		validation.Field(&t.SenderAccountID, validation.Required),
		validation.Field(&t.Amount, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&t.ReceiverAccountID, validation.By(receiverIDOrNumberValidation(t))),
	)
}

func (t *Transfer) DecimalAmount() decimal.Decimal {
	return decimal.NewFromFloat(t.Amount)
}

// TransferWithPin is the one-shot authorization path: PIN plus whichever
// step-up codes the user has enabled, all in a single request.
type TransferWithPin struct {
	Transfer
	UserID       string  `json:"user_id"`
	Pin          string  `json:"pin"`
	CotCode      *string `json:"cot_code,omitempty"`
	SecureIDCode *string `json:"secure_id_code,omitempty"`
}

func (t *TransferWithPin) ValidateTransferWithPin() error {
	if err := t.ValidateTransfer(); err != nil {
		return err
	}
	return validation.ValidateStruct(t,
		validation.Field(&t.UserID, validation.Required),
		validation.Field(&t.Pin, validation.Required),
	)
}

// TransferWithOtp consumes a live one-time password in place of the PIN chain.
type TransferWithOtp struct {
	Transfer
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

func (t *TransferWithOtp) ValidateTransferWithOtp() error {
	if err := t.ValidateTransfer(); err != nil {
		return err
	}
	return validation.ValidateStruct(t,
		validation.Field(&t.UserID, validation.Required),
		validation.Field(&t.Code, validation.Required),
	)
}

type RequestOtp struct {
	UserID string `json:"user_id"`
}

func (r *RequestOtp) ValidateRequestOtp() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.UserID, validation.Required),
	)
}

type SetPin struct {
	UserID string `json:"user_id"`
	Pin    string `json:"pin"`
}

func (p *SetPin) ValidateSetPin() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.UserID, validation.Required),
		validation.Field(&p.Pin, validation.Required),
	)
}

type ChangePin struct {
	UserID     string `json:"user_id"`
	CurrentPin string `json:"current_pin"`
	NewPin     string `json:"new_pin"`
}

func (p *ChangePin) ValidateChangePin() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.UserID, validation.Required),
		validation.Field(&p.CurrentPin, validation.Required),
		validation.Field(&p.NewPin, validation.Required),
	)
}

type SetStepUpCode struct {
	UserID  string `json:"user_id"`
	Kind    string `json:"kind"`
	Code    string `json:"code"`
	Enabled bool   `json:"enabled"`
}

func (s *SetStepUpCode) ValidateSetStepUpCode() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.UserID, validation.Required),
		validation.Field(&s.Kind, validation.Required, validation.By(stepUpKindRule)),
		validation.Field(&s.Code, validation.Required),
	)
}

// BeginAuthorization opens a durable multi-factor transfer attempt.
type BeginAuthorization struct {
	Transfer
	UserID string `json:"user_id"`
}

func (b *BeginAuthorization) ValidateBeginAuthorization() error {
	if err := b.ValidateTransfer(); err != nil {
		return err
	}
	return validation.ValidateStruct(b,
		validation.Field(&b.UserID, validation.Required),
	)
}

// SubmitFactor presents one credential against an open attempt.
type SubmitFactor struct {
	UserID string `json:"user_id"`
	Factor string `json:"factor"`
	Code   string `json:"code"`
}

func (s *SubmitFactor) ValidateSubmitFactor() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.UserID, validation.Required),
		validation.Field(&s.Factor, validation.Required, validation.In("pin", "cot", "secure_id")),
		validation.Field(&s.Code, validation.Required),
	)
}

type ExecuteAuthorization struct {
	UserID string `json:"user_id"`
}

func (e *ExecuteAuthorization) ValidateExecuteAuthorization() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.UserID, validation.Required),
	)
}

// AdminAdjustment is a privileged one-sided balance correction.
type AdminAdjustment struct {
	AccountID string  `json:"account_id"`
	Amount    float64 `json:"amount"`
	Type      string  `json:"type"`
	Narration string  `json:"narration,omitempty"`
}

func (a *AdminAdjustment) ValidateAdminAdjustment() error {
	return validation.ValidateStruct(a,
		validation.Field(&a.AccountID, validation.Required),
		validation.Field(&a.Amount, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&a.Type, validation.Required, validation.In("deposit", "withdrawal")),
	)
}

func (a *AdminAdjustment) DecimalAmount() decimal.Decimal {
	return decimal.NewFromFloat(a.Amount)
}

type UpdateAccountStatus struct {
	Status string `json:"status"`
}

func (u *UpdateAccountStatus) ValidateUpdateAccountStatus() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.Status, validation.Required, validation.In("active", "frozen")),
	)
}

func accountTypeRule(value interface{}) error {
	s, _ := value.(string)
	_, err := model.ParseAccountType(s)
	return err
}

func stepUpKindRule(value interface{}) error {
	s, _ := value.(string)
	_, err := model.ParseStepUpKind(s)
	return err
}
