// Package ledgerv1 holds the wire contract of ledger.v1.LedgerService.
//
// Messages are plain structs carried by the JSON codec registered in this
// package. Amounts travel as decimal strings and timestamps in their proto3
// JSON form.
package ledgerv1

import (
	"google.golang.org/protobuf/types/known/timestamppb"
)

// Balance is the committed balance of one account
type Balance struct {
	AccountId string                 `json:"account_id"`
	Amount    string                 `json:"amount"`
	Currency  string                 `json:"currency"`
	Version   int64                  `json:"version"`
	UpdatedAt *timestamppb.Timestamp `json:"updated_at,omitempty"`
}

// Transaction is one entry of an account's history
type Transaction struct {
	Id          string                 `json:"id"`
	AccountId   string                 `json:"account_id"`
	SenderId    string                 `json:"sender_id,omitempty"`
	Type        string                 `json:"type"`
	Amount      string                 `json:"amount"`
	Currency    string                 `json:"currency"`
	Status      string                 `json:"status"`
	Description string                 `json:"description"`
	Reference   string                 `json:"reference"`
	CreatedAt   *timestamppb.Timestamp `json:"created_at,omitempty"`
}

// Receipt summarises a completed transfer
type Receipt struct {
	Reference              string                 `json:"reference"`
	Amount                 string                 `json:"amount"`
	Currency               string                 `json:"currency"`
	SenderAccountId        string                 `json:"sender_account_id"`
	RecipientAccountId     string                 `json:"recipient_account_id"`
	RecipientName          string                 `json:"recipient_name"`
	RecipientAccountNumber string                 `json:"recipient_account_number"`
	Description            string                 `json:"description"`
	Status                 string                 `json:"status"`
	Timestamp              *timestamppb.Timestamp `json:"timestamp,omitempty"`
}

type AdjustBalanceRequest struct {
	AccountId      string `json:"account_id"`
	Amount         string `json:"amount"`
	Mode           string `json:"mode"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// AdjustBalanceResponse carries no transaction when a set left the balance unchanged
type AdjustBalanceResponse struct {
	Balance     *Balance     `json:"balance"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

type TransferRequest struct {
	RecipientAccountNumber string `json:"recipient_account_number"`
	Amount                 string `json:"amount"`
	Description            string `json:"description,omitempty"`
	IdempotencyKey         string `json:"idempotency_key,omitempty"`
}

type TransferResponse struct {
	Receipt *Receipt `json:"receipt"`
}

type GetBalanceRequest struct {
	AccountId string `json:"account_id"`
}

type GetBalanceResponse struct {
	Balance *Balance `json:"balance"`
}

// ListTransactionsRequest asks for the newest Limit records; 0 means all
type ListTransactionsRequest struct {
	AccountId string `json:"account_id"`
	Limit     int32  `json:"limit,omitempty"`
}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}

type GetReceiptRequest struct {
	Reference string `json:"reference"`
}

type GetReceiptResponse struct {
	Receipt *Receipt `json:"receipt"`
}

type GetAccountSummaryRequest struct {
	AccountId string `json:"account_id"`
	Recent    int32  `json:"recent,omitempty"`
}

type HistoryItem struct {
	Transaction *Transaction `json:"transaction"`
	SenderName  string       `json:"sender_name,omitempty"`
}

type GetAccountSummaryResponse struct {
	AccountId     string         `json:"account_id"`
	DisplayName   string         `json:"display_name"`
	AccountNumber string         `json:"account_number"`
	Balance       string         `json:"balance"`
	Currency      string         `json:"currency"`
	Recent        []*HistoryItem `json:"recent"`
}

type LookupRecipientRequest struct {
	AccountNumber string `json:"account_number"`
}

type LookupRecipientResponse struct {
	DisplayName   string `json:"display_name"`
	AccountNumber string `json:"account_number"`
}
