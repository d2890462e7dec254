package grpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/simaogato/ledger-backend/internal/adapter/grpc/ledgerv1"
	"github.com/simaogato/ledger-backend/internal/domain"
	"github.com/simaogato/ledger-backend/internal/usecase/dashboard"
	"github.com/simaogato/ledger-backend/internal/usecase/ledger"
)

// Server implements the LedgerService gRPC server
type Server struct {
	ledgerv1.UnimplementedLedgerServiceServer

	LedgerService    *ledger.LedgerService
	DashboardService *dashboard.DashboardService
}

// NewServer creates a new gRPC server instance
func NewServer(
	ledgerService *ledger.LedgerService,
	dashboardService *dashboard.DashboardService,
) *Server {
	return &Server{
		LedgerService:    ledgerService,
		DashboardService: dashboardService,
	}
}

// AdjustBalance handles the AdjustBalance RPC (admin only)
func (s *Server) AdjustBalance(ctx context.Context, req *ledgerv1.AdjustBalanceRequest) (*ledgerv1.AdjustBalanceResponse, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	capability, err := domain.GrantAdmin(caller)
	if err != nil {
		return nil, mapError(err)
	}

	accountID, err := parseID("account_id", req.AccountId)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	mode, err := ledger.ParseMode(req.Mode)
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.LedgerService.AdjustBalance(ctx, capability, ledger.AdjustBalanceInput{
		AccountID:      accountID,
		Amount:         amount,
		Mode:           mode,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, mapError(err)
	}

	resp := &ledgerv1.AdjustBalanceResponse{Balance: balanceToProto(result.Balance)}
	if result.Transaction != nil {
		resp.Transaction = transactionToProto(result.Transaction)
	}
	return resp, nil
}

// Transfer handles the Transfer RPC on behalf of the calling account
func (s *Server) Transfer(ctx context.Context, req *ledgerv1.TransferRequest) (*ledgerv1.TransferResponse, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	capability, err := domain.GrantSelf(caller)
	if err != nil {
		return nil, mapError(err)
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		return nil, err
	}

	receipt, err := s.LedgerService.Transfer(ctx, capability, ledger.TransferInput{
		RecipientAccountNumber: req.RecipientAccountNumber,
		Amount:                 amount,
		Description:            req.Description,
		IdempotencyKey:         req.IdempotencyKey,
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &ledgerv1.TransferResponse{Receipt: receiptToProto(receipt)}, nil
}

// GetBalance handles the GetBalance RPC
func (s *Server) GetBalance(ctx context.Context, req *ledgerv1.GetBalanceRequest) (*ledgerv1.GetBalanceResponse, error) {
	accountID, err := s.viewableAccount(ctx, req.AccountId)
	if err != nil {
		return nil, err
	}

	balance, err := s.LedgerService.GetBalance(ctx, accountID)
	if err != nil {
		return nil, mapError(err)
	}
	return &ledgerv1.GetBalanceResponse{Balance: balanceToProto(balance)}, nil
}

// ListTransactions handles the ListTransactions RPC
func (s *Server) ListTransactions(ctx context.Context, req *ledgerv1.ListTransactionsRequest) (*ledgerv1.ListTransactionsResponse, error) {
	// Validate limit (must be non-negative, 0 means all)
	if req.Limit < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "limit must be non-negative")
	}

	accountID, err := s.viewableAccount(ctx, req.AccountId)
	if err != nil {
		return nil, err
	}

	seq, err := s.LedgerService.ListTransactions(ctx, accountID)
	if err != nil {
		return nil, mapError(err)
	}
	records, err := ledger.Collect(seq, int(req.Limit))
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]*ledgerv1.Transaction, 0, len(records))
	for _, rec := range records {
		out = append(out, transactionToProto(rec))
	}
	return &ledgerv1.ListTransactionsResponse{Transactions: out}, nil
}

// GetReceipt handles the GetReceipt RPC. Users only see transfers they
// took part in.
func (s *Server) GetReceipt(ctx context.Context, req *ledgerv1.GetReceiptRequest) (*ledgerv1.GetReceiptResponse, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	if req.Reference == "" {
		return nil, status.Errorf(codes.InvalidArgument, "reference is required")
	}

	receipt, err := s.LedgerService.GetReceipt(ctx, req.Reference)
	if err != nil {
		return nil, mapError(err)
	}
	if !caller.IsAdmin() && !receipt.Involves(caller.AccountID) {
		// Indistinguishable from a missing receipt
		return nil, mapError(domain.NewError(domain.KindNotFound, "GetReceipt",
			fmt.Sprintf("no transfer with reference %q", req.Reference)))
	}
	return &ledgerv1.GetReceiptResponse{Receipt: receiptToProto(receipt)}, nil
}

// GetAccountSummary handles the GetAccountSummary RPC
func (s *Server) GetAccountSummary(ctx context.Context, req *ledgerv1.GetAccountSummaryRequest) (*ledgerv1.GetAccountSummaryResponse, error) {
	accountID, err := s.viewableAccount(ctx, req.AccountId)
	if err != nil {
		return nil, err
	}

	summary, err := s.DashboardService.GetAccountSummary(ctx, accountID, int(req.Recent))
	if err != nil {
		return nil, mapError(err)
	}

	recent := make([]*ledgerv1.HistoryItem, 0, len(summary.Recent))
	for _, item := range summary.Recent {
		recent = append(recent, &ledgerv1.HistoryItem{
			Transaction: transactionToProto(item.Transaction),
			SenderName:  item.SenderName,
		})
	}
	return &ledgerv1.GetAccountSummaryResponse{
		AccountId:     summary.AccountID.String(),
		DisplayName:   summary.DisplayName,
		AccountNumber: summary.AccountNumber,
		Balance:       summary.Balance.StringFixed(domain.MinorUnits),
		Currency:      summary.Currency,
		Recent:        recent,
	}, nil
}

// LookupRecipient handles the LookupRecipient RPC
func (s *Server) LookupRecipient(ctx context.Context, req *ledgerv1.LookupRecipientRequest) (*ledgerv1.LookupRecipientResponse, error) {
	if _, err := requireCaller(ctx); err != nil {
		return nil, err
	}
	if req.AccountNumber == "" {
		return nil, status.Errorf(codes.InvalidArgument, "account_number is required")
	}

	recipient, err := s.DashboardService.LookupRecipient(ctx, req.AccountNumber)
	if err != nil {
		return nil, mapError(err)
	}
	return &ledgerv1.LookupRecipientResponse{
		DisplayName:   recipient.DisplayName,
		AccountNumber: recipient.AccountNumber,
	}, nil
}

// viewableAccount parses raw and checks the caller may read that account.
// An empty id means the caller's own account.
func (s *Server) viewableAccount(ctx context.Context, raw string) (uuid.UUID, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return uuid.Nil, err
	}

	accountID := caller.AccountID
	if raw != "" {
		if accountID, err = parseID("account_id", raw); err != nil {
			return uuid.Nil, err
		}
	}
	if accountID == uuid.Nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "account_id is required")
	}
	if !caller.CanView(accountID) {
		return uuid.Nil, status.Errorf(codes.PermissionDenied, "%s: caller may not view account %s", domain.KindUnauthorized, accountID)
	}
	return accountID, nil
}

func requireCaller(ctx context.Context) (domain.Caller, error) {
	caller, ok := CallerFromContext(ctx)
	if !ok {
		return domain.Caller{}, status.Error(codes.Unauthenticated, "missing caller identity")
	}
	return caller, nil
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", field, err)
	}
	return id, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s: invalid amount format: %v", domain.KindInvalidAmount, err)
	}
	return amount, nil
}

// balanceToProto converts a domain AccountBalance to its wire form
func balanceToProto(b *domain.AccountBalance) *ledgerv1.Balance {
	return &ledgerv1.Balance{
		AccountId: b.AccountID.String(),
		Amount:    b.Amount.StringFixed(domain.MinorUnits),
		Currency:  b.Currency,
		Version:   b.Version,
		UpdatedAt: timestamppb.New(b.UpdatedAt),
	}
}

// transactionToProto converts a domain Transaction to its wire form
func transactionToProto(tx *domain.Transaction) *ledgerv1.Transaction {
	out := &ledgerv1.Transaction{
		Id:          tx.ID.String(),
		AccountId:   tx.AccountID.String(),
		Type:        string(tx.Type),
		Amount:      tx.Amount.StringFixed(domain.MinorUnits),
		Currency:    tx.Currency,
		Status:      string(tx.Status),
		Description: tx.Description,
		Reference:   tx.Reference,
		CreatedAt:   timestamppb.New(tx.CreatedAt),
	}
	if tx.SenderID != nil {
		out.SenderId = tx.SenderID.String()
	}
	return out
}

// receiptToProto converts a domain Receipt to its wire form
func receiptToProto(r *domain.Receipt) *ledgerv1.Receipt {
	return &ledgerv1.Receipt{
		Reference:              r.Reference,
		Amount:                 r.Amount.StringFixed(domain.MinorUnits),
		Currency:               r.Currency,
		SenderAccountId:        r.SenderAccountID.String(),
		RecipientAccountId:     r.RecipientAccountID.String(),
		RecipientName:          r.RecipientName,
		RecipientAccountNumber: r.RecipientAccountNumber,
		Description:            r.Description,
		Status:                 string(r.Status),
		Timestamp:              timestamppb.New(r.Timestamp),
	}
}

// mapError converts domain errors to gRPC status errors. The message starts
// with the stable error kind.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok && domain.KindOf(err) == "" {
		return err
	}

	switch {
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	kind := domain.KindOf(err)
	msg := err.Error()
	var domainErr *domain.Error
	if errors.As(err, &domainErr) && domainErr.Message != "" {
		msg = domainErr.Message
	}

	var code codes.Code
	switch kind {
	case domain.KindNotFound:
		code = codes.NotFound
	case domain.KindInvalidAmount, domain.KindInvalidMode, domain.KindSelfTransfer:
		code = codes.InvalidArgument
	case domain.KindInsufficientFunds, domain.KindCurrencyMismatch:
		code = codes.FailedPrecondition
	case domain.KindConflict:
		code = codes.Aborted
	case domain.KindDuplicateID:
		code = codes.AlreadyExists
	case domain.KindUnauthorized:
		code = codes.PermissionDenied
	case domain.KindStorageFailure:
		code = codes.Unavailable
	default:
		// Default to Internal error for unknown errors
		return status.Errorf(codes.Internal, "%s", msg)
	}
	return status.Errorf(code, "%s: %s", kind, msg)
}
