package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/simaogato/ledger-backend/internal/domain"
)

// SQLSTATE codes the ledger reacts to
const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

// classifyError maps driver failures onto domain error kinds
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if domain.KindOf(err) != "" {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case codeUniqueViolation:
			return domain.WrapError(domain.KindDuplicateID, op, err)
		case codeCheckViolation:
			return domain.WrapError(domain.KindInvalidAmount, op, err)
		case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
			return domain.WrapError(domain.KindConflict, op, err)
		}
	}
	return domain.WrapError(domain.KindStorageFailure, op, err)
}

// notFoundOr turns sql.ErrNoRows into a KindNotFound error
func notFoundOr(op string, err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewError(domain.KindNotFound, op, fmt.Sprintf(format, args...))
	}
	return classifyError(op, err)
}
