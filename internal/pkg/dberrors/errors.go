package dberrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/coursecake/internal/pkg/apperrors"
)

// SQLSTATE codes the store cares about
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeNotNullViolation    = "23502"
	CodeCheckViolation      = "23514"
)

// IsDuplicateConstraintError checks if the error is a PostgreSQL unique violation error
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == CodeUniqueViolation && pgErr.ConstraintName == constraintName
}

// IsConstraintViolation reports whether err is an integrity constraint violation (SQLSTATE class 23).
func IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23")
}

// IsUnavailable reports whether err means the database could not be reached or the
// transaction can no longer be used.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return pgconn.Timeout(err) ||
		errors.Is(err, pgx.ErrTxClosed) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, context.DeadlineExceeded)
}

// Classify maps driver errors onto the application taxonomy. op names the failed
// operation and ends up in the message. Errors that are already classified, and
// errors the taxonomy has no slot for, are wrapped with op only.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if apperrors.Is(err, apperrors.ErrConstraintViolation, apperrors.ErrStorageUnavailable, apperrors.ErrNotFound) {
		return err
	}

	var pgErr *pgconn.PgError
	if IsConstraintViolation(err) && errors.As(err, &pgErr) {
		return apperrors.NewCustomError(
			fmt.Errorf("%w: %w", apperrors.ErrConstraintViolation, err),
			fmt.Sprintf("%s: %s: %s", op, apperrors.ErrConstraintViolation, pgErr.Message),
		).WithDetails(map[string]interface{}{
			"constraint": pgErr.ConstraintName,
			"table":      pgErr.TableName,
			"code":       pgErr.Code,
		})
	}

	if IsUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, apperrors.ErrStorageUnavailable, err)
	}

	return fmt.Errorf("%s: %w", op, err)
}
