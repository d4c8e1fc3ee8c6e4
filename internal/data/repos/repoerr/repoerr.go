package repoerr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
)

// Map translates storage failures into domain sentinels, keeping the original
// error in the chain.
func Map(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound),
		errors.Is(err, apperr.ErrConflict),
		errors.Is(err, apperr.ErrInvalidArgument):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, errors.Join(apperr.ErrNotFound, err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", op, errors.Join(apperr.ErrConflict, err))
		case "23503", "23502", "22P02": // foreign key, not null, invalid text representation
			return fmt.Errorf("%s: %w", op, errors.Join(apperr.ErrInvalidArgument, err))
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key") {
		return fmt.Errorf("%s: %w", op, errors.Join(apperr.ErrConflict, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
