package repoerr

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperr "github.com/yungbote/autocrm-backend/internal/pkg/errors"
)

func TestMap(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"record not found", gorm.ErrRecordNotFound, apperr.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, apperr.ErrConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, apperr.ErrInvalidArgument},
		{"sqlite unique", errors.New("UNIQUE constraint failed: app_user.email"), apperr.ErrConflict},
		{"canceled", context.Canceled, context.Canceled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Map("op", tc.in)
			if !errors.Is(got, tc.want) {
				t.Fatalf("Map(%v) = %v, want chain containing %v", tc.in, got, tc.want)
			}
			if !errors.Is(got, tc.in) {
				t.Fatalf("original error dropped: %v", got)
			}
		})
	}
	if Map("op", nil) != nil {
		t.Fatalf("nil should stay nil")
	}
}
