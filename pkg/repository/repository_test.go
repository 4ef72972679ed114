package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/registrum/registrum/pkg/repository"
)

var (
	errNotFound  = errors.New("document not found")
	errDuplicate = errors.New("document already exists")
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil passes through", nil, nil},
		{"no rows maps to not found", sql.ErrNoRows, errNotFound},
		{"wrapped no rows maps to not found", fmt.Errorf("find: %w", sql.ErrNoRows), errNotFound},
		{"unique violation maps to duplicate", &pgconn.PgError{Code: "23505"}, errDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := repository.MapError(tt.err, errNotFound, errDuplicate)
			if tt.want == nil {
				if got != nil {
					t.Errorf("MapError = %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("MapError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		original := errors.New("connection reset")
		if got := repository.MapError(original, errNotFound, errDuplicate); got != original {
			t.Errorf("MapError = %v, want original", got)
		}
	})

	t.Run("non-unique pg error passes through", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23503"}
		if got := repository.MapError(pgErr, errNotFound, errDuplicate); got != pgErr {
			t.Errorf("MapError = %v, want original pg error", got)
		}
	})
}
