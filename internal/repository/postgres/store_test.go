package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"

	"github.com/veldtgames/warcouncil/internal/repository"
)

func TestMapErrTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", sql.ErrNoRows, repository.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), repository.ErrNotFound},
		{"unique violation", &pq.Error{Code: "23505"}, repository.ErrConflict},
		{"serialization failure", &pq.Error{Code: "40001"}, repository.ErrTransient},
		{"deadlock", &pq.Error{Code: "40P01"}, repository.ErrTransient},
		{"connection failure", &pq.Error{Code: "08006"}, repository.ErrTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mapErr("op", tc.in)
			if !errors.Is(got, tc.want) {
				t.Errorf("mapErr(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestMapErrPassesThroughUnknownErrors(t *testing.T) {
	sentinel := errors.New("boom")
	got := mapErr("op", sentinel)
	if !errors.Is(got, sentinel) {
		t.Errorf("mapErr lost the original error: %v", got)
	}
	for _, taxonomy := range []error{repository.ErrNotFound, repository.ErrConflict, repository.ErrTransient} {
		if errors.Is(got, taxonomy) {
			t.Errorf("unknown error mapped to %v", taxonomy)
		}
	}
	if mapErr("op", nil) != nil {
		t.Error("mapErr(nil) is not nil")
	}
}
