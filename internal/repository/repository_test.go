package repository

import (
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestTranslateErrorNoRows(t *testing.T) {
	if err := translateError(pgx.ErrNoRows); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTranslateErrorUniqueViolations(t *testing.T) {
	cases := []struct {
		constraint string
		field      string
	}{
		{"accounts_email_key", "email"},
		{"accounts_username_key", "username"},
		{"student_profiles_admission_number_key", "admission_number"},
		{"teacher_profiles_staff_id_key", "staff_id"},
		{"parent_profiles_user_id_key", "user_id"},
	}
	for _, tc := range cases {
		err := translateError(&pgconn.PgError{Code: uniqueViolation, ConstraintName: tc.constraint})
		var dup *DuplicateError
		if !errors.As(err, &dup) {
			t.Fatalf("%s: expected DuplicateError, got %v", tc.constraint, err)
		}
		if dup.Field != tc.field {
			t.Fatalf("%s: expected field %s, got %s", tc.constraint, tc.field, dup.Field)
		}
	}
}

func TestTranslateErrorPassesThroughOtherErrors(t *testing.T) {
	underlying := errors.New("connection reset")
	if err := translateError(underlying); !errors.Is(err, underlying) {
		t.Fatalf("expected passthrough, got %v", err)
	}
	if err := translateError(&pgconn.PgError{Code: "23503"}); err == nil {
		t.Fatalf("expected non-unique pg errors to pass through")
	}
	if translateError(nil) != nil {
		t.Fatalf("expected nil passthrough")
	}
}
