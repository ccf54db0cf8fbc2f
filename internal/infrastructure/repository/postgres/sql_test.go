package postgres

import (
	"database/sql"
	"errors"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(sql.ErrNoRows) {
		t.Fatal("expected sql.ErrNoRows to be not-found")
	}
	if isNotFound(errors.New("boom")) {
		t.Fatal("unexpected not-found for arbitrary error")
	}
}

func TestNullInt64RoundTrip(t *testing.T) {
	if got := nullInt64Ptr(sql.NullInt64{}); got != nil {
		t.Fatalf("expected nil for invalid value, got %v", *got)
	}
	value := int64(42)
	got := nullInt64Ptr(sql.NullInt64{Int64: value, Valid: true})
	if got == nil || *got != value {
		t.Fatalf("expected 42, got %v", got)
	}

	if back := ptrNullInt64(got); !back.Valid || back.Int64 != value {
		t.Fatalf("expected valid 42, got %+v", back)
	}
	if back := ptrNullInt64(nil); back.Valid {
		t.Fatalf("expected invalid for nil, got %+v", back)
	}
}
