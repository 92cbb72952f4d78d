package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cause := errors.New("boom")
	tests := []struct {
		err  error
		want int
	}{
		{Validation("decode", cause), http.StatusBadRequest},
		{Configuration("email", cause), http.StatusInternalServerError},
		{Database("update", cause), http.StatusInternalServerError},
		{E(KindForbidden, "update", cause), http.StatusForbidden},
		{E(KindNotFound, "get", cause), http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", E(KindUnauthorized, "create", cause)), http.StatusUnauthorized},
		{cause, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestIsWalksNestedKinds(t *testing.T) {
	inner := Storage("put", errors.New("connection refused"))
	outer := Database("create", inner)

	if !Is(outer, KindStorage) {
		t.Fatal("expected nested storage kind to be found")
	}
	if KindOf(outer) != KindDatabase {
		t.Fatalf("expected outermost kind database, got %s", KindOf(outer))
	}
	if Is(outer, KindEmail) {
		t.Fatal("did not expect email kind")
	}
}

func TestENilIsNil(t *testing.T) {
	if E(KindStorage, "op", nil) != nil {
		t.Fatal("expected nil error")
	}
}
