package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/princekumarofficial/screencast-service/internal/apperr"
)

func TestWriteErrorUsesKindStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, apperr.E(apperr.KindForbidden, "update clip", errors.New("not the owner")))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var body Response
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.Status != StatusError || body.Error != "update clip: not the owner" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestRequestOKOmitsEmptyFields(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusOK, RequestOK("Email sent successfully", nil))

	var raw map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&raw); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if raw["message"] != "Email sent successfully" {
		t.Fatalf("unexpected message %v", raw["message"])
	}
	if _, ok := raw["error"]; ok {
		t.Fatal("error must be omitted on success")
	}
	if _, ok := raw["data"]; ok {
		t.Fatal("data must be omitted when nil")
	}
}
