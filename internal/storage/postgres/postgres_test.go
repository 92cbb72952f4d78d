package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/princekumarofficial/screencast-service/internal/storage"
	"github.com/princekumarofficial/screencast-service/internal/types"
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db), mock
}

func clipRow(status types.ProcessingStatus) *sqlmock.Rows {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "short_id", "user_id", "title", "file_path", "content_type", "size", "visibility", "processing_status", "created_at", "updated_at"}).
		AddRow("v1", "abcd1234", "u1", "Demo", "users/u1/clips/1700000000000-demo.webm", "video/webm", int64(42), "private", string(status), now, now)
}

func TestCreateClip_Success(t *testing.T) {
	pg, mock := newMockStore(t)

	mock.ExpectQuery(`(?s)^\s*INSERT\s+INTO\s+videos\b.*RETURNING\s+id`).
		WithArgs("abcd1234", "u1", "Demo", "users/u1/clips/1700000000000-demo.webm", "video/webm", int64(42), types.VisibilityPrivate, types.StatusPending).
		WillReturnRows(clipRow(types.StatusPending))

	clip, err := pg.CreateClip(context.Background(), types.NewClip{
		ShortID:          "abcd1234",
		OwnerID:          "u1",
		Title:            "Demo",
		StorageReference: "users/u1/clips/1700000000000-demo.webm",
		ContentType:      "video/webm",
		Size:             42,
		Visibility:       types.VisibilityPrivate,
		ProcessingStatus: types.StatusPending,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.ID != "v1" || clip.ProcessingStatus != types.StatusPending || clip.Visibility != types.VisibilityPrivate {
		t.Fatalf("unexpected clip %+v", clip)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateClip_DuplicateShortID(t *testing.T) {
	pg, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+videos`).
		WillReturnError(&pq.Error{Code: pqUniqueViolation, Constraint: shortIDConstraint})

	_, err := pg.CreateClip(context.Background(), types.NewClip{ShortID: "dup"})
	if !errors.Is(err, storage.ErrDuplicateShortID) {
		t.Fatalf("want ErrDuplicateShortID, got %v", err)
	}
}

func TestGetClip_NotFound(t *testing.T) {
	pg, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM videos WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	if _, err := pg.GetClip(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetClip_MalformedIDIsNotFound(t *testing.T) {
	pg, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .* FROM videos WHERE id = \$1`).
		WillReturnError(&pq.Error{Code: pqInvalidTextRepr})

	if _, err := pg.GetClip(context.Background(), "not-a-uuid"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateClip_StatusGuardedByPredecessors(t *testing.T) {
	pg, mock := newMockStore(t)

	mock.ExpectQuery(`(?s)UPDATE videos SET processing_status = \$2, updated_at = NOW\(\) WHERE id = \$1 AND processing_status = ANY\(\$3\) RETURNING`).
		WithArgs("v1", "completed", sqlmock.AnyArg()).
		WillReturnRows(clipRow(types.StatusCompleted))

	status := types.StatusCompleted
	clip, err := pg.UpdateClip(context.Background(), "v1", types.ClipPatch{ProcessingStatus: &status})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clip.ProcessingStatus != types.StatusCompleted {
		t.Fatalf("expected completed, got %s", clip.ProcessingStatus)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateClip_RegressionRejected(t *testing.T) {
	pg, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE videos SET processing_status`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .* FROM videos WHERE id = \$1`).
		WithArgs("v1").
		WillReturnRows(clipRow(types.StatusCompleted))

	status := types.StatusPending
	_, err := pg.UpdateClip(context.Background(), "v1", types.ClipPatch{ProcessingStatus: &status})
	if !errors.Is(err, storage.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
}

func TestUpdateClip_UnknownID(t *testing.T) {
	pg, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE videos SET processing_status`).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`SELECT .* FROM videos WHERE id = \$1`).
		WillReturnError(sql.ErrNoRows)

	status := types.StatusCompleted
	_, err := pg.UpdateClip(context.Background(), "v404", types.ClipPatch{ProcessingStatus: &status})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateClip_TitleAndVisibility(t *testing.T) {
	pg, mock := newMockStore(t)

	mock.ExpectQuery(`UPDATE videos SET title = \$2, visibility = \$3, updated_at = NOW\(\) WHERE id = \$1 RETURNING`).
		WithArgs("v1", "Renamed", "public").
		WillReturnRows(clipRow(types.StatusPending))

	title := "Renamed"
	visibility := types.VisibilityPublic
	if _, err := pg.UpdateClip(context.Background(), "v1", types.ClipPatch{Title: &title, Visibility: &visibility}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteClip(t *testing.T) {
	pg, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM videos WHERE id = \$1`).
		WithArgs("v1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM videos WHERE id = \$1`).
		WithArgs("v2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := pg.DeleteClip(context.Background(), "v1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := pg.DeleteClip(context.Background(), "v2"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCreateUser_Duplicate(t *testing.T) {
	pg, mock := newMockStore(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("a@example.com", "hash").
		WillReturnError(&pq.Error{Code: pqUniqueViolation})

	if _, err := pg.CreateUser(context.Background(), "a@example.com", "hash"); !errors.Is(err, storage.ErrDuplicateEmail) {
		t.Fatalf("want ErrDuplicateEmail, got %v", err)
	}
}

func TestOrphans(t *testing.T) {
	pg, mock := newMockStore(t)
	created := time.Now()

	mock.ExpectExec(`INSERT INTO orphaned_objects`).
		WithArgs("users/u1/clips/x.webm", "record delete").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT object_key, reason, attempts, created_at\s+FROM orphaned_objects`).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"object_key", "reason", "attempts", "created_at"}).
			AddRow("users/u1/clips/x.webm", "record delete", 0, created))
	mock.ExpectExec(`DELETE FROM orphaned_objects WHERE object_key = \$1`).
		WithArgs("users/u1/clips/x.webm").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ctx := context.Background()
	if err := pg.TrackOrphan(ctx, "users/u1/clips/x.webm", "record delete"); err != nil {
		t.Fatalf("TrackOrphan: %v", err)
	}
	orphans, err := pg.ListOrphans(ctx, 10)
	if err != nil || len(orphans) != 1 || orphans[0].ObjectKey != "users/u1/clips/x.webm" {
		t.Fatalf("ListOrphans = %+v, %v", orphans, err)
	}
	if err := pg.ResolveOrphan(ctx, "users/u1/clips/x.webm"); err != nil {
		t.Fatalf("ResolveOrphan: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
