package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/princekumarofficial/screencast-service/internal/config"
	"github.com/princekumarofficial/screencast-service/internal/storage"
	"github.com/princekumarofficial/screencast-service/internal/storage/postgres/migrations"
	"github.com/princekumarofficial/screencast-service/internal/types"
	"github.com/princekumarofficial/screencast-service/internal/types/users"
)

const (
	pqUniqueViolation  = "23505"
	pqInvalidTextRepr  = "22P02"
	shortIDConstraint  = "videos_short_id_key"
	clipColumns        = "id, short_id, user_id, title, file_path, content_type, size, visibility, processing_status, created_at, updated_at"
	defaultOrphanBatch = 100
)

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(ctx context.Context, cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	pg := New(db)
	if err := pg.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return pg, nil
}

// New wraps an already opened database handle.
func New(db *sql.DB) *Postgres {
	return &Postgres{Db: db}
}

func (p *Postgres) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, p.Db, ".")
}

func (p *Postgres) Close() error {
	return p.Db.Close()
}

func (p *Postgres) CreateUser(ctx context.Context, email, password string) (string, error) {
	var userID string
	query := `
	INSERT INTO users (email, password)
	VALUES ($1, $2)
	RETURNING id
	`

	err := p.Db.QueryRowContext(ctx, query, email, password).Scan(&userID)
	if err != nil {
		if isPQCode(err, pqUniqueViolation) {
			return "", storage.ErrDuplicateEmail
		}
		return "", err
	}

	return userID, nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (users.User, error) {
	var u users.User
	query := `
	SELECT id, email, password, created_at::text FROM users WHERE email = $1
	`

	err := p.Db.QueryRowContext(ctx, query, email).Scan(&u.ID, &u.Email, &u.Password, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, storage.ErrNotFound
	}
	return u, err
}

func (p *Postgres) CreateClip(ctx context.Context, clip types.NewClip) (types.Clip, error) {
	query := `
	INSERT INTO videos (short_id, user_id, title, file_path, content_type, size, visibility, processing_status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING ` + clipColumns

	row := p.Db.QueryRowContext(ctx, query,
		clip.ShortID, clip.OwnerID, clip.Title, clip.StorageReference,
		clip.ContentType, clip.Size, clip.Visibility, clip.ProcessingStatus)

	created, err := scanClip(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && pqErr.Constraint == shortIDConstraint {
			return types.Clip{}, storage.ErrDuplicateShortID
		}
		return types.Clip{}, err
	}
	return created, nil
}

func (p *Postgres) GetClip(ctx context.Context, id string) (types.Clip, error) {
	row := p.Db.QueryRowContext(ctx, `SELECT `+clipColumns+` FROM videos WHERE id = $1`, id)
	return notFound(scanClip(row))
}

func (p *Postgres) GetClipByShortID(ctx context.Context, shortID string) (types.Clip, error) {
	row := p.Db.QueryRowContext(ctx, `SELECT `+clipColumns+` FROM videos WHERE short_id = $1`, shortID)
	return notFound(scanClip(row))
}

func (p *Postgres) ListClipsByOwner(ctx context.Context, ownerID string) ([]types.Clip, error) {
	rows, err := p.Db.QueryContext(ctx,
		`SELECT `+clipColumns+` FROM videos WHERE user_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		if isPQCode(err, pqInvalidTextRepr) {
			return []types.Clip{}, nil
		}
		return nil, err
	}
	defer rows.Close()

	clips := []types.Clip{}
	for rows.Next() {
		c, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		clips = append(clips, c)
	}
	return clips, rows.Err()
}

// UpdateClip applies patch in one statement. A status change is guarded by
// the set of statuses it may advance from, so a stale writer cannot regress it.
func (p *Postgres) UpdateClip(ctx context.Context, id string, patch types.ClipPatch) (types.Clip, error) {
	if patch.Empty() {
		return p.GetClip(ctx, id)
	}

	args := []any{id}
	var sets []string
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Visibility != nil {
		add("visibility", string(*patch.Visibility))
	}
	if patch.StorageReference != nil {
		add("file_path", *patch.StorageReference)
	}
	if patch.ProcessingStatus != nil {
		add("processing_status", string(*patch.ProcessingStatus))
	}
	sets = append(sets, "updated_at = NOW()")

	where := "id = $1"
	if patch.ProcessingStatus != nil {
		args = append(args, pq.Array(statusStrings(patch.ProcessingStatus.Predecessors())))
		where += fmt.Sprintf(" AND processing_status = ANY($%d)", len(args))
	}

	query := fmt.Sprintf("UPDATE videos SET %s WHERE %s RETURNING %s", strings.Join(sets, ", "), where, clipColumns)

	updated, err := scanClip(p.Db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) || isPQCode(err, pqInvalidTextRepr) {
		if patch.ProcessingStatus == nil {
			return types.Clip{}, storage.ErrNotFound
		}
		// the row may exist with a status that cannot advance
		if _, getErr := p.GetClip(ctx, id); getErr != nil {
			return types.Clip{}, getErr
		}
		return types.Clip{}, storage.ErrInvalidTransition
	}
	return updated, err
}

func (p *Postgres) DeleteClip(ctx context.Context, id string) error {
	res, err := p.Db.ExecContext(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		if isPQCode(err, pqInvalidTextRepr) {
			return storage.ErrNotFound
		}
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (p *Postgres) TrackOrphan(ctx context.Context, objectKey, reason string) error {
	_, err := p.Db.ExecContext(ctx, `
	INSERT INTO orphaned_objects (object_key, reason)
	VALUES ($1, $2)
	ON CONFLICT (object_key) DO NOTHING
	`, objectKey, reason)
	return err
}

func (p *Postgres) ListOrphans(ctx context.Context, limit int) ([]types.Orphan, error) {
	if limit <= 0 {
		limit = defaultOrphanBatch
	}

	rows, err := p.Db.QueryContext(ctx, `
	SELECT object_key, reason, attempts, created_at
	FROM orphaned_objects
	ORDER BY created_at ASC
	LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orphans []types.Orphan
	for rows.Next() {
		var o types.Orphan
		if err := rows.Scan(&o.ObjectKey, &o.Reason, &o.Attempts, &o.CreatedAt); err != nil {
			return nil, err
		}
		orphans = append(orphans, o)
	}
	return orphans, rows.Err()
}

func (p *Postgres) MarkOrphanAttempt(ctx context.Context, objectKey string) error {
	_, err := p.Db.ExecContext(ctx, `
	UPDATE orphaned_objects SET attempts = attempts + 1, last_attempt_at = NOW()
	WHERE object_key = $1
	`, objectKey)
	return err
}

func (p *Postgres) ResolveOrphan(ctx context.Context, objectKey string) error {
	_, err := p.Db.ExecContext(ctx, `DELETE FROM orphaned_objects WHERE object_key = $1`, objectKey)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClip(row scanner) (types.Clip, error) {
	var c types.Clip
	var visibility, status string
	err := row.Scan(&c.ID, &c.ShortID, &c.OwnerID, &c.Title, &c.StorageReference,
		&c.ContentType, &c.Size, &visibility, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return types.Clip{}, err
	}
	c.Visibility = types.Visibility(visibility)
	c.ProcessingStatus = types.ProcessingStatus(status)
	return c, nil
}

func notFound(c types.Clip, err error) (types.Clip, error) {
	if errors.Is(err, sql.ErrNoRows) || isPQCode(err, pqInvalidTextRepr) {
		return types.Clip{}, storage.ErrNotFound
	}
	return c, err
}

func isPQCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}

func statusStrings(statuses []types.ProcessingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
