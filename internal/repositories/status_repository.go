package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"linkup/internal/models"
)

var ErrStatusNotFound = errors.New("status not found")

// StatusRepository abstracts ephemeral status persistence.
type StatusRepository interface {
	Create(ctx context.Context, status models.Status) (models.Status, error)
	ListActive(ctx context.Context) ([]models.Status, error)
	Get(ctx context.Context, statusID int) (models.Status, error)
	AddViewer(ctx context.Context, statusID int, viewerID int) (models.Status, error)
	Delete(ctx context.Context, statusID int, userID int) error
}

// StatusRepo is a sqlx implementation of StatusRepository.
type StatusRepo struct {
	db *sqlx.DB
}

// NewStatusRepo constructs a StatusRepo.
func NewStatusRepo(db *sqlx.DB) *StatusRepo {
	return &StatusRepo{db: db}
}

const statusColumns = `id, user_id, content, content_type, expires_at, created_at`

// Create stores a status post.
func (r *StatusRepo) Create(ctx context.Context, status models.Status) (models.Status, error) {
	var out models.Status
	err := r.db.QueryRowxContext(ctx, `INSERT INTO statuses (user_id, content, content_type, expires_at)
        VALUES ($1, $2, $3, $4) RETURNING `+statusColumns, status.UserID, status.Content, status.ContentType, status.ExpiresAt).StructScan(&out)
	return out, err
}

// ListActive returns unexpired statuses, newest first, with viewer lists.
func (r *StatusRepo) ListActive(ctx context.Context) ([]models.Status, error) {
	var statuses []models.Status
	err := r.db.SelectContext(ctx, &statuses, `SELECT `+statusColumns+` FROM statuses WHERE expires_at > NOW() ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	for i := range statuses {
		viewers, err := r.viewers(ctx, statuses[i].ID)
		if err != nil {
			return nil, err
		}
		statuses[i].Viewers = viewers
	}
	return statuses, nil
}

// Get fetches one status with its viewer list.
func (r *StatusRepo) Get(ctx context.Context, statusID int) (models.Status, error) {
	var status models.Status
	err := r.db.GetContext(ctx, &status, `SELECT `+statusColumns+` FROM statuses WHERE id=$1`, statusID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Status{}, ErrStatusNotFound
	}
	if err != nil {
		return models.Status{}, err
	}
	status.Viewers, err = r.viewers(ctx, statusID)
	return status, err
}

// AddViewer records a view once per viewer and returns the updated status.
func (r *StatusRepo) AddViewer(ctx context.Context, statusID int, viewerID int) (models.Status, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO status_views (status_id, viewer_id) VALUES ($1, $2)
        ON CONFLICT (status_id, viewer_id) DO NOTHING`, statusID, viewerID)
	if err != nil {
		return models.Status{}, err
	}
	if _, err := res.RowsAffected(); err != nil {
		return models.Status{}, err
	}
	return r.Get(ctx, statusID)
}

// Delete removes a status; only the author may delete.
func (r *StatusRepo) Delete(ctx context.Context, statusID int, userID int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM statuses WHERE id=$1 AND user_id=$2`, statusID, userID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrStatusNotFound
	}
	return nil
}

func (r *StatusRepo) viewers(ctx context.Context, statusID int) ([]int, error) {
	var viewers []int
	err := r.db.SelectContext(ctx, &viewers, `SELECT viewer_id FROM status_views WHERE status_id=$1 ORDER BY viewed_at ASC`, statusID)
	return viewers, err
}
