package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/hearthlabs/hearth/internal/model"
	"github.com/hearthlabs/hearth/internal/pkg/dbutil"
	appErr "github.com/hearthlabs/hearth/internal/pkg/errors"
)

type FileRepo struct {
	db *sql.DB
}

func NewFileRepo(db *sql.DB) *FileRepo {
	return &FileRepo{db: db}
}

const fileColumns = "id, user_id, name, content_type, size, file_key, text_key, extract_status, extract_error, ctime, mtime"

func (r *FileRepo) Create(ctx context.Context, file *model.File) error {
	data := map[string]interface{}{
		"id":             file.ID,
		"user_id":        file.UserID,
		"name":           file.Name,
		"content_type":   file.ContentType,
		"size":           file.Size,
		"file_key":       file.FileKey,
		"text_key":       file.TextKey,
		"extract_status": string(file.ExtractStatus),
		"extract_error":  file.ExtractError,
		"ctime":          file.Ctime,
		"mtime":          file.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("files", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *FileRepo) GetByID(ctx context.Context, userID, id string) (*model.File, error) {
	where := map[string]interface{}{
		"id":      id,
		"user_id": userID,
	}
	sqlStr, args, err := builder.BuildSelect("files", where, []string{fileColumns})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	file, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, appErr.ErrNotFound
	}
	return file, err
}

// MarkDone moves a pending file to done. The WHERE clause keeps the state
// machine forward-only: a file already terminal is not touched and the call
// reports a conflict.
func (r *FileRepo) MarkDone(ctx context.Context, id, textKey string) error {
	return r.finish(ctx, id, model.ExtractStatusDone, "", textKey)
}

func (r *FileRepo) MarkFailed(ctx context.Context, id, cause string) error {
	return r.finish(ctx, id, model.ExtractStatusFailed, cause, "")
}

func (r *FileRepo) finish(ctx context.Context, id string, status model.ExtractStatus, cause, textKey string) error {
	sqlStr := `
		UPDATE files
		SET extract_status = ?, extract_error = ?, text_key = ?, mtime = ?
		WHERE id = ? AND extract_status = ?
	`
	args := []interface{}{string(status), cause, textKey, time.Now().UnixMilli(), id, string(model.ExtractStatusPending)}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: file %s is not pending", appErr.ErrConflict, id)
	}
	return nil
}

// ListStuckPending returns files still pending whose last touch is older than
// the cutoff, oldest first. Used by the redrive job to retry ingestions that
// were abandoned mid-flight.
func (r *FileRepo) ListStuckPending(ctx context.Context, olderThan int64, limit int) ([]*model.File, error) {
	sqlStr := fmt.Sprintf(`
		SELECT %s
		FROM files
		WHERE extract_status = ? AND mtime < ?
		ORDER BY mtime ASC
		LIMIT ?
	`, fileColumns)
	args := []interface{}{string(model.ExtractStatusPending), olderThan, limit}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var files []*model.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFile(row rowScanner) (*model.File, error) {
	var file model.File
	var status string
	if err := row.Scan(
		&file.ID, &file.UserID, &file.Name, &file.ContentType, &file.Size,
		&file.FileKey, &file.TextKey, &status, &file.ExtractError,
		&file.Ctime, &file.Mtime,
	); err != nil {
		return nil, err
	}
	file.ExtractStatus = model.ExtractStatus(status)
	return &file, nil
}
