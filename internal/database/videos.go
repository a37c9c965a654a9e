package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"object-detection/internal/mediatypes"
	"object-detection/internal/metrics"
)

const videoColumns = `id, filename, file_path, width, height, fps, status, result_path, poster_path,
	detection_count, frames_processed, error, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*Video, error) {
	var v Video
	var status string
	var created, updated int64
	err := row.Scan(&v.ID, &v.Filename, &v.FilePath, &v.Width, &v.Height, &v.FPS, &status,
		&v.ResultPath, &v.PosterPath, &v.DetectionCount, &v.FramesProcessed, &v.Error, &created, &updated)
	if err != nil {
		return nil, err
	}
	v.Status = mediatypes.VideoStatus(status)
	v.CreatedAt = time.Unix(created, 0)
	v.UpdatedAt = time.Unix(updated, 0)
	return &v, nil
}

// CreateVideo inserts a new video row. CreatedAt and UpdatedAt are set to
// now when zero, Status defaults to uploaded.
func (d *Database) CreateVideo(ctx context.Context, v *Video) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("create_video", start, err) }()

	if v.ID == "" {
		err = fmt.Errorf("video id is required")
		return err
	}
	now := time.Now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	if v.Status == "" {
		v.Status = mediatypes.StatusUploaded
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err = d.db.ExecContext(ctx, d.rebind(`
	INSERT INTO videos (`+videoColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		v.ID, v.Filename, v.FilePath, v.Width, v.Height, v.FPS, string(v.Status),
		v.ResultPath, v.PosterPath, v.DetectionCount, v.FramesProcessed, v.Error,
		v.CreatedAt.Unix(), v.UpdatedAt.Unix(),
	)
	if err == nil {
		metrics.DBRowsWritten.WithLabelValues("videos").Inc()
	}
	return err
}

// GetVideo retrieves a video by id. It returns ErrNotFound when absent.
func (d *Database) GetVideo(ctx context.Context, id string) (*Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_video", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	row := d.db.QueryRowContext(ctx, d.rebind(`SELECT `+videoColumns+` FROM videos WHERE id = ?`), id)
	v, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	return v, err
}

// ListVideos returns all videos, newest first.
func (d *Database) ListVideos(ctx context.Context) ([]Video, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("list_videos", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, `SELECT `+videoColumns+` FROM videos ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	videos := []Video{}
	for rows.Next() {
		var v *Video
		v, err = scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, *v)
	}
	err = rows.Err()
	return videos, err
}

// SetVideoStatus updates only the status and error message of a video.
func (d *Database) SetVideoStatus(ctx context.Context, id string, status mediatypes.VideoStatus, msg string) error {
	return d.updateVideo(ctx, id, `status = ?, error = ?`, string(status), msg)
}

// RecordOutcome writes the result of a finished run onto the video row.
func (d *Database) RecordOutcome(ctx context.Context, id string, o RunOutcome) error {
	return d.updateVideo(ctx, id, `
		status = ?, width = ?, height = ?, fps = ?, result_path = ?, poster_path = ?,
		detection_count = ?, frames_processed = ?, error = ?`,
		string(o.Status), o.Width, o.Height, o.FPS, o.ResultPath, o.PosterPath,
		o.DetectionCount, o.FramesProcessed, o.Error,
	)
}

func (d *Database) updateVideo(ctx context.Context, id, set string, args ...any) error {
	start := time.Now()
	var err error
	defer func() { recordQuery("update_video", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	args = append(args, time.Now().Unix(), id)
	res, err := d.db.ExecContext(ctx, d.rebind(`UPDATE videos SET `+set+`, updated_at = ? WHERE id = ?`), args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		err = fmt.Errorf("video %s: %w", id, ErrNotFound)
	}
	return err
}
