package database

import (
	"context"
	"database/sql"
	"time"

	"object-detection/internal/metrics"
)

// ReplaceDetections atomically replaces the stored detection set of a video
// with dets and returns the number of rows written.
func (d *Database) ReplaceDetections(ctx context.Context, videoID string, dets []Detection) (int, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("replace_detections", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	written := 0
	err = d.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, d.rebind(`DELETE FROM detections WHERE video_id = ?`), videoID); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx, d.rebind(`
		INSERT INTO detections (video_id, frame, x1, y1, x2, y2, confidence, class_id, class_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, det := range dets {
			if _, err := stmt.ExecContext(ctx, videoID, det.Frame,
				det.BBox[0], det.BBox[1], det.BBox[2], det.BBox[3],
				det.Confidence, det.ClassID, det.ClassName); err != nil {
				return err
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	metrics.DBRowsWritten.WithLabelValues("detections").Add(float64(written))
	return written, nil
}

// ClearDetections deletes every detection of a video.
func (d *Database) ClearDetections(ctx context.Context, videoID string) (int64, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("clear_detections", start, err) }()

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.db.ExecContext(ctx, d.rebind(`DELETE FROM detections WHERE video_id = ?`), videoID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetDetections returns the detections of a video ordered by frame and then
// by insertion order.
func (d *Database) GetDetections(ctx context.Context, videoID string) ([]Detection, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("get_detections", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, d.rebind(`
	SELECT id, video_id, frame, x1, y1, x2, y2, confidence, class_id, class_name
	FROM detections WHERE video_id = ? ORDER BY frame, id`), videoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dets := []Detection{}
	for rows.Next() {
		var det Detection
		if err = rows.Scan(&det.ID, &det.VideoID, &det.Frame,
			&det.BBox[0], &det.BBox[1], &det.BBox[2], &det.BBox[3],
			&det.Confidence, &det.ClassID, &det.ClassName); err != nil {
			return nil, err
		}
		dets = append(dets, det)
	}
	err = rows.Err()
	return dets, err
}

// GetStats counts videos by status and stored detections.
func (d *Database) GetStats(ctx context.Context) (metrics.Stats, error) {
	start := time.Now()
	var err error
	defer func() { recordQuery("stats", start, err) }()

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats := metrics.Stats{VideosByStatus: map[string]int{}}

	rows, err := d.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM videos GROUP BY status`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var n int
		if err = rows.Scan(&status, &n); err != nil {
			return stats, err
		}
		stats.VideosByStatus[status] = n
	}
	if err = rows.Err(); err != nil {
		return stats, err
	}

	err = d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM detections`).Scan(&stats.TotalDetections)
	return stats, err
}
