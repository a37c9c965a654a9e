// Package database stores uploaded videos and their detection records.
//
// Two backends share one schema:
//   - SQLite (github.com/mattn/go-sqlite3), the default, in WAL mode with
//     foreign keys enforced.
//   - PostgreSQL (github.com/lib/pq), selected when DATABASE_URL is a
//     postgres:// URL. Queries are written with ? placeholders and rebound
//     to $n.
//
// Tables:
//   - videos: one row per upload, plus the outcome of its latest run
//   - detections: one row per recorded detection, keyed by video id and
//     frame index
//
// ReplaceDetections deletes and re-inserts a video's detection set in a
// single transaction, so processing a video again overwrites its records.
// Every query is timed into the object_detection_db_* metrics.
package database
