package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"object-detection/internal/mediatypes"
	"object-detection/internal/vision"
)

func setupTestDB(t testing.TB) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createVideo(t testing.TB, db *Database, id string) *Video {
	t.Helper()
	v := &Video{ID: id, Filename: id + ".mp4", FilePath: "/uploads/" + id + ".mp4"}
	if err := db.CreateVideo(context.Background(), v); err != nil {
		t.Fatalf("CreateVideo(%s): %v", id, err)
	}
	return v
}

func TestRecordQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "successful query", err: nil},
		{name: "failed query", err: errors.New("test error")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("recordQuery panicked: %v", r)
				}
			}()
			recordQuery("test_operation", time.Now(), tt.err)
		})
	}
}

func TestNewDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
	if db.Dialect() != DialectSQLite {
		t.Errorf("Dialect() = %q", db.Dialect())
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() = %v", err)
	}
}

func TestNewDatabaseReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	db, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	createVideo(t, db, "persisted")
	_ = db.Close()

	db, err = New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("second New() failed: %v", err)
	}
	defer db.Close()

	if _, err := db.GetVideo(context.Background(), "persisted"); err != nil {
		t.Errorf("GetVideo after reopen: %v", err)
	}
}

func TestNewDatabaseBadDirectory(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "missing", "sub", "test.db"))
	if err == nil {
		t.Error("expected error for nonexistent directory")
	}
}

func TestVideoLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	v := createVideo(t, db, "vid-1")
	if v.Status != mediatypes.StatusUploaded {
		t.Errorf("default status = %q", v.Status)
	}

	got, err := db.GetVideo(ctx, "vid-1")
	if err != nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if got.Filename != "vid-1.mp4" || got.Status != mediatypes.StatusUploaded {
		t.Errorf("GetVideo = %+v", got)
	}

	if err := db.SetVideoStatus(ctx, "vid-1", mediatypes.StatusProcessing, ""); err != nil {
		t.Fatalf("SetVideoStatus: %v", err)
	}

	outcome := RunOutcome{
		Status:          mediatypes.StatusDegraded,
		Width:           640,
		Height:          480,
		FPS:             29.97,
		ResultPath:      "/results/vid-1_raw.mp4",
		DetectionCount:  3,
		FramesProcessed: 90,
		Error:           "transcode failed",
	}
	if err := db.RecordOutcome(ctx, "vid-1", outcome); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	got, err = db.GetVideo(ctx, "vid-1")
	if err != nil {
		t.Fatalf("GetVideo: %v", err)
	}
	if got.Status != mediatypes.StatusDegraded || got.Width != 640 || got.FPS != 29.97 ||
		got.ResultPath != outcome.ResultPath || got.DetectionCount != 3 || got.FramesProcessed != 90 ||
		got.Error != "transcode failed" {
		t.Errorf("after RecordOutcome = %+v", got)
	}
}

func TestVideoNotFound(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.GetVideo(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetVideo = %v, want ErrNotFound", err)
	}
	if err := db.SetVideoStatus(ctx, "nope", mediatypes.StatusFailed, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("SetVideoStatus = %v, want ErrNotFound", err)
	}
}

func TestCreateVideoValidation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	if err := db.CreateVideo(ctx, &Video{}); err == nil {
		t.Error("expected error for empty id")
	}

	createVideo(t, db, "dup")
	if err := db.CreateVideo(ctx, &Video{ID: "dup", Filename: "a", FilePath: "b"}); err == nil {
		t.Error("expected error for duplicate id")
	}
}

func TestListVideos(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	empty, err := db.ListVideos(ctx)
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("ListVideos on empty db = %#v, want empty slice", empty)
	}

	old := &Video{ID: "old", Filename: "a.mp4", FilePath: "/a.mp4", CreatedAt: time.Now().Add(-time.Hour)}
	if err := db.CreateVideo(ctx, old); err != nil {
		t.Fatal(err)
	}
	createVideo(t, db, "new")

	videos, err := db.ListVideos(ctx)
	if err != nil {
		t.Fatalf("ListVideos: %v", err)
	}
	if len(videos) != 2 || videos[0].ID != "new" || videos[1].ID != "old" {
		t.Errorf("ListVideos order = %+v", videos)
	}
}

func TestReplaceDetections(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	createVideo(t, db, "vid")

	first := []Detection{
		NewDetection("vid", 2, vision.Detection{Box: vision.BBox{X1: 1, Y1: 2, X2: 3, Y2: 4}, Confidence: 0.5, ClassID: 0}),
		NewDetection("vid", 0, vision.Detection{Box: vision.BBox{X1: 10, Y1: 20, X2: 30, Y2: 40}, Confidence: 0.91, ClassID: 0}),
		NewDetection("vid", 2, vision.Detection{Box: vision.BBox{X1: 5, Y1: 6, X2: 7, Y2: 8}, Confidence: 0.7, ClassID: 0}),
	}

	n, err := db.ReplaceDetections(ctx, "vid", first)
	if err != nil {
		t.Fatalf("ReplaceDetections: %v", err)
	}
	if n != 3 {
		t.Errorf("ReplaceDetections wrote %d rows, want 3", n)
	}

	got, err := db.GetDetections(ctx, "vid")
	if err != nil {
		t.Fatalf("GetDetections: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("GetDetections returned %d rows, want 3", len(got))
	}
	if got[0].Frame != 0 || got[1].Frame != 2 || got[2].Frame != 2 {
		t.Errorf("detections not ordered by frame: %+v", got)
	}
	if got[1].Confidence != 0.5 || got[2].Confidence != 0.7 {
		t.Errorf("same-frame detections not in insertion order: %+v", got)
	}
	if got[0].BBox != [4]float64{10, 20, 30, 40} || got[0].ClassName != "person" || got[0].VideoID != "vid" {
		t.Errorf("detection round trip = %+v", got[0])
	}

	// A second run overwrites rather than appends.
	second := []Detection{
		NewDetection("vid", 1, vision.Detection{Box: vision.BBox{X1: 1, Y1: 1, X2: 2, Y2: 2}, Confidence: 0.8, ClassID: 0}),
	}
	if _, err := db.ReplaceDetections(ctx, "vid", second); err != nil {
		t.Fatalf("ReplaceDetections: %v", err)
	}
	got, err = db.GetDetections(ctx, "vid")
	if err != nil {
		t.Fatalf("GetDetections: %v", err)
	}
	if len(got) != 1 || got[0].Frame != 1 {
		t.Errorf("after replace = %+v", got)
	}
}

func TestReplaceDetectionsUnknownVideoRollsBack(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	_, err := db.ReplaceDetections(ctx, "ghost", []Detection{
		NewDetection("ghost", 0, vision.Detection{Confidence: 0.9}),
	})
	if err == nil {
		t.Fatal("expected foreign key violation for unknown video")
	}

	got, err := db.GetDetections(ctx, "ghost")
	if err != nil {
		t.Fatalf("GetDetections: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("partial write visible after rollback: %+v", got)
	}
}

func TestClearDetections(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	createVideo(t, db, "vid")

	if _, err := db.ReplaceDetections(ctx, "vid", []Detection{
		NewDetection("vid", 0, vision.Detection{Confidence: 0.9}),
		NewDetection("vid", 1, vision.Detection{Confidence: 0.8}),
	}); err != nil {
		t.Fatal(err)
	}

	n, err := db.ClearDetections(ctx, "vid")
	if err != nil {
		t.Fatalf("ClearDetections: %v", err)
	}
	if n != 2 {
		t.Errorf("ClearDetections removed %d rows, want 2", n)
	}
}

func TestGetStats(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	createVideo(t, db, "a")
	createVideo(t, db, "b")
	if err := db.SetVideoStatus(ctx, "b", mediatypes.StatusDone, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := db.ReplaceDetections(ctx, "b", []Detection{NewDetection("b", 0, vision.Detection{Confidence: 0.9})}); err != nil {
		t.Fatal(err)
	}

	stats, err := db.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.VideosByStatus["uploaded"] != 1 || stats.VideosByStatus["done"] != 1 {
		t.Errorf("VideosByStatus = %v", stats.VideosByStatus)
	}
	if stats.TotalDetections != 1 {
		t.Errorf("TotalDetections = %d, want 1", stats.TotalDetections)
	}
}

func TestRebind(t *testing.T) {
	sqlite := &Database{dialect: DialectSQLite}
	pg := &Database{dialect: DialectPostgres}
	q := "SELECT * FROM t WHERE a = ? AND b = ?"

	if got := sqlite.rebind(q); got != q {
		t.Errorf("sqlite rebind = %q", got)
	}
	if got := pg.rebind(q); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("postgres rebind = %q", got)
	}
}

func TestIsPostgresURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"postgres://user:pw@localhost/db", true},
		{"postgresql://localhost/db", true},
		{"", false},
		{"/data/detections.db", false},
		{"mysql://localhost", false},
	}
	for _, tt := range tests {
		if got := IsPostgresURL(tt.url); got != tt.want {
			t.Errorf("IsPostgresURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestRedactDSN(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"postgres://user:secret@db:5432/app?sslmode=disable", "postgres://user:****@db:5432/app?sslmode=disable"},
		{"postgres://user@db/app", "postgres://user@db/app"},
		{"postgres://db/app", "postgres://db/app"},
	}
	for _, tt := range tests {
		if got := redactDSN(tt.in); got != tt.want {
			t.Errorf("redactDSN(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestPostgres runs the store against a live server when TEST_DATABASE_URL is set.
func TestPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if !IsPostgresURL(url) {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	db, err := NewPostgres(ctx, url)
	if err != nil {
		t.Fatalf("NewPostgres: %v", err)
	}
	defer db.Close()

	id := "pg-" + time.Now().Format("150405.000000")
	if err := db.CreateVideo(ctx, &Video{ID: id, Filename: "a.mp4", FilePath: "/a.mp4"}); err != nil {
		t.Fatalf("CreateVideo: %v", err)
	}
	n, err := db.ReplaceDetections(ctx, id, []Detection{NewDetection(id, 4, vision.Detection{Confidence: 0.6})})
	if err != nil || n != 1 {
		t.Fatalf("ReplaceDetections = %d, %v", n, err)
	}
	got, err := db.GetDetections(ctx, id)
	if err != nil || len(got) != 1 || got[0].Frame != 4 {
		t.Errorf("GetDetections = %+v, %v", got, err)
	}
}
