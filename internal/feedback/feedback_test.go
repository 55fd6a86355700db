package feedback

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/zbeam/zbeam/internal/tuner"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "feedback.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func record(t *testing.T, log *Log, material string, success bool, humanScore, temp float64) string {
	t.Helper()
	params := tuner.Baseline("description")
	params.Temperature = temp

	id, err := log.Record(Attempt{
		Material:      material,
		ComponentType: "description",
		AttemptNum:    1,
		Success:       success,
		AIScore:       1 - humanScore/100,
		HumanScore:    humanScore,
		Readable:      true,
		Params:        params,
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	return id
}

func TestRecordAndSuccessRate(t *testing.T) {
	db := newTestDB(t)
	log := NewLog(db)

	record(t, log, "Aluminum", true, 80, 0.8)
	record(t, log, "Aluminum", false, 40, 0.9)
	record(t, log, "Steel", true, 75, 0.7)

	successes, total, err := log.SuccessRate("description", 30*24*time.Hour)
	if err != nil {
		t.Fatalf("SuccessRate failed: %v", err)
	}
	if successes != 2 || total != 3 {
		t.Errorf("SuccessRate = (%d, %d), want (2, 3)", successes, total)
	}

	// Other component types have no history.
	successes, total, err = log.SuccessRate("faq", 30*24*time.Hour)
	if err != nil {
		t.Fatalf("SuccessRate failed: %v", err)
	}
	if successes != 0 || total != 0 {
		t.Errorf("SuccessRate = (%d, %d), want (0, 0)", successes, total)
	}
}

func TestSuccessRate_WindowExcludesOldRows(t *testing.T) {
	db := newTestDB(t)
	log := NewLog(db)

	old := Attempt{
		Material:      "Aluminum",
		ComponentType: "description",
		AttemptNum:    1,
		Success:       true,
		HumanScore:    90,
		Readable:      true,
		Params:        tuner.Baseline("description"),
		CreatedAt:     time.Now().Add(-45 * 24 * time.Hour),
	}
	if _, err := log.Record(old); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	_, total, err := log.SuccessRate("description", 30*24*time.Hour)
	if err != nil {
		t.Fatalf("SuccessRate failed: %v", err)
	}
	if total != 0 {
		t.Errorf("total = %d, rows older than the window must not count", total)
	}
}

func TestSweetSpots_BestPoolsAcrossMaterials(t *testing.T) {
	db := newTestDB(t)
	log := NewLog(db)
	spots := NewSweetSpots(db)

	// No history yet.
	best, err := spots.Best("description")
	if err != nil {
		t.Fatalf("Best failed: %v", err)
	}
	if best != nil {
		t.Fatal("expected nil params with no history")
	}

	record(t, log, "Aluminum", true, 70, 0.80)
	record(t, log, "Steel", true, 92, 0.65) // best, from a different material
	record(t, log, "Copper", false, 95, 0.99)

	best, err = spots.Best("description")
	if err != nil {
		t.Fatalf("Best failed: %v", err)
	}
	if best == nil {
		t.Fatal("expected params")
	}
	if best.Temperature != 0.65 {
		t.Errorf("Best temperature = %v, want 0.65 (global pooling, failures excluded)", best.Temperature)
	}
}

func TestSweetSpots_Rebuild(t *testing.T) {
	db := newTestDB(t)
	log := NewLog(db)
	spots := NewSweetSpots(db)

	record(t, log, "Aluminum", true, 80, 0.6)
	record(t, log, "Steel", true, 85, 0.8)
	record(t, log, "Copper", true, 90, 1.0)

	n, err := spots.Rebuild("description")
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if n != 3 {
		t.Errorf("sample size = %d, want 3", n)
	}

	rec, sampleSize, err := spots.Recommendation("description")
	if err != nil {
		t.Fatalf("Recommendation failed: %v", err)
	}
	if rec == nil || sampleSize != 3 {
		t.Fatalf("Recommendation = (%v, %d)", rec, sampleSize)
	}
	if rec.Temperature != 0.8 {
		t.Errorf("median temperature = %v, want 0.8", rec.Temperature)
	}

	// Rebuild again with more history: upsert, not duplicate.
	record(t, log, "Brass", true, 99, 0.7)
	if _, err := spots.Rebuild("description"); err != nil {
		t.Fatalf("second Rebuild failed: %v", err)
	}
	rec, sampleSize, err = spots.Recommendation("description")
	if err != nil {
		t.Fatalf("Recommendation failed: %v", err)
	}
	if sampleSize != 4 {
		t.Errorf("sample size after rebuild = %d, want 4", sampleSize)
	}
	if rec.Temperature != 0.75 {
		t.Errorf("median of [0.6 0.7 0.8 1.0] = %v, want 0.75", rec.Temperature)
	}
}

func TestRebuild_NoHistory(t *testing.T) {
	db := newTestDB(t)
	spots := NewSweetSpots(db)

	n, err := spots.Rebuild("faq")
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	if n != 0 {
		t.Errorf("sample size = %d, want 0", n)
	}
}

func TestOpen_Migrates(t *testing.T) {
	db := newTestDB(t)

	version, err := userVersion(db)
	if err != nil {
		t.Fatalf("userVersion failed: %v", err)
	}
	if version != CurrentSchemaVersion {
		t.Errorf("user_version = %d, want %d", version, CurrentSchemaVersion)
	}
}
