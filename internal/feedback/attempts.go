package feedback

import (
	"crypto/rand"
	"database/sql"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/zbeam/zbeam/internal/errors"
	"github.com/zbeam/zbeam/internal/tuner"
)

// Attempt is one generation attempt's outcome. Every attempt is logged,
// accepted or not; rejected attempts feed parameter learning but are never
// written to the materials document.
type Attempt struct {
	ID            string
	Material      string
	ComponentType string
	AttemptNum    int
	Success       bool
	AIScore       float64
	HumanScore    float64
	Readable      bool
	Params        tuner.Params
	CreatedAt     time.Time
}

// Log is the append-only attempt repository.
type Log struct {
	db *sql.DB
}

// NewLog wraps an open feedback database.
func NewLog(db *sql.DB) *Log {
	return &Log{db: db}
}

// Record persists one attempt and its parameter snapshot. Assigns the
// attempt a fresh ULID when none is set.
func (l *Log) Record(a Attempt) (string, error) {
	if a.ID == "" {
		id, err := newULID()
		if err != nil {
			return "", errors.NewInternal(err)
		}
		a.ID = id
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	snapshot, err := a.Params.Snapshot()
	if err != nil {
		return "", errors.NewInternal(err)
	}

	tx, err := l.db.Begin()
	if err != nil {
		return "", errors.NewInternal(err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO detection_results
		(id, material, component_type, attempt_num, success, ai_score, human_score, readable, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Material, a.ComponentType, a.AttemptNum,
		boolToInt(a.Success), a.AIScore, a.HumanScore, boolToInt(a.Readable),
		a.CreatedAt.Unix(),
	)
	if err != nil {
		return "", errors.NewInternal(err)
	}

	_, err = tx.Exec(`
		INSERT INTO generation_parameters
		(result_id, temperature, frequency_penalty, presence_penalty, params_json)
		VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Params.Temperature, a.Params.FrequencyPenalty, a.Params.PresencePenalty,
		string(snapshot),
	)
	if err != nil {
		return "", errors.NewInternal(err)
	}

	if err := tx.Commit(); err != nil {
		return "", errors.NewInternal(err)
	}
	return a.ID, nil
}

// SuccessRate returns (successes, total) for a component type within the
// trailing window. The curriculum threshold derives its band from this.
func (l *Log) SuccessRate(componentType string, window time.Duration) (successes, total int, err error) {
	cutoff := time.Now().Add(-window).Unix()

	row := l.db.QueryRow(`
		SELECT COALESCE(SUM(success), 0), COUNT(*)
		FROM detection_results
		WHERE component_type = ? AND created_at >= ?`,
		componentType, cutoff,
	)
	if err := row.Scan(&successes, &total); err != nil {
		return 0, 0, errors.NewInternal(err)
	}
	return successes, total, nil
}

func newULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
