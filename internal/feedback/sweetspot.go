package feedback

import (
	"database/sql"
	"sort"
	"time"

	"github.com/zbeam/zbeam/internal/errors"
	"github.com/zbeam/zbeam/internal/tuner"
)

// topPerformerLimit is how many of the best historical attempts feed a
// sweet-spot rebuild.
const topPerformerLimit = 10

// SweetSpots is the read-mostly recommendation store: statistically derived
// "best" parameter sets mined from historically successful generations,
// pooled across all materials.
type SweetSpots struct {
	db *sql.DB
}

// NewSweetSpots wraps an open feedback database.
func NewSweetSpots(db *sql.DB) *SweetSpots {
	return &SweetSpots{db: db}
}

// Best returns the parameter snapshot of the single highest-scoring
// successful attempt for the component type, across every material. Returns
// (nil, nil) when no history exists yet.
func (s *SweetSpots) Best(componentType string) (*tuner.Params, error) {
	row := s.db.QueryRow(`
		SELECT gp.params_json
		FROM generation_parameters gp
		JOIN detection_results dr ON dr.id = gp.result_id
		WHERE dr.component_type = ? AND dr.success = 1
		ORDER BY dr.human_score DESC, dr.created_at DESC
		LIMIT 1`,
		componentType,
	)

	var snapshot string
	if err := row.Scan(&snapshot); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.NewInternal(err)
	}

	params, err := tuner.FromSnapshot([]byte(snapshot))
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &params, nil
}

// Recommendation returns the stored sweet-spot parameters for a component
// type, or (nil, 0, nil) when none has been rebuilt yet.
func (s *SweetSpots) Recommendation(componentType string) (*tuner.Params, int, error) {
	row := s.db.QueryRow(`
		SELECT params_json, sample_size
		FROM sweet_spot_recommendations
		WHERE component_type = ?`,
		componentType,
	)

	var snapshot string
	var sampleSize int
	if err := row.Scan(&snapshot, &sampleSize); err != nil {
		if err == sql.ErrNoRows {
			return nil, 0, nil
		}
		return nil, 0, errors.NewInternal(err)
	}

	params, err := tuner.FromSnapshot([]byte(snapshot))
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	return &params, sampleSize, nil
}

// Rebuild recomputes the sweet spot for a component type as the per-field
// median of the top-performing successful attempts, and stores it. Returns
// the sample size used (zero when there is no successful history).
func (s *SweetSpots) Rebuild(componentType string) (int, error) {
	rows, err := s.db.Query(`
		SELECT gp.params_json
		FROM generation_parameters gp
		JOIN detection_results dr ON dr.id = gp.result_id
		WHERE dr.component_type = ? AND dr.success = 1
		ORDER BY dr.human_score DESC
		LIMIT ?`,
		componentType, topPerformerLimit,
	)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var samples []tuner.Params
	for rows.Next() {
		var snapshot string
		if err := rows.Scan(&snapshot); err != nil {
			return 0, errors.NewInternal(err)
		}
		p, err := tuner.FromSnapshot([]byte(snapshot))
		if err != nil {
			return 0, errors.NewInternal(err)
		}
		samples = append(samples, p)
	}
	if err := rows.Err(); err != nil {
		return 0, errors.NewInternal(err)
	}
	if len(samples) == 0 {
		return 0, nil
	}

	median := medianParams(samples)
	snapshot, err := median.Snapshot()
	if err != nil {
		return 0, errors.NewInternal(err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sweet_spot_recommendations (component_type, params_json, sample_size, rebuilt_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(component_type) DO UPDATE SET
			params_json = excluded.params_json,
			sample_size = excluded.sample_size,
			rebuilt_at  = excluded.rebuilt_at`,
		componentType, string(snapshot), len(samples), time.Now().Unix(),
	)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return len(samples), nil
}

// medianParams computes the per-field median across parameter snapshots.
func medianParams(samples []tuner.Params) tuner.Params {
	collect := func(pick func(tuner.Params) float64) float64 {
		vals := make([]float64, len(samples))
		for i, s := range samples {
			vals[i] = pick(s)
		}
		return median(vals)
	}

	out := tuner.Params{
		Temperature:           collect(func(p tuner.Params) float64 { return p.Temperature }),
		FrequencyPenalty:      collect(func(p tuner.Params) float64 { return p.FrequencyPenalty }),
		PresencePenalty:       collect(func(p tuner.Params) float64 { return p.PresencePenalty }),
		ImperfectionTolerance: collect(func(p tuner.Params) float64 { return p.ImperfectionTolerance }),
		MaxTokens:             samples[0].MaxTokens,
		Voice:                 map[string]float64{},
	}

	sliders := map[string]bool{}
	for _, s := range samples {
		for k := range s.Voice {
			sliders[k] = true
		}
	}
	for k := range sliders {
		vals := make([]float64, 0, len(samples))
		for _, s := range samples {
			if v, ok := s.Voice[k]; ok {
				vals = append(vals, v)
			}
		}
		out.Voice[k] = median(vals)
	}
	return out
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
