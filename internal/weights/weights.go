// Package weights implements the Learned Weights Store (C9): per-use-case
// blending of static defaults with feedback-derived overrides.
package weights

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/standardbeagle/semindex/internal/model"
	"github.com/standardbeagle/semindex/internal/store"
)

const (
	defaultMinSamples  = 5
	positiveMultiplier = 1.1
	negativeMultiplier = 1.0 / 1.1
	maxFileBoost       = 2.0
	minFileBoost       = 0.5
)

// Store persists one LearnedWeights record per use case.
type Store struct {
	db *sql.DB
}

func New(s *store.Store) *Store {
	return &Store{db: s.DB()}
}

// ActiveWeights is what GetActiveWeights returns: vector/bm25 split, type
// weights, and file boosts, already blended if feedback is sufficient.
type ActiveWeights struct {
	VectorWeight       float64
	BM25Weight         float64
	DocumentTypeWeights map[model.DocumentType]float64
	FileBoosts         map[string]float64
}

// GetActiveWeights returns static defaults until feedback_count reaches
// min_samples (default 5), after which it blends learned weights in
// proportion to confidence: confidence·learned + (1−confidence)·defaults.
func (s *Store) GetActiveWeights(ctx context.Context, useCase model.UseCase) (ActiveWeights, error) {
	learned, err := s.load(ctx, useCase)
	if err != nil {
		return ActiveWeights{}, err
	}
	defaults := ActiveWeights{
		VectorWeight:        model.DefaultVectorWeight,
		BM25Weight:          model.DefaultBM25Weight,
		DocumentTypeWeights: model.DefaultStaticTypeWeights,
		FileBoosts:          map[string]float64{},
	}
	if learned == nil || learned.FeedbackCount < defaultMinSamples {
		return defaults, nil
	}

	c := learned.Confidence
	blended := ActiveWeights{
		VectorWeight: c*learned.VectorWeight + (1-c)*defaults.VectorWeight,
		BM25Weight:   c*learned.BM25Weight + (1-c)*defaults.BM25Weight,
		DocumentTypeWeights: blendTypeWeights(learned.DocumentTypeWeights, defaults.DocumentTypeWeights, c),
		FileBoosts: learned.FileBoosts,
	}
	return blended, nil
}

func blendTypeWeights(learned, defaults map[model.DocumentType]float64, confidence float64) map[model.DocumentType]float64 {
	out := make(map[model.DocumentType]float64, len(defaults))
	for docType, def := range defaults {
		l, ok := learned[docType]
		if !ok {
			l = def
		}
		out[docType] = confidence*l + (1-confidence)*def
	}
	return out
}

// RecordFeedback adjusts file_boosts for a query's selected (positive) and
// negative document paths, then recomputes confidence from the updated
// sample count.
func (s *Store) RecordFeedback(ctx context.Context, useCase model.UseCase, selectedPaths, negativePaths []string) error {
	learned, err := s.load(ctx, useCase)
	if err != nil {
		return err
	}
	if learned == nil {
		learned = &model.LearnedWeights{
			UseCase:             useCase,
			VectorWeight:        model.DefaultVectorWeight,
			BM25Weight:          model.DefaultBM25Weight,
			DocumentTypeWeights: map[model.DocumentType]float64{},
			FileBoosts:          map[string]float64{},
			QueryPatterns:       map[string]float64{},
		}
	}

	for _, path := range selectedPaths {
		current := boostOrDefault(learned.FileBoosts, path)
		learned.FileBoosts[path] = stepTowardBound(current, maxFileBoost, positiveMultiplier-1)
	}
	for _, path := range negativePaths {
		current := boostOrDefault(learned.FileBoosts, path)
		learned.FileBoosts[path] = stepTowardBound(current, minFileBoost, negativeMultiplier-1)
	}

	learned.FeedbackCount++
	learned.Confidence = logisticConfidence(learned.FeedbackCount)
	learned.LastUpdated = time.Now()

	return s.save(ctx, learned)
}

func boostOrDefault(boosts map[string]float64, path string) float64 {
	if b, ok := boosts[path]; ok {
		return b
	}
	return 1.0
}

// stepTowardBound applies a bounded multiplicative nudge (stepFraction,
// e.g. +0.1 for a positive event, -1/11 for a negative one) scaled by how
// much room remains between current and bound, so repeated feedback
// converges on the clamp instead of oscillating against it.
func stepTowardBound(current, bound, stepFraction float64) float64 {
	room := bound - current
	denom := bound - 1.0
	if denom == 0 {
		denom = 1
	}
	factor := room / denom
	if factor < 0 {
		factor = 0
	}
	return clamp(current+current*stepFraction*factor, minFileBoost, maxFileBoost)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// logisticConfidence grows from ~0.38 with no feedback toward 1 as
// feedback accumulates, passing 0.5 at min_samples and ~0.73 ten samples
// later, and flattening out past a few dozen samples so a handful of
// noisy signals can't swing weights sharply.
func logisticConfidence(sampleCount int) float64 {
	x := float64(sampleCount - defaultMinSamples)
	return 1.0 / (1.0 + math.Exp(-x/10.0))
}

func (s *Store) load(ctx context.Context, useCase model.UseCase) (*model.LearnedWeights, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM learned_weights WHERE use_case = ?", string(useCase)).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load learned weights for %s: %w", useCase, err)
	}
	var lw model.LearnedWeights
	if err := json.Unmarshal([]byte(payload), &lw); err != nil {
		return nil, fmt.Errorf("decode learned weights for %s: %w", useCase, err)
	}
	return &lw, nil
}

func (s *Store) save(ctx context.Context, lw *model.LearnedWeights) error {
	payload, err := json.Marshal(lw)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO learned_weights(use_case, payload) VALUES (?, ?)
		ON CONFLICT(use_case) DO UPDATE SET payload=excluded.payload
	`, string(lw.UseCase), string(payload))
	if err != nil {
		return fmt.Errorf("save learned weights for %s: %w", lw.UseCase, err)
	}
	return nil
}
