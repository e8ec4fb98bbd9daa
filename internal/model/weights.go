package model

import "time"

// UseCase is a retrieval preset that selects default type weights and
// rerank behaviour.
type UseCase string

const (
	UseCaseFIM        UseCase = "fim"
	UseCaseSearch     UseCase = "search"
	UseCaseNavigation UseCase = "navigation"
)

// LearnedWeights are the per-use-case ranking parameters maintained by the
// Learned Weights Store (C9).
type LearnedWeights struct {
	UseCase            UseCase
	VectorWeight       float64
	BM25Weight         float64
	DocumentTypeWeights map[DocumentType]float64
	FileBoosts         map[string]float64
	QueryPatterns      map[string]float64
	FeedbackCount      int
	Confidence         float64 // in [0,1]
	LastUpdated        time.Time
}

// DefaultStaticTypeWeights is the §9 glossary's closed default weighting,
// used whenever a use case has insufficient feedback to blend.
var DefaultStaticTypeWeights = map[DocumentType]float64{
	DocCodeChunk:    0.25,
	DocSymbolSummary: 0.15,
	DocFileSummary:  0.12,
	DocIdiom:        0.12,
	DocFrameworkDoc: 0.10,
	DocUsageExample: 0.08,
	DocProjectDoc:   0.05,
	DocBestPractice: 0.05,
	DocAPIReference: 0.05,
	DocAntiPattern:  0.03,
}

// DefaultRRFWeights is the §9 glossary's closed default fusion weighting.
const (
	DefaultVectorWeight = 0.6
	DefaultBM25Weight   = 0.4
)
