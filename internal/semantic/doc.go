// Package semantic provides name-level matching primitives: fuzzy string
// similarity, word stemming, and identifier-name splitting. The fuzzy
// matcher is what C8's symbol-name hint boost and C10's query-scoped
// repo-map relevance use. Adapted from the teacher's internal/semantic package, rewired
// from its annotation-vocabulary use case onto SymbolDefinition.Name and
// Document.Payload.Name matching.
package semantic
