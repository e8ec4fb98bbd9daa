package docindex

import "testing"

func TestBM25RanksMatchingDocumentHigher(t *testing.T) {
	idx := newBM25Index()
	idx.Add("a", "authentication handler validates bearer tokens")
	idx.Add("b", "database migration helper for schema changes")

	results := idx.Search("authentication tokens", 5)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].id != "a" {
		t.Fatalf("expected doc a to rank first, got %s", results[0].id)
	}
}

func TestBM25RemoveDropsDocumentFromResults(t *testing.T) {
	idx := newBM25Index()
	idx.Add("a", "authentication handler")
	idx.Remove("a")

	results := idx.Search("authentication", 5)
	if len(results) != 0 {
		t.Fatalf("expected no results after removal, got %d", len(results))
	}
}

func TestTokenizeStemsAndLowercases(t *testing.T) {
	tokens := tokenize("Authentication Authenticating AUTHENTICATE")
	stem := tokens[0]
	for _, tok := range tokens[1:] {
		if tok != stem {
			t.Fatalf("expected all forms to stem identically, got %v", tokens)
		}
	}
}
