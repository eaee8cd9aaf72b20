package vectorstore

import (
	"strings"
	"testing"
)

func TestIsValidTableName(t *testing.T) {
	tests := []struct {
		name      string
		tableName string
		want      bool
	}{
		{"valid lowercase", "research_docs", true},
		{"valid with underscore prefix", "_embeddings", true},
		{"valid with numbers", "docs_2024", true},
		{"empty string", "", false},
		{"starts with number", "1docs", false},
		{"starts with uppercase", "Docs", false},
		{"contains hyphen", "research-docs", false},
		{"contains space", "research docs", false},
		{"sql injection attempt", "docs; DROP TABLE users", false},
		{"contains quotes", `docs"`, false},
		{"max length", strings.Repeat("a", 63), true},
		{"too long", strings.Repeat("a", 64), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isValidTableName(tt.tableName); got != tt.want {
				t.Errorf("isValidTableName(%q) = %v, want %v", tt.tableName, got, tt.want)
			}
		})
	}
}

func TestNewPGVectorStoreRejectsInvalidTableName(t *testing.T) {
	if _, err := NewPGVectorStore(nil, "bad-name"); err == nil {
		t.Fatal("expected error for invalid table name")
	}
	if _, err := NewPGVectorStore(nil, "good_name"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
