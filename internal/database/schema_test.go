package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmbeddingColumnDDLUsesConfiguredDimension(t *testing.T) {
	assert.Contains(t, embeddingColumnDDL(768), "vector(768)")
	assert.Contains(t, embeddingColumnDDL(4), "vector(4)")
}

func TestEmbeddingColumnDDLDefaultsBadDimension(t *testing.T) {
	assert.Contains(t, embeddingColumnDDL(0), "vector(512)")
	assert.Contains(t, embeddingColumnDDL(-1), "vector(512)")
}

func TestEmbeddingColumnDDLIsIdempotent(t *testing.T) {
	assert.Contains(t, embeddingColumnDDL(512), "ADD COLUMN IF NOT EXISTS")
}
