package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentEscapesEmbeddedQuotes(t *testing.T) {
	assert.Equal(t, `"foo"`, QuoteIdent("foo"))
	assert.Equal(t, `"fo""o"`, QuoteIdent(`fo"o`))
}

func TestQualifiedTable(t *testing.T) {
	assert.Equal(t, `"public"."flyway_schema_history"`, QualifiedTable("public", "flyway_schema_history"))
}
