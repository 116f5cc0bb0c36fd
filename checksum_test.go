package schemalane

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksumDeterministic(t *testing.T) {
	payload := []byte("CREATE TABLE users (id bigserial primary key);")
	assert.Equal(t, checksum(payload), checksum(payload))
}

func TestChecksumDiffersOnContentChange(t *testing.T) {
	a := checksum([]byte("select 1;"))
	b := checksum([]byte("select 2;"))
	assert.NotEqual(t, a, b)
}
