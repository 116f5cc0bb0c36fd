package schemalane

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionVector(t *testing.T) {
	v, err := parseVersionVector("1.20.3")
	require.NoError(t, err)
	assert.Equal(t, VersionVector{1, 20, 3}, v)

	v, err = parseVersionVector("2_1")
	require.NoError(t, err)
	assert.Equal(t, VersionVector{2, 1}, v)

	_, err = parseVersionVector("1.2a")
	assert.Error(t, err)

	_, err = parseVersionVector("")
	assert.Error(t, err)
}

func TestVersionVectorCompareNumericNotLexicographic(t *testing.T) {
	v2, err := parseVersionVector("2")
	require.NoError(t, err)
	v10, err := parseVersionVector("10")
	require.NoError(t, err)

	assert.Equal(t, -1, v2.Compare(v10))
	assert.Equal(t, 1, v10.Compare(v2))
	assert.Equal(t, 0, v2.Compare(v2))
}

func TestVersionVectorComparePrefixShorterIsLess(t *testing.T) {
	v2, err := parseVersionVector("2")
	require.NoError(t, err)
	v21, err := parseVersionVector("2.1")
	require.NoError(t, err)

	assert.Equal(t, -1, v2.Compare(v21))
	assert.Equal(t, 1, v21.Compare(v2))
}

func TestVersionVectorKeyDistinguishesUnequalVectors(t *testing.T) {
	a, _ := parseVersionVector("1.2")
	b, _ := parseVersionVector("1.20")
	assert.NotEqual(t, a.key(), b.key())
}
