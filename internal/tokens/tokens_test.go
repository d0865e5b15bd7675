package tokens

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	token, err := Generate()
	require.NoError(t, err)

	assert.Len(t, token, 40)

	_, err = hex.DecodeString(token)
	assert.NoError(t, err)

	other, err := Generate()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestHash(t *testing.T) {
	assert.Equal(t, Hash("abc"), Hash("abc"))
	assert.NotEqual(t, Hash("abc"), Hash("abd"))
	assert.Len(t, Hash("abc"), 64)
}
