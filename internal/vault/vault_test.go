package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	digest, err := Hash("secret1")
	require.NoError(t, err)
	require.NotEmpty(t, digest)
	assert.NotEqual(t, "secret1", digest)

	assert.True(t, Verify("secret1", digest))
	assert.False(t, Verify("secret2", digest))
	assert.False(t, Verify("", digest))
}

func TestHashIsSalted(t *testing.T) {
	d1, err := Hash("secret1")
	require.NoError(t, err)
	d2, err := Hash("secret1")
	require.NoError(t, err)
	// same password, different salt, different digest
	assert.NotEqual(t, d1, d2)
	assert.True(t, Verify("secret1", d1))
	assert.True(t, Verify("secret1", d2))
}
