package prompt

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticNext(t *testing.T) {
	var src Static
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		p, err := src.Next(context.Background())
		require.NoError(t, err)
		assert.NotEmpty(t, p)
		seen[p] = true
	}
	// every draw comes from the fixed list
	for p := range seen {
		assert.Contains(t, sentences, p)
	}
}
