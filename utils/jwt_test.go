package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndExtractClaims(t *testing.T) {
	token, err := GenerateToken("client-1", "client", time.Hour)
	require.NoError(t, err)

	sub, role, err := ExtractClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "client-1", sub)
	assert.Equal(t, "client", role)
}

func TestExtractClaims_Rejects(t *testing.T) {
	t.Run("expired", func(t *testing.T) {
		token, err := GenerateToken("client-1", "client", -time.Minute)
		require.NoError(t, err)
		_, _, err = ExtractClaims(token)
		assert.Error(t, err)
	})

	t.Run("missing role", func(t *testing.T) {
		token, err := GenerateToken("client-1", "", time.Hour)
		require.NoError(t, err)
		_, _, err = ExtractClaims(token)
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, _, err := ExtractClaims("not-a-token")
		assert.Error(t, err)
	})
}
