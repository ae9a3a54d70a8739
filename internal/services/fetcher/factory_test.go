package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/smartcrawl/internal/common"
)

func TestNew_SelectsProvider(t *testing.T) {
	t.Setenv("FIRECRAWL_API_KEY", "")
	t.Setenv("SMARTCRAWL_FIRECRAWL_API_KEY", "")

	config := common.NewDefaultConfig()
	_, err := New(config, arbor.NewNoOpLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConfiguration)
	assert.Equal(t, "FIRECRAWL_API_KEY not found in environment or config", err.Error())

	config.Firecrawl.APIKey = "fc-test"
	f, err := New(config, arbor.NewNoOpLogger())
	require.NoError(t, err)
	assert.Equal(t, ProviderFirecrawl, f.Name())

	config.Fetcher.Provider = "direct"
	f, err = New(config, arbor.NewNoOpLogger())
	require.NoError(t, err)
	assert.Equal(t, ProviderDirect, f.Name())

	config.Fetcher.Provider = "carrier-pigeon"
	_, err = New(config, arbor.NewNoOpLogger())
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestNewLimiter(t *testing.T) {
	assert.True(t, NewLimiter(0).Allow())
	assert.True(t, NewLimiter(0).Allow())

	limited := NewLimiter(time.Hour)
	assert.True(t, limited.Allow())
	assert.False(t, limited.Allow())
}
