package encoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
)

func TestCreate_Unconfigured(t *testing.T) {
	_, err := Create(domain.EncoderSettings{})
	assert.ErrorIs(t, err, domain.ErrEncoderUnavailable)

	_, err = Create(domain.EncoderSettings{Provider: domain.EncoderProviderOllama})
	assert.ErrorIs(t, err, domain.ErrEncoderUnavailable, "a provider without a model is incomplete")
}

func TestCreate_Ollama(t *testing.T) {
	enc, err := Create(domain.EncoderSettings{
		Provider:   domain.EncoderProviderOllama,
		Model:      "arabert-legal-v2",
		Dimensions: 768,
	})
	require.NoError(t, err)
	defer enc.Close()

	assert.Equal(t, "arabert-legal-v2", enc.Identifier())
	assert.Equal(t, 768, enc.Dimensions())
}

func TestCreate_OpenAI(t *testing.T) {
	enc, err := Create(domain.EncoderSettings{
		Provider: domain.EncoderProviderOpenAI,
		Model:    "text-embedding-3-small",
		APIKey:   "sk-test",
	})
	require.NoError(t, err)
	defer enc.Close()

	assert.Equal(t, "text-embedding-3-small", enc.Identifier())
	assert.Equal(t, 1536, enc.Dimensions())
}

func TestCreate_OpenAI_MissingKey(t *testing.T) {
	_, err := Create(domain.EncoderSettings{
		Provider: domain.EncoderProviderOpenAI,
		Model:    "text-embedding-3-small",
	})
	assert.Error(t, err)
}
