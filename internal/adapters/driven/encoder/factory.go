// Package encoder provides the registry of encoder variants.
//
// Variants are registered explicitly and selected at configuration time
// through domain.EncoderSettings; nothing dispatches on model names at
// runtime. The two encoder families known to produce materially different
// similarity distributions (general-purpose contextual vs sentence-tuned)
// are both served through the same capability interface, which is why the
// similarity threshold lives in configuration rather than code.
package encoder

import (
	"fmt"
	"time"

	ollamaenc "github.com/qanun-labs/qanun-cli/internal/adapters/driven/encoder/ollama"
	openaienc "github.com/qanun-labs/qanun-cli/internal/adapters/driven/encoder/openai"
	"github.com/qanun-labs/qanun-cli/internal/core/domain"
	"github.com/qanun-labs/qanun-cli/internal/core/ports/driven"
)

// Factory creates an encoder from settings.
type Factory func(settings domain.EncoderSettings) (driven.Encoder, error)

// registry maps provider names to factories. Extended here, never at
// runtime.
var registry = map[domain.EncoderProvider]Factory{
	domain.EncoderProviderOllama: createOllama,
	domain.EncoderProviderOpenAI: createOpenAI,
}

// Create builds the encoder variant named by the settings.
func Create(settings domain.EncoderSettings) (driven.Encoder, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("encoder settings incomplete: %w", domain.ErrEncoderUnavailable)
	}

	factory, ok := registry[settings.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, settings.Provider)
	}

	return factory(settings)
}

func createOllama(settings domain.EncoderSettings) (driven.Encoder, error) {
	return ollamaenc.New(ollamaenc.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
		Timeout:    60 * time.Second,
	}), nil
}

func createOpenAI(settings domain.EncoderSettings) (driven.Encoder, error) {
	return openaienc.New(openaienc.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: settings.Dimensions,
	})
}
