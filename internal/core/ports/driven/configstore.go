package driven

import (
	"context"

	"github.com/qanun-labs/qanun-cli/internal/core/domain"
)

// ConfigStore persists user configuration.
type ConfigStore interface {
	// Load returns the stored settings with defaults applied.
	Load() (domain.Settings, error)

	// Save persists the settings.
	Save(settings domain.Settings) error

	// Watch invokes onChange with freshly loaded settings whenever the
	// backing file changes, until ctx is cancelled. Threshold calibration
	// is encoder-dependent, so operators adjust it without restarting.
	Watch(ctx context.Context, onChange func(domain.Settings)) error
}
