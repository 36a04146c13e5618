package decoder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"replaykit/internal/config"
	"replaykit/internal/replay"
	"replaykit/internal/services"
)

// Decoder turns a complete replay buffer into a Replay.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*replay.Replay, error)
	Name() string
}

// New returns the decoder selected by cfg.Decoder.Mode.
func New(cfg *config.Config, logger *slog.Logger) (Decoder, error) {
	if cfg == nil {
		return NewNative(logger), nil
	}
	switch cfg.Decoder.Mode {
	case "", config.DecoderModeNative:
		return NewNative(logger), nil
	case config.DecoderModeExternal:
		return NewExternal(ExternalOptions{
			Binary:  cfg.Decoder.Binary,
			Args:    cfg.Decoder.Args,
			Timeout: time.Duration(cfg.Decoder.TimeoutSeconds) * time.Second,
		}, logger), nil
	default:
		return nil, services.Wrap(services.ErrConfiguration, "decoder", "select",
			fmt.Sprintf("unknown mode %q", cfg.Decoder.Mode), nil)
	}
}
