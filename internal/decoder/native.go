package decoder

import (
	"context"
	"log/slog"

	"replaykit/internal/recfile"
	"replaykit/internal/replay"
)

// Native decodes replays in-process.
type Native struct {
	dec *recfile.Decoder
}

// NewNative returns the built-in container decoder.
func NewNative(logger *slog.Logger) *Native {
	return &Native{dec: recfile.New(logger)}
}

// Name identifies the decoder in logs and doctor output.
func (n *Native) Name() string { return "native" }

// Decode checks ctx once and then decodes synchronously.
func (n *Native) Decode(ctx context.Context, data []byte) (*replay.Replay, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return n.dec.Decode(data)
}
