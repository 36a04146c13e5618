package recfile

import (
	"log/slog"

	"replaykit/internal/logging"
	"replaykit/internal/replay"
)

// Decoder turns replay container bytes into a Replay. It holds no mutable
// state, so one Decoder may be shared by concurrent callers.
type Decoder struct {
	logger *slog.Logger
}

// New returns a Decoder that writes debug diagnostics to logger. A nil
// logger discards them.
func New(logger *slog.Logger) *Decoder {
	return &Decoder{logger: logging.NewComponentLogger(logger, "recfile")}
}

// Decode decodes a complete replay with the default Decoder.
func Decode(data []byte) (*replay.Replay, error) {
	return New(nil).Decode(data)
}

// DecodeHeader decodes only the header of a replay with the default Decoder.
func DecodeHeader(data []byte) (replay.Header, error) {
	return New(nil).DecodeHeader(data)
}

type container struct {
	header replay.Header
	season Season
	body   []byte
	frames int
}

func (d *Decoder) open(data []byte, withBody bool) (container, error) {
	var out container
	kind, err := detectLayout(data)
	if err != nil {
		return out, err
	}
	frames, err := newFrameDecoder()
	if err != nil {
		return out, err
	}
	defer frames.Close()

	plain := data
	if kind == layoutUnchunked {
		if plain, err = frames.decompressWhole(data); err != nil {
			return out, err
		}
	}
	c := &cursor{b: plain}
	if err := skipPreamble(c); err != nil {
		return out, err
	}
	raw, err := readHeaderProps(c)
	if err != nil {
		return out, err
	}
	if out.header, out.season, err = buildHeader(raw); err != nil {
		return out, err
	}
	if !withBody {
		return out, nil
	}
	switch kind {
	case layoutChunked:
		out.body, out.frames, err = frames.decompressFrames(data, c.off)
		if err != nil {
			return out, err
		}
	default:
		out.body = plain[c.off:]
	}
	return out, nil
}

// DecodeHeader decodes the header and skips the round body.
func (d *Decoder) DecodeHeader(data []byte) (replay.Header, error) {
	c, err := d.open(data, false)
	if err != nil {
		return replay.Header{}, err
	}
	return c.header, nil
}

// Decode decodes the header and every recognised packet of the round body.
// Failures wrap ErrMalformedContainer, ErrUnsupportedVersion or
// ErrTruncatedInput.
func (d *Decoder) Decode(data []byte) (*replay.Replay, error) {
	c, err := d.open(data, true)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("container opened",
		logging.String("season", c.season.String()),
		logging.Int("code_version", c.header.CodeVersion),
		logging.Int("zstd_frames", c.frames),
		logging.Int("body_bytes", len(c.body)),
	)

	header := c.header
	state := newBodyState(&header, d.logger)
	if err := state.readBody(c.body, c.season); err != nil {
		return nil, err
	}
	if !state.deriveTeamRoles() {
		d.logger.Debug("team roles kept from spawn data", logging.Int("players", len(header.Players)))
	}
	state.roundEnd()
	for _, p := range header.Players {
		if p.Operator == 0 {
			logging.WarnWithContext(d.logger, "player has no operator", "operator_missing",
				logging.String("username", p.Username),
				logging.String(logging.FieldErrorHint, "the replay may predate operator selection"),
				logging.String(logging.FieldImpact, "operator reported as empty"),
			)
		}
	}
	return &replay.Replay{Header: header, MatchFeedback: state.feedback}, nil
}
