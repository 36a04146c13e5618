package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"replaykit/internal/decoder"
	"replaykit/internal/logging"
	"replaykit/internal/replay"
	"replaykit/internal/services"
)

// ReplayExt is the file extension of round replays.
const ReplayExt = ".rec"

// ErrNotMatchFolder reports a directory without any round replays.
var ErrNotMatchFolder = errors.New("not a match folder")

// Options configures a Reader.
type Options struct {
	Decoder decoder.Decoder
	// Workers bounds concurrent round decodes. Values below one mean one.
	Workers int
	Logger  *slog.Logger
}

// Reader decodes the rounds of one match folder.
type Reader struct {
	dir     string
	paths   []string
	rounds  []*replay.Replay
	dec     decoder.Decoder
	workers int
	logger  *slog.Logger
}

// Open lists the round replays in dir. Nothing is decoded until Read or
// RoundAt.
func Open(dir string, opts Options) (*Reader, error) {
	paths, err := ListReplayFiles(dir)
	if err != nil {
		return nil, err
	}
	dec := opts.Decoder
	if dec == nil {
		dec = decoder.NewNative(opts.Logger)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Reader{
		dir:     dir,
		paths:   paths,
		rounds:  make([]*replay.Replay, len(paths)),
		dec:     dec,
		workers: workers,
		logger:  logging.NewComponentLogger(opts.Logger, "match"),
	}, nil
}

// ListReplayFiles returns the sorted .rec files directly inside dir.
func ListReplayFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list match folder: %w", err)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(name), ReplayExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotMatchFolder)
	}
	slices.Sort(paths)
	return paths, nil
}

// Dir returns the match folder.
func (m *Reader) Dir() string { return m.dir }

// Paths returns the round files in round order.
func (m *Reader) Paths() []string { return slices.Clone(m.paths) }

// NumRounds returns the number of round files.
func (m *Reader) NumRounds() int { return len(m.paths) }

// Read decodes every round not decoded yet. Rounds keep file order no
// matter which worker finishes first.
func (m *Reader) Read(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)
	for i := range m.paths {
		if m.rounds[i] != nil {
			continue
		}
		g.Go(func() error {
			r, err := m.decodeRound(gctx, i)
			if err != nil {
				return err
			}
			m.rounds[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	m.logger.Debug("match decoded",
		logging.String("dir", m.dir),
		logging.Int("rounds", len(m.rounds)),
		logging.String("decoder", m.dec.Name()),
	)
	return nil
}

func (m *Reader) decodeRound(ctx context.Context, i int) (*replay.Replay, error) {
	path := m.paths[i]
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "match", "read round", filepath.Base(path), err)
	}
	r, err := m.dec.Decode(services.WithReplayPath(ctx, path), data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	logging.WithContext(services.WithReplayPath(ctx, path), m.logger).Debug("round decoded",
		logging.Int("round", i+1),
		logging.Int("players", len(r.Players)),
	)
	return r, nil
}

// RoundAt returns round i, decoding it first when Read has not.
func (m *Reader) RoundAt(ctx context.Context, i int) (*replay.Replay, error) {
	if i < 0 || i >= len(m.paths) {
		return nil, fmt.Errorf("round %d out of range [0,%d)", i, len(m.paths))
	}
	if m.rounds[i] == nil {
		r, err := m.decodeRound(ctx, i)
		if err != nil {
			return nil, err
		}
		m.rounds[i] = r
	}
	return m.rounds[i], nil
}

// FirstRound returns the first round of the match.
func (m *Reader) FirstRound(ctx context.Context) (*replay.Replay, error) {
	return m.RoundAt(ctx, 0)
}

// LastRound returns the last round of the match.
func (m *Reader) LastRound(ctx context.Context) (*replay.Replay, error) {
	return m.RoundAt(ctx, len(m.paths)-1)
}

// Rounds returns the decoded rounds in order. Rounds not decoded yet are
// skipped.
func (m *Reader) Rounds() []*replay.Replay {
	out := make([]*replay.Replay, 0, len(m.rounds))
	for _, r := range m.rounds {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}
