package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"replaykit/internal/decoder"
	"replaykit/internal/fileutil"
	"replaykit/internal/logging"
	"replaykit/internal/match"
	"replaykit/internal/services"
)

// ErrLibraryBusy reports another indexer holding the library lock.
var ErrLibraryBusy = errors.New("library is being indexed by another process")

// IndexOptions configures an Indexer.
type IndexOptions struct {
	Decoder decoder.Decoder
	Workers int
	Logger  *slog.Logger
}

// Indexer adds replay files found under a directory to a Store.
type Indexer struct {
	store   *Store
	dec     decoder.Decoder
	workers int
	logger  *slog.Logger
}

// IndexFailure is a file the indexer could not add.
type IndexFailure struct {
	Path string
	Kind string
	Err  error
}

// IndexResult summarises one indexing run.
type IndexResult struct {
	ScanID   string
	Scanned  int
	Indexed  int
	Skipped  int
	Failed   []IndexFailure
	Duration time.Duration
}

// NewIndexer returns an Indexer writing to store.
func NewIndexer(store *Store, opts IndexOptions) *Indexer {
	dec := opts.Decoder
	if dec == nil {
		dec = decoder.NewNative(opts.Logger)
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	return &Indexer{
		store:   store,
		dec:     dec,
		workers: workers,
		logger:  logging.NewComponentLogger(opts.Logger, "indexer"),
	}
}

// Index walks root and stores every replay whose digest is not yet known.
// Files that fail to decode are reported in the result and do not stop the
// run; context cancellation and store failures do.
func (ix *Indexer) Index(ctx context.Context, root string) (IndexResult, error) {
	start := time.Now()
	result := IndexResult{ScanID: uuid.NewString()}

	lock := flock.New(ix.store.Path() + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return result, fmt.Errorf("acquire library lock: %w", err)
	}
	if !locked {
		return result, ErrLibraryBusy
	}
	defer func() { _ = lock.Unlock() }()

	paths, err := findReplays(root)
	if err != nil {
		return result, err
	}
	result.Scanned = len(paths)

	ctx = services.WithScanID(ctx, result.ScanID)
	logger := logging.WithContext(ctx, ix.logger)
	logger.Info("index started",
		logging.String("root", root),
		logging.Int("files", len(paths)),
		logging.String("decoder", ix.dec.Name()),
	)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for _, path := range paths {
		g.Go(func() error {
			outcome, err := ix.indexFile(gctx, path, result.ScanID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil && outcome == outcomeIndexed:
				result.Indexed++
			case err == nil:
				result.Skipped++
			case gctx.Err() != nil:
				return gctx.Err()
			case isStoreError(err):
				return err
			default:
				result.Failed = append(result.Failed, IndexFailure{Path: path, Kind: services.Kind(err), Err: err})
				logging.WarnWithContext(logging.WithContext(services.WithReplayPath(gctx, path), ix.logger),
					"replay skipped", "decode_failed",
					logging.Error(err),
					logging.String("error_kind", services.Kind(err)),
					logging.String(logging.FieldErrorHint, "check the file was copied completely"),
					logging.String(logging.FieldImpact, "round missing from library"),
				)
			}
			return nil
		})
	}
	err = g.Wait()
	result.Duration = time.Since(start)
	if err != nil {
		return result, err
	}

	slices.SortFunc(result.Failed, func(a, b IndexFailure) int { return strings.Compare(a.Path, b.Path) })
	logger.Info("index finished",
		logging.Int("indexed", result.Indexed),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", len(result.Failed)),
		logging.Duration("duration", result.Duration),
	)
	return result, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeIndexed
)

// storeError marks failures of the library itself, which abort a run.
type storeError struct{ err error }

func (e storeError) Error() string { return e.err.Error() }
func (e storeError) Unwrap() error { return e.err }

func isStoreError(err error) bool {
	var se storeError
	return errors.As(err, &se)
}

func (ix *Indexer) indexFile(ctx context.Context, path, scanID string) (outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return outcomeSkipped, services.Wrap(services.ErrNotFound, "indexer", "read", path, err)
	}
	digest := fileutil.SHA256Bytes(data)

	known, err := ix.store.HasDigest(ctx, digest)
	if err != nil {
		return outcomeSkipped, storeError{err}
	}
	if known {
		ix.logger.Debug("replay already indexed", logging.String(logging.FieldReplay, path))
		return outcomeSkipped, nil
	}

	r, err := ix.dec.Decode(ctx, data)
	if err != nil {
		return outcomeSkipped, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	_, err = ix.store.SaveRound(ctx, RoundRecord{Digest: digest, Path: path, ScanID: scanID, Replay: r})
	switch {
	case errors.Is(err, ErrDuplicateRound):
		// An identical copy elsewhere in the tree won the race.
		return outcomeSkipped, nil
	case err != nil:
		return outcomeSkipped, storeError{err}
	}
	ix.logger.Debug("round indexed",
		logging.String(logging.FieldReplay, path),
		logging.String("match_id", r.MatchID),
		logging.Int("round.number", r.RoundNumber),
	)
	return outcomeIndexed, nil
}

// findReplays returns every replay file under root in lexical order.
func findReplays(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "indexer", "scan", root, err)
	}
	if !info.IsDir() {
		return nil, services.Wrap(services.ErrValidation, "indexer", "scan", root+" is not a directory", nil)
	}
	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), match.ReplayExt) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	slices.Sort(paths)
	return paths, nil
}
