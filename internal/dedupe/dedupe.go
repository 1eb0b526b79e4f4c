// Package dedupe maintains the run-scoped content-hash index and classifies
// incoming files as unique or duplicate. The index is insert-if-absent under a
// mutex so first-seen-wins holds even if callers parallelize file processing.
package dedupe

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"os"
	"sync"

	"samplesort/internal/logging"
	"samplesort/internal/scan"
)

// Policy decides what happens to a file recognized as a duplicate.
type Policy string

const (
	// PolicySkip leaves duplicates in place, unclassified.
	PolicySkip Policy = "skip"
	// PolicyQuarantine collects duplicates under the destination quarantine folder.
	PolicyQuarantine Policy = "quarantine"
)

// Index maps content hashes to the first path that produced them. Entries are
// never removed during a run.
type Index struct {
	mu   sync.Mutex
	seen map[string]string
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{seen: make(map[string]string)}
}

// Record inserts hash→path if the hash is unseen and reports whether the
// insert happened. When the hash was already present the first-seen path is
// returned instead.
func (i *Index) Record(hashDigest, path string) (firstSeen string, inserted bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if existing, ok := i.seen[hashDigest]; ok {
		return existing, false
	}
	i.seen[hashDigest] = path
	return path, true
}

// Len returns the number of distinct hashes recorded.
func (i *Index) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.seen)
}

// Result reports the outcome of a duplicate check.
type Result struct {
	Hash      string
	Duplicate bool
	FirstSeen string
}

// Checker hashes files and consults the shared index.
type Checker struct {
	index     *Index
	algorithm string
	logger    *slog.Logger
}

// NewChecker builds a checker over the given index using the configured hash
// algorithm (sha256, sha1, or md5).
func NewChecker(index *Index, algorithm string, logger *slog.Logger) *Checker {
	return &Checker{
		index:     index,
		algorithm: algorithm,
		logger:    logging.NewComponentLogger(logger, "dedupe"),
	}
}

// Check hashes path and records it in the index. The first occurrence of a
// content hash is never a duplicate.
func (c *Checker) Check(path string) (Result, error) {
	digest, err := HashFile(path, c.algorithm)
	if err != nil {
		return Result{}, err
	}
	firstSeen, inserted := c.index.Record(digest, path)
	return Result{
		Hash:      digest,
		Duplicate: !inserted,
		FirstSeen: firstSeen,
	}, nil
}

// HashFile streams the file through the named hash algorithm and returns the
// hex digest.
func HashFile(path, algorithm string) (string, error) {
	hasher, err := newHasher(algorithm)
	if err != nil {
		return "", err
	}
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

func newHasher(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case "sha256", "":
		return sha256.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "md5":
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q", algorithm)
	}
}

// SeedFromTree hashes every accepted file under root into the index so
// duplicates of already-organized files are detected without reprocessing
// them. Cancellation aborts the seed and surfaces the context error; callers
// must not proceed with the partially populated index.
func (c *Checker) SeedFromTree(ctx context.Context, root string, accept func(path string) bool) (int, error) {
	seeded := 0
	for path, err := range scan.Walk(root) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return seeded, ctxErr
		}
		if err != nil {
			c.logger.Warn("seed walk error", logging.String(logging.FieldFile, path), logging.Error(err))
			continue
		}
		if accept != nil && !accept(path) {
			continue
		}
		digest, hashErr := HashFile(path, c.algorithm)
		if hashErr != nil {
			c.logger.Warn("seed hash failed", logging.String(logging.FieldFile, path), logging.Error(hashErr))
			continue
		}
		if _, inserted := c.index.Record(digest, path); inserted {
			seeded++
		}
	}
	return seeded, nil
}
