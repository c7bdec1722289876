package checksum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/byte4ever/sha256sum/digest"
	"github.com/byte4ever/sha256sum/digester"
	"github.com/byte4ever/sha256sum/manifest"
)

// StdinPath names the standard input byte source.
const StdinPath = "-"

// ErrMismatch is returned when at least one input does
// not match its recorded digest or is missing.
var ErrMismatch = errors.New("checksum mismatch")

// Config holds all settings for a hashing or checking
// run.
type Config struct {
	// Paths are the inputs to hash. StdinPath reads
	// from Stdin.
	Paths []string

	// Parallelism bounds the number of inputs hashed
	// at once. Values below 1 mean 1.
	Parallelism int

	// Format is the manifest encoding for output and
	// for Check input.
	Format manifest.Format

	// Template, when set, replaces Format for output
	// with a per-entry line template.
	Template string

	// Sidecar writes a .digest file next to every
	// hashed file.
	Sidecar bool

	// Stdin is the reader behind StdinPath. Nil means
	// os.Stdin.
	Stdin io.Reader
}

// Status is the outcome of checking one input.
type Status string

const (
	// StatusOK means the digest matched.
	StatusOK Status = "OK"
	// StatusFailed means the digest differed or the
	// input could not be read.
	StatusFailed Status = "FAILED"
	// StatusMissing means the input or its recorded
	// digest does not exist.
	StatusMissing Status = "MISSING"
)

// Report counts check outcomes.
type Report struct {
	OK      int
	Failed  int
	Missing int
}

// Clean reports whether every input matched.
func (r Report) Clean() bool { return r.Failed == 0 && r.Missing == 0 }

func (r *Report) add(st Status) {
	switch st {
	case StatusOK:
		r.OK++
	case StatusFailed:
		r.Failed++
	case StatusMissing:
		r.Missing++
	}
}

// Compute hashes every configured path and returns one
// entry per path, in input order.
func Compute(
	ctx context.Context,
	cfg Config,
) ([]manifest.Entry, error) {
	const errCtx = "computing digests"

	entries := make([]manifest.Entry, len(cfg.Paths))
	stdin := hashStdin(ctx, cfg, cfg.Paths)

	err := forEach(
		ctx, len(cfg.Paths), cfg.Parallelism,
		func(ctx context.Context, idx int) error {
			pa := cfg.Paths[idx]

			dg, size, err := stdin.hash(ctx, cfg, idx, pa)
			if err != nil {
				return err
			}

			if cfg.Sidecar && pa != StdinPath {
				if err := digester.WriteDigest(pa, dg); err != nil {
					return err
				}
			}

			entries[idx] = manifest.Entry{
				Path:   pa,
				Digest: dg,
				Size:   size,
			}

			return nil
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return entries, nil
}

// Run computes digests for cfg.Paths and writes them to
// out as a manifest, or through cfg.Template when set.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	const errCtx = "running checksum"

	entries, err := Compute(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if cfg.Template != "" {
		err = manifest.Render(out, cfg.Template, entries)
	} else {
		err = manifest.Write(out, cfg.Format, entries)
	}

	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Check reads a manifest in cfg.Format from list, hashes
// every listed path and prints "<path>: <status>" lines
// to out in manifest order. It returns ErrMismatch when
// any entry failed or is missing.
func Check(
	ctx context.Context,
	cfg Config,
	list io.Reader,
	out io.Writer,
) (Report, error) {
	const errCtx = "checking manifest"

	entries, err := manifest.Read(list, cfg.Format)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	paths := make([]string, len(entries))
	for i, en := range entries {
		paths[i] = en.Path
	}

	statuses := make([]Status, len(entries))
	stdin := hashStdin(ctx, cfg, paths)

	err = forEach(
		ctx, len(entries), cfg.Parallelism,
		func(ctx context.Context, idx int) error {
			en := entries[idx]

			dg, _, err := stdin.hash(ctx, cfg, idx, en.Path)

			switch {
			case errors.Is(err, digester.ErrNotFound):
				statuses[idx] = StatusMissing
			case ctx.Err() != nil:
				return ctx.Err()
			case err != nil:
				slog.Warn(
					"unable to hash entry",
					"path", en.Path,
					"error", err,
				)

				statuses[idx] = StatusFailed
			case dg == en.Digest:
				statuses[idx] = StatusOK
			default:
				statuses[idx] = StatusFailed
			}

			return nil
		},
	)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return report(out, paths, statuses, errCtx)
}

// VerifySidecars checks each of cfg.Paths against its
// .digest sidecar and prints "<path>: <status>" lines.
// A missing file or sidecar counts as missing, and so
// does StdinPath, which has no sidecar.
func VerifySidecars(
	ctx context.Context,
	cfg Config,
	out io.Writer,
) (Report, error) {
	const errCtx = "verifying sidecars"

	statuses := make([]Status, len(cfg.Paths))

	err := forEach(
		ctx, len(cfg.Paths), cfg.Parallelism,
		func(ctx context.Context, idx int) error {
			pa := cfg.Paths[idx]
			if pa == StdinPath {
				statuses[idx] = StatusMissing

				return nil
			}

			stored, err := digester.GetDigest(pa)
			if err != nil {
				return err
			}

			if stored == "" {
				statuses[idx] = StatusMissing

				return nil
			}

			dg, _, err := hashPath(ctx, cfg, pa)

			switch {
			case errors.Is(err, digester.ErrNotFound):
				statuses[idx] = StatusMissing
			case err != nil:
				return err
			case dg == stored:
				statuses[idx] = StatusOK
			default:
				statuses[idx] = StatusFailed
			}

			return nil
		},
	)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	return report(out, cfg.Paths, statuses, errCtx)
}

func report(
	out io.Writer,
	paths []string,
	statuses []Status,
	errCtx string,
) (Report, error) {
	var rep Report

	for i, st := range statuses {
		rep.add(st)

		if _, err := fmt.Fprintf(out, "%s: %s\n", paths[i], st); err != nil {
			return rep, fmt.Errorf("%s: writing report: %w", errCtx, err)
		}
	}

	slog.Info(
		"check finished",
		"ok", rep.OK,
		"failed", rep.Failed,
		"missing", rep.Missing,
	)

	if !rep.Clean() {
		return rep, fmt.Errorf(
			"%s: %d failed, %d missing: %w",
			errCtx, rep.Failed, rep.Missing, ErrMismatch,
		)
	}

	return rep, nil
}

type stdinResult struct {
	dg     string
	size   int64
	err    error
}

// stdinResults holds the precomputed outcome of every
// StdinPath entry, keyed by index. It is read-only once
// built, so workers may share it.
type stdinResults map[int]stdinResult

// hashStdin reads the stdin source once, for the first
// StdinPath in paths, before any worker starts. Later
// StdinPath entries see the drained stream and get the
// digest of no bytes.
func hashStdin(
	ctx context.Context,
	cfg Config,
	paths []string,
) stdinResults {
	res := make(stdinResults)
	drained := false

	for idx, pa := range paths {
		if pa != StdinPath {
			continue
		}

		if drained {
			res[idx] = stdinResult{dg: digest.Sum256Hex(nil)}

			continue
		}

		drained = true

		dg, size, err := hashPath(ctx, cfg, pa)
		res[idx] = stdinResult{dg: dg, size: size, err: err}
	}

	return res
}

// hash returns the precomputed result for a StdinPath
// entry, or hashes pa.
func (sr stdinResults) hash(
	ctx context.Context,
	cfg Config,
	idx int,
	pa string,
) (string, int64, error) {
	if r, ok := sr[idx]; ok {
		return r.dg, r.size, r.err
	}

	return hashPath(ctx, cfg, pa)
}

// hashPath hashes one input. Missing files wrap
// digester.ErrNotFound.
func hashPath(
	ctx context.Context,
	cfg Config,
	pa string,
) (dg string, size int64, retErr error) {
	const errCtx = "hashing input"

	if pa == StdinPath {
		in := cfg.Stdin
		if in == nil {
			in = os.Stdin
		}

		dg, size, err := digester.CalculateReaderDigest(ctx, in)
		if err != nil {
			return "", 0, fmt.Errorf("%s: stdin: %w", errCtx, err)
		}

		return dg, size, nil
	}

	fi, err := os.Open(pa) //nolint:gosec // paths from CLI arguments
	if errors.Is(err, os.ErrNotExist) {
		return "", 0, fmt.Errorf(
			"%s: %s: %w", errCtx, pa, digester.ErrNotFound,
		)
	}

	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := fi.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
		}
	}()

	slog.Debug("hashing", "path", pa)

	dg, size, err = digester.CalculateReaderDigest(ctx, fi)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %s: %w", errCtx, pa, err)
	}

	return dg, size, nil
}
