package digester

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/byte4ever/sha256sum/digest"
)

// SidecarExt is appended to a file path to name its
// sidecar.
const SidecarExt = ".digest"

// chunkSize is the read size between cancellation
// checks.
const chunkSize = 32 * 1024

// ErrNotFound is returned when the file to hash does not
// exist.
var ErrNotFound = errors.New("file not found")

// CalculateDigest computes the hex digest of the file at
// path. A missing file yields an error wrapping
// ErrNotFound.
func CalculateDigest(path string) (result string, retErr error) {
	const errCtx = "calculating digest"

	fi, err := os.Open(path) //nolint:gosec // path is caller-provided by design
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%s: %s: %w", errCtx, path, ErrNotFound)
	}

	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := fi.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
		}
	}()

	se := digest.New()

	if _, err := io.Copy(se, fi); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return se.Final(), nil
}

// CalculateReaderDigest hashes everything read from r.
// ctx is checked between chunks; on cancellation or a
// read error the partial session is dropped.
func CalculateReaderDigest(
	ctx context.Context,
	r io.Reader,
) (string, int64, error) {
	const errCtx = "calculating reader digest"

	se := digest.New()
	buf := make([]byte, chunkSize)

	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return "", total, fmt.Errorf("%s: %w", errCtx, err)
		}

		n, err := r.Read(buf)
		if n > 0 {
			se.Update(buf[:n])
			total += int64(n)
		}

		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return "", total, fmt.Errorf("%s: %w", errCtx, err)
		}
	}

	return se.Final(), total, nil
}

// GetDigest reads a stored digest from a sidecar .digest
// file. Returns empty string with no error if the sidecar
// file does not exist.
func GetDigest(path string) (string, error) {
	const errCtx = "getting stored digest"

	dp := path + SidecarExt

	stored, err := os.ReadFile(dp) //nolint:gosec // path is caller-provided by design
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return strings.ToLower(strings.TrimSpace(string(stored))), nil
}

// VerifyDigest compares the calculated digest of the file
// against its stored sidecar digest. A missing sidecar
// never verifies.
func VerifyDigest(path string) (bool, error) {
	const errCtx = "verifying digest"

	calc, err := CalculateDigest(path)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	stored, err := GetDigest(path)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	if stored == "" {
		slog.Info("no sidecar digest", "path", path)

		return false, nil
	}

	return calc == stored, nil
}

// SaveDigest calculates the digest of a file and writes it
// to a .digest sidecar file.
func SaveDigest(path string) error {
	const errCtx = "saving digest"

	dg, err := CalculateDigest(path)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return WriteDigest(path, dg)
}

// WriteDigest stores an already computed digest in the
// sidecar of path.
func WriteDigest(path string, dg string) error {
	const errCtx = "writing digest"

	dp := path + SidecarExt

	if err := os.WriteFile(dp, []byte(dg), 0o600); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Debug("saved sidecar digest", "path", dp)

	return nil
}
