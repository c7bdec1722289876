package checksum

import "context"

// ForEachForTest exposes forEach.
var ForEachForTest = forEach

// HashPathForTest exposes hashPath, which backs every
// worker including sidecar verification.
func HashPathForTest(
	ctx context.Context,
	cfg Config,
	pa string,
) (string, int64, error) {
	return hashPath(ctx, cfg, pa)
}
