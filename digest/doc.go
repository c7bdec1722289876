// Package digest implements an incremental SHA-256 engine as defined in
// FIPS 180-4. A Session accepts input in chunks of any size through Update
// (or Write, so it can sit behind io.Copy) and produces the 256-bit digest
// once through Final or Sum.
//
// Sessions are not safe for concurrent use. Independent sessions share only
// the read-only round constants and may run in parallel.
package digest
