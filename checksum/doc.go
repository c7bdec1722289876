// Package checksum hashes many inputs in parallel and checks them against
// manifests or .digest sidecars. Every input gets its own digest session, so
// inputs are hashed concurrently through a bounded worker pool while the
// output keeps the order in which the inputs were given.
//
// The entry points are Run, Check and VerifySidecars, which all accept a
// Config struct with the parameters for the run.
package checksum
