// Package digester computes SHA-256 digests of files and readers with the
// digest engine, and keeps them in companion .digest sidecar files so that a
// file can later be checked against the digest recorded next to it.
package digester
