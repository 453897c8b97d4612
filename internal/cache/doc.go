// Package cache provides the key/value stores that hold parsed fixtures
// between requests.
//
// Values are opaque byte payloads; encoding them is the caller's job and no
// store enforces a TTL. Freshness is decided by whoever reads the value. Every
// store distinguishes a missing key (ErrNotFound) from a store that could not
// answer (*Error) so callers can tell "not cached yet" from "cache down".
//
// Backends: Memory for tests and single-process use, Redis, File (one file
// per key under a data directory) and SQL (a Postgres table). Sealed wraps any
// of them and encrypts payloads at rest.
package cache
