// Package filesystem provides the types.FS implementations: the real OS
// filesystem with hardlink and reflink support, and an afero-backed
// in-memory filesystem for tests.
//
// The OS implementation exposes capability probes so the linker's
// hardlink -> reflink -> copy fallback chain can short-circuit steps the
// filesystem pair cannot support instead of fault-driving through failing
// syscalls.
package filesystem
