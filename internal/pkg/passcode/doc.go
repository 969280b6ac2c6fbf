// Package passcode generates fixed-length numeric one-time passcodes from a
// cryptographically secure random source.
//
// Codes are fresh uniform draws on every call; nothing is derived from time,
// counters or identity, so knowing one code reveals nothing about the next.
package passcode
