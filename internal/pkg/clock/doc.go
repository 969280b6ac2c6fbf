// Package clock abstracts wall-clock time behind a small interface so the
// expiry and cooldown arithmetic in the verification core can be tested with
// a controlled time source.
package clock
