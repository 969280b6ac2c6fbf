// Package jwt is helpers for working with JSON Web Tokens (JWT).
//
// It includes:
//   - A typed Claims wrapper (registered claims + strongly-typed payload).
//   - A symmetric HS512 implementation for generating and verifying tokens.
//
// Tokens issued here attest that an identity completed passcode verification;
// downstream services accept them as proof without re-checking the store.
package jwt
