// Package validator wraps struct validation behind a small interface.
//
// Business code depends on the Validator interface; the go-playground
// validator v10 implementation in this package adds the custom rules this
// service needs (digit-only passcodes).
package validator
