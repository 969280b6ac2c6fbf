package validator

// Validator validates a struct against its declared rules.
type Validator interface {
	Validate(data any) error
}
