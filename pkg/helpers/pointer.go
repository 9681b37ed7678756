package helpers

// Pointer returns a pointer to a copy of v.
func Pointer[T any](v T) *T {
	return &v
}

// NonEmpty returns nil for the empty string, so optional API fields are
// omitted instead of being sent blank.
func NonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
