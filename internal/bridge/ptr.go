package bridge

// Ptr returns a pointer to v. Handy for filling optional request fields.
func Ptr[T any](v T) *T { return &v }
