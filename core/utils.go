package core

// StringPtr returns a pointer to s, for the optional fields of
// RegisterSubscriptionOptions.
func StringPtr(s string) *string {
	return &s
}
