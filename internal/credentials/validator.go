package credentials

// IsComplete reports whether all five fields are present.
func IsComplete(c Set) bool {
	return c.AccessToken != "" &&
		c.Client != "" &&
		c.Expiry != 0 &&
		c.TokenType != "" &&
		c.UID != ""
}

// IsAcceptable reports whether candidate may replace current: it must be
// complete and, when a set is already held, expire no earlier than it.
// This keeps a slow response carrying an older token from overwriting a
// newer one installed in the meantime.
func IsAcceptable(candidate Set, current *Set) bool {
	if !IsComplete(candidate) {
		return false
	}
	if current == nil {
		return true
	}
	return candidate.Expiry >= current.Expiry
}
