package api

// Identity is the subject on whose behalf a Client call runs.
//
// The gate never authenticates identities itself; it receives them already
// verified and only evaluates their claims against lane names.
type Identity struct {
	// Token is the raw credential. It is forwarded untouched to the engine on
	// writes (start, finish, trigger) so the engine can do its own auditing.
	Token string

	// UserID names the subject. Used for logging only.
	UserID string

	// Claims are the claim names granted to the subject. A lane is accessible
	// when its name equals one of these.
	Claims []string
}

// HasClaim reports whether the identity holds the named claim.
// The empty name never matches.
func (id Identity) HasClaim(name string) bool {
	if name == "" {
		return false
	}
	for _, c := range id.Claims {
		if c == name {
			return true
		}
	}
	return false
}
