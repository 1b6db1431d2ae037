package common

const (
	// MaxRequestBody limits JSON request bodies.
	MaxRequestBody = 1 << 20
	// DefaultPageLimit is used when a list request has no limit.
	DefaultPageLimit = 20
	// MaxPageLimit caps the limit a client may ask for.
	MaxPageLimit = 100
)
