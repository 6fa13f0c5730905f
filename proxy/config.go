package proxy

// Config is the proxy server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	ListenAddr string

	// BodyLimit caps request bodies in bytes. Inline images make chat bodies
	// far larger than text alone. Zero selects DefaultBodyLimit.
	BodyLimit int
}

// DefaultBodyLimit fits a base64-encoded photo from a phone camera.
const DefaultBodyLimit = 20 * 1024 * 1024
