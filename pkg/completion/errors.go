package completion

import "fmt"

// ConfigError is returned when the client cannot make a call because it is
// misconfigured, most often because no credential was supplied. No network
// activity has happened when it is returned.
type ConfigError struct {
	Reason string
}

func (e ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// ValidationError rejects input before any network activity.
type ValidationError struct {
	Reason string
}

func (e ValidationError) Error() string {
	return "invalid input: " + e.Reason
}

// UpstreamError covers a non-success status or a response body that could not
// be understood. Status is zero when the status itself was fine.
type UpstreamError struct {
	Status  int
	Message string
}

func (e UpstreamError) Error() string {
	if e.Status == 0 {
		return "upstream error: " + e.Message
	}
	return fmt.Sprintf("upstream error (status %d): %s", e.Status, e.Message)
}

// TransportError wraps a failure to reach the completion endpoint at all.
type TransportError struct {
	Err error
}

func (e TransportError) Error() string {
	return "transport error: " + e.Err.Error()
}

func (e TransportError) Unwrap() error {
	return e.Err
}
