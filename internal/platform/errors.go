package platform

import "fmt"

// ErrorKind classifies a failed platform API call.
type ErrorKind string

const (
	// KindNetwork covers connection failures and timeouts.
	KindNetwork ErrorKind = "NETWORK"
	// KindHTTP covers non-2xx responses.
	KindHTTP ErrorKind = "HTTP"
	// KindParse covers responses that could not be decoded.
	KindParse ErrorKind = "PARSE"
)

// RequestError is the typed failure of one platform API call.
type RequestError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	switch e.Kind {
	case KindHTTP:
		if e.Message != "" {
			return fmt.Sprintf("platform API returned %d: %s", e.Status, e.Message)
		}
		return fmt.Sprintf("platform API returned %d", e.Status)
	case KindParse:
		return fmt.Sprintf("platform API response could not be parsed: %v", e.Err)
	default:
		return fmt.Sprintf("platform API unreachable: %v", e.Err)
	}
}

func (e *RequestError) Unwrap() error { return e.Err }

func networkError(err error) *RequestError {
	return &RequestError{Kind: KindNetwork, Err: err}
}

func httpError(status int, message string) *RequestError {
	return &RequestError{Kind: KindHTTP, Status: status, Message: message}
}

func parseError(err error) *RequestError {
	return &RequestError{Kind: KindParse, Err: err}
}
