package backend

import "fmt"

// NetworkError means the request never produced a response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// HTTPError means the transport answered with a non-200 status.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// BusinessError means the transport succeeded but the envelope carried a
// non-200 business code. Message is the server-provided text, possibly empty.
type BusinessError struct {
	Code    int
	Message string
}

func (e *BusinessError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("business error %d", e.Code)
	}
	return fmt.Sprintf("business error %d: %s", e.Code, e.Message)
}
