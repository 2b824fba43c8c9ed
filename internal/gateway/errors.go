package gateway

import "fmt"

// BlockedError reports that the request never reached the gateway's
// application layer because its CDN/edge rejected it.
type BlockedError struct{}

func (e *BlockedError) Error() string {
	return "payment request was blocked before reaching the gateway, please contact support"
}

// RejectedError carries the gateway's own result code and explanation for a
// request it processed and declined.
type RejectedError struct {
	Code        string
	Explanation string
}

func (e *RejectedError) Error() string {
	if e.Explanation != "" {
		return e.Explanation
	}
	return fmt.Sprintf("gateway rejected the request with code %s", e.Code)
}

// MalformedResponseError reports a gateway response with no usable Result
// tag. Snippet holds the HTML title of an error page when one is present,
// otherwise a truncated copy of the body.
type MalformedResponseError struct {
	StatusCode int
	Snippet    string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("unexpected gateway response (status %d): %s", e.StatusCode, e.Snippet)
}
