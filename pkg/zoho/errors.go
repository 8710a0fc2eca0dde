package zoho

import "fmt"

// OAuthError is an error reported by the token endpoint itself.
type OAuthError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *OAuthError) Error() string {
	return fmt.Sprintf("zoho: oauth error %s", e.Detail())
}

// Detail returns the description when present, falling back to the code.
func (e *OAuthError) Detail() string {
	if e.Description != "" {
		return e.Description
	}
	return e.Code
}

// UpstreamFetchError is a failed items page request. StatusCode is 0 when
// the request never got a response.
type UpstreamFetchError struct {
	StatusCode int
	Page       int
	Message    string
	Err        error
}

func (e *UpstreamFetchError) Error() string {
	return fmt.Sprintf("zoho: fetch items page %d (status %d): %s", e.Page, e.StatusCode, e.Message)
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}
