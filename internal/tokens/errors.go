package tokens

import (
	"errors"
	"fmt"
)

// ErrNoCredentials means setup has not been run yet.
var ErrNoCredentials = errors.New("tokens: no stored credentials, run setup first")

// AuthExchangeError is a failed grant-code exchange.
type AuthExchangeError struct {
	Detail string
	Err    error
}

func (e *AuthExchangeError) Error() string {
	return fmt.Sprintf("Initial token request failed: %s", e.Detail)
}

func (e *AuthExchangeError) Unwrap() error {
	return e.Err
}

// TokenRefreshError is a failed refresh-token exchange.
type TokenRefreshError struct {
	Detail string
	Err    error
}

func (e *TokenRefreshError) Error() string {
	return fmt.Sprintf("Token refresh failed: %s", e.Detail)
}

func (e *TokenRefreshError) Unwrap() error {
	return e.Err
}
