package tokens

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/item-dedupe/internal/model"
	"github.com/sells-group/item-dedupe/pkg/zoho"
)

// Manager hands out valid access tokens, refreshing through Zoho when the
// stored one is about to expire.
type Manager struct {
	store Store
	zoho  zoho.Client
	now   func() time.Time
}

// NewManager creates a Manager.
func NewManager(store Store, client zoho.Client) *Manager {
	return &Manager{store: store, zoho: client, now: time.Now}
}

// Setup exchanges a one-time grant code for a new credential and persists it.
func (m *Manager) Setup(ctx context.Context, clientID, clientSecret, grantCode string) (*model.Credential, error) {
	zap.L().Info("tokens: exchanging grant code")

	resp, err := m.zoho.ExchangeGrant(ctx, clientID, clientSecret, grantCode)
	if err != nil {
		var oe *zoho.OAuthError
		if errors.As(err, &oe) {
			return nil, &AuthExchangeError{Detail: oe.Detail(), Err: err}
		}
		return nil, eris.Wrap(err, "tokens: initial token request")
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		return nil, &AuthExchangeError{Detail: "missing access_token or refresh_token in response"}
	}

	cred := &model.Credential{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt(m.now()),
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
	if err := m.store.Save(cred); err != nil {
		return nil, err
	}

	zap.L().Info("tokens: initial tokens saved", zap.Time("expires_at", cred.ExpiresAt))
	return cred, nil
}

// Refresh mints a new access token for cred and persists the result. The
// stored refresh token is kept since Zoho usually omits it on refresh.
// Nothing is written when the refresh fails.
func (m *Manager) Refresh(ctx context.Context, cred *model.Credential) (*model.Credential, error) {
	zap.L().Info("tokens: refreshing access token")

	resp, err := m.zoho.RefreshToken(ctx, cred.ClientID, cred.ClientSecret, cred.RefreshToken)
	if err != nil {
		var oe *zoho.OAuthError
		if errors.As(err, &oe) {
			return nil, &TokenRefreshError{Detail: oe.Detail(), Err: err}
		}
		return nil, eris.Wrap(err, "tokens: refresh request")
	}

	if resp.AccessToken == "" {
		return nil, &TokenRefreshError{Detail: "no access token in refresh response"}
	}

	updated := *cred
	updated.AccessToken = resp.AccessToken
	updated.ExpiresAt = resp.ExpiresAt(m.now())

	if err := m.store.Save(&updated); err != nil {
		return nil, err
	}

	zap.L().Info("tokens: access token refreshed", zap.Time("expires_at", updated.ExpiresAt))
	return &updated, nil
}

// AccessToken returns a usable access token, refreshing if needed.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	cred, err := m.store.Load()
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", ErrNoCredentials
	}

	if IsValid(cred, m.now()) {
		zap.L().Debug("tokens: using stored access token")
		return cred.AccessToken, nil
	}

	refreshed, err := m.Refresh(ctx, cred)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// Current returns the stored credential without refreshing it.
func (m *Manager) Current() (*model.Credential, error) {
	cred, err := m.store.Load()
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, ErrNoCredentials
	}
	return cred, nil
}
