package model

import (
	"encoding/json"
	"time"
)

// Credential is the persisted OAuth record for the accounting API.
// RefreshToken, ClientID and ClientSecret never change after the grant
// exchange; AccessToken and ExpiresAt are replaced together on refresh.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"-"`
	ClientID     string    `json:"client_id"`
	ClientSecret string    `json:"client_secret"`
}

type credentialJSON struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// MarshalJSON writes expires_at as epoch milliseconds.
func (c Credential) MarshalJSON() ([]byte, error) {
	return json.Marshal(credentialJSON{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    c.ExpiresAt.UnixMilli(),
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
	})
}

// UnmarshalJSON reads expires_at as epoch milliseconds.
func (c *Credential) UnmarshalJSON(data []byte) error {
	var raw credentialJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Credential{
		AccessToken:  raw.AccessToken,
		RefreshToken: raw.RefreshToken,
		ExpiresAt:    time.UnixMilli(raw.ExpiresAt),
		ClientID:     raw.ClientID,
		ClientSecret: raw.ClientSecret,
	}
	return nil
}
