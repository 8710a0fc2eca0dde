package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredential_ExpiresAtIsEpochMillis(t *testing.T) {
	c := Credential{
		AccessToken:  "a",
		RefreshToken: "r",
		ExpiresAt:    time.UnixMilli(1748779200123),
		ClientID:     "cid",
		ClientSecret: "sec",
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"access_token": "a",
		"refresh_token": "r",
		"expires_at": 1748779200123,
		"client_id": "cid",
		"client_secret": "sec"
	}`, string(data))

	var back Credential
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, c.ExpiresAt.Equal(back.ExpiresAt))
	assert.Equal(t, c.RefreshToken, back.RefreshToken)
}

func TestCredential_UnmarshalInvalid(t *testing.T) {
	var c Credential
	assert.Error(t, json.Unmarshal([]byte(`{"expires_at":"soon"}`), &c))
}
