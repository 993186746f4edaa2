package client

import (
	"encoding/json"
	"os"
)

// Session is a point-in-time snapshot of the client's auth state.
type Session struct {
	AccessToken   string
	RefreshToken  string
	User          *User
	Ready         bool
	Authenticated bool
}

func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Session{
		AccessToken:   c.access,
		RefreshToken:  c.refresh,
		User:          c.user,
		Ready:         c.ready,
		Authenticated: c.user != nil,
	}
}

// TokenStore persists the token pair between runs.
type TokenStore interface {
	Load() (access, refresh string, err error)
	Save(access, refresh string) error
	Clear() error
}

// NopTokenStore keeps nothing; every run starts logged out.
type NopTokenStore struct{}

func (NopTokenStore) Load() (string, string, error) { return "", "", nil }
func (NopTokenStore) Save(string, string) error     { return nil }
func (NopTokenStore) Clear() error                  { return nil }

// FileTokenStore writes the pair as a small JSON file with 0600 permissions.
type FileTokenStore struct{ Path string }

type storedTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (s FileTokenStore) Load() (string, string, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", "", nil
		}
		return "", "", err
	}
	var t storedTokens
	if err := json.Unmarshal(b, &t); err != nil {
		return "", "", err
	}
	return t.AccessToken, t.RefreshToken, nil
}

func (s FileTokenStore) Save(access, refresh string) error {
	b, err := json.Marshal(storedTokens{AccessToken: access, RefreshToken: refresh})
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, b, 0o600)
}

func (s FileTokenStore) Clear() error {
	err := os.Remove(s.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
