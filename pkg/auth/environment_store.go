package auth

import (
	"os"
	"time"
)

// Environment variables read by EnvironmentStore.
const (
	EnvJST       = "PARLER_JST"
	EnvMST       = "PARLER_MST"
	EnvUserAgent = "PARLER_USER_AGENT"
)

// EnvironmentStore is a read-only CredentialStore backed by PARLER_JST and
// PARLER_MST. It exposes at most one account.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment session under name, or DefaultAccount
// when name is empty.
func (e *EnvironmentStore) Retrieve(name string) (*Account, error) {
	jst, mst := os.Getenv(EnvJST), os.Getenv(EnvMST)
	if jst == "" || mst == "" {
		return nil, ErrCredentialsNotFound
	}

	if name == "" {
		name = DefaultAccount
	}

	return &Account{
		Name:         name,
		JST:          jst,
		MST:          mst,
		UserAgent:    os.Getenv(EnvUserAgent),
		LastModified: time.Now(),
	}, nil
}

// List returns a single account if environment variables are set
func (e *EnvironmentStore) List() ([]*Account, error) {
	account, err := e.Retrieve("")
	if err != nil {
		return []*Account{}, nil
	}
	return []*Account{account}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials exist
func (e *EnvironmentStore) Exists(name string) bool {
	return os.Getenv(EnvJST) != "" && os.Getenv(EnvMST) != ""
}
