package session

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore using environment
// variables, primarily for CI and one-off runs
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(profile *Profile) error {
	return ErrStoreUnavailable
}

// Retrieve gets cookie secrets from environment variables
func (e *EnvironmentStore) Retrieve(name string) (*Profile, error) {
	sapisid := os.Getenv("YTCARCHIVER_SAPISID")
	securePSID := os.Getenv("YTCARCHIVER_SECURE_PSID")

	if sapisid == "" && securePSID == "" {
		return nil, ErrProfileNotFound
	}

	if name == "" {
		name = "default"
	}

	return &Profile{
		Name:         name,
		SAPISID:      sapisid,
		SecurePSID:   securePSID,
		LastModified: time.Now(),
	}, nil
}

// List returns a single profile if environment secrets are set
func (e *EnvironmentStore) List() ([]*Profile, error) {
	profile, err := e.Retrieve("")
	if err != nil {
		return []*Profile{}, nil
	}
	return []*Profile{profile}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment secrets are present
func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
