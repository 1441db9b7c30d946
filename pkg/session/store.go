package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// Profile holds the stored credential secrets for one YouTube account
type Profile struct {
	Name         string    `json:"name"`
	SAPISID      string    `json:"sapisid"`
	SecurePSID   string    `json:"secure_psid"`
	LastModified time.Time `json:"last_modified"`
}

// Credential store errors
var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrInvalidProfile   = errors.New("invalid profile")
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// CredentialStore is the interface for storing and retrieving cookie secrets
type CredentialStore interface {
	// Store saves a profile
	Store(profile *Profile) error

	// Retrieve gets the profile with the given name
	Retrieve(name string) (*Profile, error)

	// List returns all stored profiles
	List() ([]*Profile, error)

	// Delete removes the profile with the given name
	Delete(name string) error

	// Exists checks if a profile exists
	Exists(name string) bool
}

// Manager handles credential storage with fallback mechanisms
type Manager struct {
	stores []CredentialStore
}

// NewManager creates a credential manager backed by the system keychain,
// with an encrypted file store and environment variables as fallbacks
func NewManager() (*Manager, error) {
	var stores []CredentialStore

	keyringStore, err := NewKeyringStore()
	if err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "credentials.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)

	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// Store saves a profile using the first store that accepts it
func (m *Manager) Store(profile *Profile) error {
	if profile == nil || profile.Name == "" {
		return ErrInvalidProfile
	}
	if profile.SAPISID == "" && profile.SecurePSID == "" {
		return ErrInvalidProfile
	}

	profile.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(profile); err == nil {
			return nil
		} else if !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}

	if lastErr != nil {
		return lastErr
	}
	return ErrStoreUnavailable
}

// Retrieve gets a profile from the first store that has it
func (m *Manager) Retrieve(name string) (*Profile, error) {
	for _, store := range m.stores {
		profile, err := store.Retrieve(name)
		if err == nil && profile != nil {
			return profile, nil
		}
	}
	return nil, ErrProfileNotFound
}

// RetrieveDefault returns the single stored profile, if there is
// exactly one, or the profile named "default"
func (m *Manager) RetrieveDefault() (*Profile, error) {
	if profile, err := m.Retrieve("default"); err == nil {
		return profile, nil
	}

	profiles, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(profiles) == 1 {
		return profiles[0], nil
	}

	return nil, ErrProfileNotFound
}

// List returns all profiles across stores, first occurrence wins
func (m *Manager) List() ([]*Profile, error) {
	seen := make(map[string]bool)
	var profiles []*Profile

	for _, store := range m.stores {
		stored, err := store.List()
		if err != nil {
			continue
		}
		for _, p := range stored {
			if !seen[p.Name] {
				seen[p.Name] = true
				profiles = append(profiles, p)
			}
		}
	}

	return profiles, nil
}

// Delete removes a profile from every store that has it
func (m *Manager) Delete(name string) error {
	deleted := false
	for _, store := range m.stores {
		if err := store.Delete(name); err == nil {
			deleted = true
		}
	}

	if !deleted {
		return ErrProfileNotFound
	}
	return nil
}

// getConfigDir returns the configuration directory for the current OS
func getConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "linux":
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "ytcarchiver")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "ytcarchiver")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "ytcarchiver")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		configDir = filepath.Join(appData, "ytcarchiver")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}
