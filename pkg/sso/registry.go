package sso

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Google's OAuth2 endpoints, the default federated provider.
const (
	GoogleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	GoogleTokenURL    = "https://oauth2.googleapis.com/token"
	GoogleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

// GoogleProviderConfig builds the standard Google OAuth2 provider definition.
func GoogleProviderConfig(clientID, clientSecret, redirectURL string) *ProviderConfig {
	return &ProviderConfig{
		Name:         "google",
		ProviderType: ProviderTypeOAuth2,
		Enabled:      true,
		OAuth2Config: &OAuth2Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			AuthURL:      GoogleAuthURL,
			TokenURL:     GoogleTokenURL,
			UserInfoURL:  GoogleUserInfoURL,
			RedirectURL:  redirectURL,
			Scopes:       []string{"profile", "email"},
		},
	}
}

// providersFile is the YAML shape of the provider configuration file
type providersFile struct {
	Providers []*ProviderConfig `yaml:"providers"`
}

// Registry holds the configured federated providers. It is safe for
// concurrent use; LoadFile and Watch swap the provider set atomically so
// in-flight logins keep the provider instance they started with.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRegistry creates an empty provider registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds or replaces a single provider built from config.
func (r *Registry) Register(ctx context.Context, config *ProviderConfig) error {
	provider, err := NewProvider(ctx, config)
	if err != nil {
		return err
	}
	if err := provider.ValidateConfig(); err != nil {
		return fmt.Errorf("invalid config for provider %q: %w", config.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[config.Name] = provider
	return nil
}

// Get returns the provider with the given name
func (r *Registry) Get(name string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	provider, ok := r.providers[name]
	return provider, ok
}

// Names returns the names of all registered providers, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LoadFile reads a provider YAML file and replaces the registry contents.
// Disabled providers are skipped. On any error the registry is left
// unchanged.
func (r *Registry) LoadFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read provider file: %w", err)
	}

	var file providersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse provider file: %w", err)
	}

	next := make(map[string]Provider, len(file.Providers))
	for _, config := range file.Providers {
		if !config.Enabled {
			continue
		}
		provider, err := NewProvider(ctx, config)
		if err != nil {
			return fmt.Errorf("provider %q: %w", config.Name, err)
		}
		if err := provider.ValidateConfig(); err != nil {
			return fmt.Errorf("invalid config for provider %q: %w", config.Name, err)
		}
		next[config.Name] = provider
	}

	r.mu.Lock()
	r.providers = next
	r.mu.Unlock()
	return nil
}

// Logger is the subset of the application logger the watcher needs
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Watch reloads the provider file whenever it changes on disk. It blocks
// until ctx is done; run it in its own goroutine. A reload that fails keeps
// the previous provider set.
func (r *Registry) Watch(ctx context.Context, path string, logger Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := r.LoadFile(ctx, path); err != nil {
				logger.Errorf("provider reload failed, keeping previous set: %v", err)
				continue
			}
			logger.Infof("reloaded federated providers: %v", r.Names())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Errorf("provider watcher error: %v", err)
		}
	}
}
