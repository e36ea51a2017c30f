package cli

import (
	"fmt"
	"strings"
)

// Provider names accepted by --provider and the provider config key.
const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

// API key environment variables, one per provider.
const (
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvGoogleAPIKey = "GOOGLE_SPEECH_API_KEY"
)

// Provider represents a validated speech recognition service.
// Zero value is unset; OrDefault turns it into OpenAIProvider.
type Provider struct {
	name string
}

// Compile-time interface compliance check.
var _ fmt.Stringer = Provider{}

// Pre-parsed provider constants.
var (
	OpenAIProvider = Provider{name: ProviderOpenAI}
	GoogleProvider = Provider{name: ProviderGoogle}
)

// ParseProvider validates a provider name. Matching is case-insensitive and
// an empty string yields the zero Provider.
func ParseProvider(s string) (Provider, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return Provider{}, nil
	case ProviderOpenAI:
		return OpenAIProvider, nil
	case ProviderGoogle:
		return GoogleProvider, nil
	default:
		return Provider{}, fmt.Errorf("%w %q (use %q or %q)", ErrUnsupportedProvider, s, ProviderOpenAI, ProviderGoogle)
	}
}

// String returns the provider name, or "" for the zero value.
func (p Provider) String() string {
	return p.name
}

// IsZero reports whether no provider was chosen.
func (p Provider) IsZero() bool {
	return p.name == ""
}

// OrDefault returns the provider, or OpenAIProvider if zero.
func (p Provider) OrDefault() Provider {
	if p.IsZero() {
		return OpenAIProvider
	}
	return p
}

// APIKeyEnv names the environment variable holding the provider's key.
func (p Provider) APIKeyEnv() string {
	if p.OrDefault() == GoogleProvider {
		return EnvGoogleAPIKey
	}
	return EnvOpenAIAPIKey
}

// APIKey reads the provider's key with getenv. A missing key is an error
// wrapping ErrAPIKeyMissing.
func (p Provider) APIKey(getenv func(string) string) (string, error) {
	name := p.APIKeyEnv()
	key := strings.TrimSpace(getenv(name))
	if key == "" {
		return "", fmt.Errorf("%w: %s is not set (export %s=... or add it to .env)", ErrAPIKeyMissing, name, name)
	}
	return key, nil
}
