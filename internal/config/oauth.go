package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// OAuthClientConfig mirrors the client secrets file downloaded from the Google
// Cloud console. Desktop apps get an "installed" section, web apps a "web" one.
type OAuthClientConfig struct {
	Installed *OAuthClient `json:"installed,omitempty" validate:"required_without=Web"`
	Web       *OAuthClient `json:"web,omitempty" validate:"required_without=Installed"`
}

// OAuthClient is one client section of the secrets file
type OAuthClient struct {
	ClientID                string   `json:"client_id" validate:"required"`
	ProjectID               string   `json:"project_id" validate:"required"`
	AuthURI                 string   `json:"auth_uri" validate:"required,url"`
	TokenURI                string   `json:"token_uri" validate:"required,url"`
	AuthProviderX509CertURL string   `json:"auth_provider_x509_cert_url,omitempty" validate:"omitempty,url"`
	ClientSecret            string   `json:"client_secret" validate:"required"`
	RedirectURIs            []string `json:"redirect_uris" validate:"required,min=1,dive,uri"`
}

// Client returns the "installed" section if present, else "web"
func (c *OAuthClientConfig) Client() *OAuthClient {
	if c.Installed != nil {
		return c.Installed
	}
	return c.Web
}

// SecretsJSON re-encodes the config in the secrets file format expected by
// google.ConfigFromJSON
func (c *OAuthClientConfig) SecretsJSON() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode oauth client: %w", err)
	}
	return data, nil
}

// LoadOAuthClientWithEnv finds oauthClient.<env>.json (oauthClient.json when
// env is empty) in the working or home directory and loads it
func LoadOAuthClientWithEnv(env string) (*OAuthClientConfig, error) {
	path, err := findFile(envFileName("oauthClient", ".json", env))
	if err != nil {
		return nil, fmt.Errorf("failed to find oauth client file: %w", err)
	}
	return LoadOAuthClientFromPath(path)
}

// LoadOAuthClientFromPath reads, decodes and validates an OAuth client file
func LoadOAuthClientFromPath(path string) (*OAuthClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth client file: %w", err)
	}

	oauthCfg := &OAuthClientConfig{}
	if err := json.Unmarshal(data, oauthCfg); err != nil {
		return nil, fmt.Errorf("failed to parse oauth client file: %w", err)
	}
	if err := ValidateOAuthClient(oauthCfg); err != nil {
		return nil, err
	}
	return oauthCfg, nil
}

// ValidateOAuthClient checks that one client section is present and complete
func ValidateOAuthClient(cfg *OAuthClientConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("oauth client validation failed: %w", err)
	}
	return nil
}
