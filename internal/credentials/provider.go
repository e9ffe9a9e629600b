// Package credentials supplies bearer tokens for the remote generation backend.
package credentials

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// cloudPlatformScope is the OAuth scope required by the Vertex AI API.
const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// Provider supplies a valid bearer token for each request.
// Implementations cache and refresh tokens internally; callers treat a
// token error as transient and ask again on the next attempt.
type Provider interface {
	Token(ctx context.Context) (string, error)
}

// googleProvider mints tokens from Google service-account credentials.
// The underlying oauth2 source caches the token and refreshes it
// automatically when it expires.
type googleProvider struct {
	source oauth2.TokenSource
}

// NewGoogleProvider resolves Application Default Credentials
// (GOOGLE_APPLICATION_CREDENTIALS, gcloud config, or metadata server).
func NewGoogleProvider(ctx context.Context) (Provider, error) {
	creds, err := google.FindDefaultCredentials(ctx, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("resolve default credentials: %w", err)
	}
	return &googleProvider{source: creds.TokenSource}, nil
}

// NewGoogleProviderFromFile reads service-account JSON from a file.
func NewGoogleProviderFromFile(ctx context.Context, path string) (Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, cloudPlatformScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return &googleProvider{source: creds.TokenSource}, nil
}

// FromTokenSource wraps an arbitrary oauth2 token source.
func FromTokenSource(source oauth2.TokenSource) Provider {
	return &googleProvider{source: source}
}

func (p *googleProvider) Token(ctx context.Context) (string, error) {
	token, err := p.source.Token()
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	return token.AccessToken, nil
}

// Ready reports whether the provider can currently mint a token.
func (p *googleProvider) Ready(ctx context.Context) error {
	_, err := p.Token(ctx)
	return err
}

// Static is a fixed-token Provider for development and tests.
type Static string

// Token returns the static token.
func (s Static) Token(context.Context) (string, error) {
	return string(s), nil
}

// Ready always succeeds for a static token.
func (s Static) Ready(context.Context) error {
	return nil
}
