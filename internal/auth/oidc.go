// Dionysus - GitHub Project Intelligence and Collaboration
// Copyright 2026 Dionysus Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dionysus-app/dionysus

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/zitadel/oidc/v3/pkg/client/rp"
	"github.com/zitadel/oidc/v3/pkg/oidc"

	"github.com/dionysus-app/dionysus/internal/config"
	"github.com/dionysus-app/dionysus/internal/logging"
)

// stateTTL bounds how long a login redirect stays valid.
const stateTTL = 10 * time.Minute

// Identity is what an identity provider asserts about a user after a
// successful login.
type Identity struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
	ImageURL   string
}

// OIDCFlow drives the authorization code flow against any OIDC
// provider, using the certified zitadel relying party with PKCE.
type OIDCFlow struct {
	rp     rp.RelyingParty
	states StateStore
}

// NewOIDCFlow performs OIDC discovery and builds the flow. The
// context bounds the discovery request.
func NewOIDCFlow(ctx context.Context, cfg *config.AuthConfig, states StateStore) (*OIDCFlow, error) {
	if cfg.OIDCIssuer == "" {
		return nil, fmt.Errorf("oidc_issuer is required")
	}
	if cfg.OIDCClientID == "" {
		return nil, fmt.Errorf("oidc_client_id is required")
	}
	if cfg.OIDCRedirectURL == "" {
		return nil, fmt.Errorf("oidc_redirect_url is required")
	}

	scopes := cfg.OIDCScopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile", "email"}
	}

	options := []rp.Option{
		rp.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
		rp.WithPKCE(nil),
	}

	relyingParty, err := rp.NewRelyingPartyOIDC(ctx,
		cfg.OIDCIssuer,
		cfg.OIDCClientID,
		cfg.OIDCClientSecret,
		cfg.OIDCRedirectURL,
		scopes,
		options...,
	)
	if err != nil {
		return nil, fmt.Errorf("create relying party: %w", err)
	}

	return &OIDCFlow{rp: relyingParty, states: states}, nil
}

// AuthorizationURL generates the provider redirect URL with a fresh
// single-use state and nonce.
func (f *OIDCFlow) AuthorizationURL(ctx context.Context, postLoginRedirect string) (string, error) {
	stateKey, err := generateSecureRandom(32)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := generateSecureRandom(32)
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	now := time.Now()
	stateData := &StateData{
		Nonce:             nonce,
		PostLoginRedirect: postLoginRedirect,
		CreatedAt:         now,
		ExpiresAt:         now.Add(stateTTL),
	}

	authURL := rp.AuthURL(stateKey, f.rp)

	parsedURL, err := url.Parse(authURL)
	if err != nil {
		return "", fmt.Errorf("parse auth URL: %w", err)
	}
	query := parsedURL.Query()
	query.Set("nonce", nonce)
	parsedURL.RawQuery = query.Encode()

	if err := f.states.Store(ctx, stateKey, stateData); err != nil {
		return "", fmt.Errorf("store state: %w", err)
	}

	logging.Debug().Str("state", stateKey[:8]+"...").Msg("Generated OIDC authorization URL")
	return parsedURL.String(), nil
}

// HandleCallback validates the state, exchanges the code for tokens,
// checks the nonce and maps the ID token claims to an Identity.
func (f *OIDCFlow) HandleCallback(ctx context.Context, code, state string) (*Identity, string, error) {
	stateData, err := f.states.Get(ctx, state)
	if err != nil {
		return nil, "", err
	}
	// Delete immediately so the state cannot be replayed.
	if err := f.states.Delete(ctx, state); err != nil {
		logging.Warn().Err(err).Msg("Failed to delete state after validation")
	}

	tokens, err := rp.CodeExchange[*oidc.IDTokenClaims](ctx, code, f.rp)
	if err != nil {
		logging.Error().Err(err).Msg("Token exchange failed")
		return nil, "", fmt.Errorf("%w: %s", ErrTokenExchangeFailed, err.Error())
	}

	claims := tokens.IDTokenClaims
	if claims == nil {
		return nil, "", fmt.Errorf("%w: no ID token claims", ErrTokenExchangeFailed)
	}
	if stateData.Nonce != "" && claims.Nonce != stateData.Nonce {
		return nil, "", fmt.Errorf("%w: nonce mismatch", ErrInvalidCredentials)
	}

	identity := &Identity{
		ExternalID: claims.Subject,
		Email:      claims.Email,
		FirstName:  claims.GivenName,
		LastName:   claims.FamilyName,
		ImageURL:   claims.Picture,
	}

	logging.Info().Str("subject", identity.ExternalID).Msg("OIDC login successful")
	return identity, stateData.PostLoginRedirect, nil
}

func generateSecureRandom(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
