/*
 * Copyright (C) 2025 OpenVCI community
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <https://www.gnu.org/licenses/>.
 *
 */

package idp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/openvci/issuer-node/crypto"
)

// StaticConfig is the realm snapshot backing the static identity provider.
type StaticConfig struct {
	// KeyFile points to the PEM file holding the access-token signing key.
	KeyFile string `koanf:"keyfile"`
	// Clients are the registered clients, in registration order.
	Clients []Client `koanf:"clients"`
	// Users are the known end-users.
	Users []User `koanf:"users"`
	// Roles maps user ID to client ID to assigned role names.
	Roles map[string]map[string][]string `koanf:"roles"`
	// AccessTokenLifespan is the lifetime of issued access tokens in seconds.
	AccessTokenLifespan int64 `koanf:"accesstokenlifespan"`
}

// DefaultStaticConfig returns a StaticConfig with default values.
func DefaultStaticConfig() StaticConfig {
	return StaticConfig{
		AccessTokenLifespan: 300,
	}
}

var _ Authenticator = (*StaticProvider)(nil)
var _ ClientStore = (*StaticProvider)(nil)
var _ RoleStore = (*StaticProvider)(nil)
var _ AccessTokenIssuer = (*StaticProvider)(nil)

// StaticProvider is an in-process identity provider backed by a fixed realm
// snapshot from configuration. It issues and authenticates its own signed
// access tokens, which makes the node usable without an external provider.
type StaticProvider struct {
	config StaticConfig
	users  map[string]User
	key    jwk.Key
	clock  clock.Clock
}

// NewStaticProvider creates a StaticProvider signing its tokens with the
// PEM-encoded key the config points at.
func NewStaticProvider(config StaticConfig, cl clock.Clock) (*StaticProvider, error) {
	key, err := crypto.ParseKeyFile(config.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("unable to load identity provider signing key: %w", err)
	}
	users := make(map[string]User, len(config.Users))
	for _, user := range config.Users {
		users[user.ID] = user
	}
	return &StaticProvider{
		config: config,
		users:  users,
		key:    key,
		clock:  cl,
	}, nil
}

// IssueAccessToken signs a bearer token binding the user, session and client.
func (p *StaticProvider) IssueAccessToken(_ context.Context, result AuthResult) (string, int64, error) {
	now := p.clock.Now()
	claims := map[string]interface{}{
		jwt.JwtIDKey:      uuid.NewString(),
		jwt.SubjectKey:    result.User.ID,
		jwt.IssuedAtKey:   now,
		jwt.ExpirationKey: now.Add(time.Duration(p.config.AccessTokenLifespan) * time.Second),
		"sid":             result.Session.ID,
		"azp":             result.Client.ID,
	}
	token, err := crypto.SignJWT(p.key, claims, nil)
	if err != nil {
		return "", 0, err
	}
	return token, p.config.AccessTokenLifespan, nil
}

// Authenticate validates a bearer token previously issued by this provider and
// reconstitutes the user, session and client it was issued for.
func (p *StaticProvider) Authenticate(_ context.Context, token string) (*AuthResult, error) {
	if token == "" {
		return nil, nil
	}
	parsed, err := crypto.ParseJWT(token, p.key, p.clock.Now)
	if err != nil {
		return nil, nil
	}
	user, ok := p.users[parsed.Subject()]
	if !ok {
		return nil, nil
	}
	sessionID, _ := parsed.Get("sid")
	clientID, _ := parsed.Get("azp")
	client, err := p.client(fmt.Sprintf("%v", clientID))
	if err != nil {
		return nil, nil
	}
	return &AuthResult{
		User: user,
		Session: Session{
			ID:       fmt.Sprintf("%v", sessionID),
			UserID:   user.ID,
			ClientID: client.ID,
		},
		Client: client,
	}, nil
}

// Clients returns the registered clients.
func (p *StaticProvider) Clients(_ context.Context) ([]Client, error) {
	return p.config.Clients, nil
}

// Roles returns the role assignments of the user, keyed by client ID.
func (p *StaticProvider) Roles(_ context.Context, userID string) (map[string][]string, error) {
	if _, ok := p.users[userID]; !ok {
		return nil, errors.New("unknown user: " + userID)
	}
	return p.config.Roles[userID], nil
}

func (p *StaticProvider) client(id string) (Client, error) {
	for _, client := range p.config.Clients {
		if client.ID == id {
			return client, nil
		}
	}
	return Client{}, errors.New("unknown client: " + id)
}
