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

// Package idp declares the contracts of the identity provider the issuance engine
// collaborates with. The engine never depends on a concrete implementation: user and
// session storage, bearer-token authentication and access-token signing are the
// provider's problem.
package idp

import "context"

// ProtocolID is the login protocol clients must declare to participate in credential issuance.
const ProtocolID = "oidc4vc"

// User is an end-user known to the identity provider.
type User struct {
	ID         string              `koanf:"id" json:"id"`
	Username   string              `koanf:"username" json:"username"`
	Attributes map[string][]string `koanf:"attributes" json:"attributes"`
}

// Session is an authenticated client session: a user logged in through a specific client.
type Session struct {
	ID       string `json:"id"`
	UserID   string `json:"user_id"`
	ClientID string `json:"client_id"`
}

// MapperDefinition is one configured protocol mapper on a client.
// Definition order is significant: it is the order mappers run in.
type MapperDefinition struct {
	ID     string            `koanf:"id" json:"id"`
	Kind   string            `koanf:"kind" json:"kind"`
	Config map[string]string `koanf:"config" json:"config"`
}

// Client is a registered client and its configuration attributes.
type Client struct {
	ID         string             `koanf:"id" json:"id"`
	Protocol   string             `koanf:"protocol" json:"protocol"`
	Attributes map[string]string  `koanf:"attributes" json:"attributes"`
	Mappers    []MapperDefinition `koanf:"mappers" json:"mappers"`
}

// AuthResult is the outcome of successful bearer-token authentication.
type AuthResult struct {
	User    User
	Session Session
	Client  Client
}

// Authenticator resolves a bearer token to the user and client session it belongs to.
type Authenticator interface {
	// Authenticate validates the bearer token. It returns nil when the token is
	// absent, malformed, expired or otherwise not acceptable.
	Authenticate(ctx context.Context, token string) (*AuthResult, error)
}

// ClientStore gives access to the realm's registered clients.
type ClientStore interface {
	// Clients returns all registered clients, in registration order.
	Clients(ctx context.Context) ([]Client, error)
}

// RoleStore resolves the role assignments of a user, per client.
type RoleStore interface {
	// Roles returns the role names assigned to the user, keyed by client ID.
	Roles(ctx context.Context, userID string) (map[string][]string, error)
}

// AccessTokenIssuer encodes and signs access tokens for an authenticated session.
type AccessTokenIssuer interface {
	// IssueAccessToken returns a signed access token scoped to the given session
	// and the number of seconds until it expires.
	IssueAccessToken(ctx context.Context, result AuthResult) (string, int64, error)
}
