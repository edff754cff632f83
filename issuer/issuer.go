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

// Package issuer implements the credential issuance protocol engine: capability
// resolution from client configuration, the offer/code/token exchange flow, the
// claim mapping pipeline and format-specific signing dispatch.
package issuer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	ssi "github.com/nuts-foundation/go-did"
	"github.com/nuts-foundation/go-did/did"
	"github.com/nuts-foundation/go-did/vc"

	"github.com/openvci/issuer-node/core"
	"github.com/openvci/issuer-node/idp"
	"github.com/openvci/issuer-node/issuer/log"
	"github.com/openvci/issuer-node/issuer/mapper"
	"github.com/openvci/issuer-node/issuer/signing"
	"github.com/openvci/issuer-node/openid4vci"
)

// Issuer is the protocol engine. Request handling is stateless: all mutable
// flow state lives in the session database, the signing backends are read-only
// after construction.
type Issuer struct {
	config     Config
	clock      clock.Clock
	db         *SessionDatabase
	offers     SessionStore
	codes      SessionStore
	auth       idp.Authenticator
	clients    idp.ClientStore
	roles      idp.RoleStore
	tokens     idp.AccessTokenIssuer
	dispatcher *signing.Dispatcher
	metrics    *metrics
}

// New constructs the engine. The signing backends are built here; a backend
// that fails to initialize disables its formats but does not fail startup.
func New(config Config, cl clock.Clock, auth idp.Authenticator, clients idp.ClientStore,
	roles idp.RoleStore, tokens idp.AccessTokenIssuer) (*Issuer, error) {
	if _, err := did.ParseDID(config.DID); err != nil {
		return nil, fmt.Errorf("invalid issuer DID (%s): %w", config.DID, err)
	}
	metrics, err := newMetrics()
	if err != nil {
		return nil, err
	}
	db := NewSessionDatabase(cl)
	return &Issuer{
		config:     config,
		clock:      cl,
		db:         db,
		offers:     db.GetStore(time.Duration(config.OfferTTL)*time.Second, "openid4vci", "offer"),
		codes:      db.GetStore(time.Duration(config.CodeTTL)*time.Second, "openid4vci", "code"),
		auth:       auth,
		clients:    clients,
		roles:      roles,
		tokens:     tokens,
		dispatcher: signing.NewDispatcher(config.KeyFile, config.DID+"#key-1", cl),
		metrics:    metrics,
	}, nil
}

// DID returns the DID credentials are issued under.
func (i *Issuer) DID() string {
	return i.config.DID
}

// IdentityURL returns the public URL of the issuance endpoints.
func (i *Issuer) IdentityURL() string {
	return core.JoinURLPaths(i.config.URL, i.config.DID)
}

// Close stops the session database.
func (i *Issuer) Close() {
	i.db.Close()
}

// Authenticate resolves a bearer token through the identity provider.
func (i *Issuer) Authenticate(ctx context.Context, token string) (*idp.AuthResult, error) {
	if token == "" {
		return nil, openid4vci.Error{
			Err:  errors.New("no bearer token"),
			Code: openid4vci.NotAuthorized,
		}
	}
	result, err := i.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, openid4vci.Error{Err: err, Code: openid4vci.ServerError}
	}
	if result == nil {
		return nil, openid4vci.Error{
			Err:  errors.New("invalid bearer token"),
			Code: openid4vci.NotAuthorized,
		}
	}
	return result, nil
}

// SupportedCredentials lists every issuable (type, format) pair.
func (i *Issuer) SupportedCredentials(ctx context.Context) ([]openid4vci.SupportedCredential, error) {
	clients, err := i.clients.Clients(ctx)
	if err != nil {
		return nil, openid4vci.Error{Err: err, Code: openid4vci.ServerError}
	}
	return SupportedCredentials(clients), nil
}

// Metadata returns the .well-known/openid-credential-issuer document.
func (i *Issuer) Metadata(ctx context.Context) (*openid4vci.CredentialIssuerMetadata, error) {
	supported, err := i.SupportedCredentials(ctx)
	if err != nil {
		return nil, err
	}
	identity := i.IdentityURL()
	entries := make([]openid4vci.CredentialsSupportedEntry, 0, len(supported))
	for _, credential := range supported {
		entries = append(entries, openid4vci.CredentialsSupportedEntry{
			ID:                                   credential.Type + "_" + string(credential.Format),
			Format:                               credential.Format,
			Types:                                []string{openid4vci.TypeVerifiableCredential, credential.Type},
			CryptographicBindingMethodsSupported: []string{"did"},
			CryptographicSuitesSupported:         []string{signing.JsonWebSignature2020},
		})
	}
	return &openid4vci.CredentialIssuerMetadata{
		CredentialIssuer:     identity,
		CredentialEndpoint:   core.JoinURLPaths(identity, "credential"),
		CredentialsSupported: entries,
	}, nil
}

// ProviderMetadata returns the .well-known/openid-configuration document.
func (i *Issuer) ProviderMetadata() openid4vci.ProviderMetadata {
	identity := i.IdentityURL()
	return openid4vci.ProviderMetadata{
		Issuer:                 identity,
		TokenEndpoint:          core.JoinURLPaths(identity, "token"),
		CredentialEndpoint:     core.JoinURLPaths(identity, "credential"),
		GrantTypesSupported:    []string{openid4vci.PreAuthorizedCodeGrant},
		ResponseTypesSupported: []string{"token"},
	}
}

// IssueCredential validates the credential request of an authenticated caller,
// builds the credential through the claim mapping pipeline and signs it.
// The response carries the format label the caller asked for, even when an
// alias was resolved internally.
func (i *Issuer) IssueCredential(ctx context.Context, auth idp.AuthResult, request openid4vci.CredentialRequest) (*openid4vci.CredentialResponse, error) {
	credentialType, err := request.ResolveType()
	if err != nil {
		return nil, err
	}
	if err := validateProof(request.Proof); err != nil {
		return nil, err
	}
	requested, err := openid4vci.ParseFormat(string(request.Format))
	if err != nil {
		return nil, err
	}
	resolution, response := openid4vci.NormalizeFormat(requested)

	clients, err := i.clients.Clients(ctx)
	if err != nil {
		return nil, openid4vci.Error{Err: err, Code: openid4vci.ServerError}
	}
	winners, err := ClientsSupporting(clients, credentialType, resolution)
	if err != nil {
		return nil, err
	}

	roles, err := i.roles.Roles(ctx, auth.User.ID)
	if err != nil {
		return nil, openid4vci.Error{Err: err, Code: openid4vci.ServerError}
	}
	issuanceDate := i.clock.Now().UTC().Truncate(time.Second)
	env := mapper.Env{
		User:     auth.User,
		Session:  auth.Session,
		Roles:    roles,
		IssuedAt: issuanceDate,
	}
	mappers, err := resolveMappers(winners)
	if err != nil {
		return nil, openid4vci.Error{Err: err, Code: openid4vci.ServerError}
	}

	claims := map[string]interface{}{}
	if err := mapper.ApplySubjectPass(mappers, claims, env); err != nil {
		return nil, openid4vci.Error{
			Err:  fmt.Errorf("claim mapping failed: %w", err),
			Code: openid4vci.ServerError,
		}
	}

	credentialID := ssi.MustParseURI("urn:uuid:" + uuid.NewString())
	credential := vc.VerifiableCredential{
		Context: []ssi.URI{
			vc.VCContextV1URI(),
			ssi.MustParseURI(signing.JWS2020Context),
			ssi.MustParseURI(signing.CredentialVocabContext),
		},
		ID:                &credentialID,
		Type:              []ssi.URI{vc.VerifiableCredentialTypeV1URI(), ssi.MustParseURI(credentialType)},
		Issuer:            ssi.MustParseURI(i.config.DID),
		IssuanceDate:      issuanceDate,
		CredentialSubject: []map[string]interface{}{claims},
	}
	if err := mapper.ApplyCredentialPass(mappers, &credential, env); err != nil {
		return nil, openid4vci.Error{
			Err:  fmt.Errorf("claim mapping failed: %w", err),
			Code: openid4vci.ServerError,
		}
	}

	signed, err := i.dispatcher.Sign(resolution, credential)
	if err != nil {
		return nil, err
	}
	i.metrics.credentialsIssued.WithLabelValues(string(response)).Inc()
	log.Logger().
		WithField("type", credentialType).
		WithField("format", response).
		WithField("client", auth.Client.ID).
		Info("Issued credential")
	return &openid4vci.CredentialResponse{
		Format:     response,
		Credential: signed,
	}, nil
}

// validateProof checks the proof type. Verifying the proof signature against
// the expected audience and nonce is not implemented; requests carrying a jwt
// proof are accepted on type alone.
// TODO: verify the proof JWT against the wallet's key (tracked as a known gap).
func validateProof(proof *openid4vci.Proof) error {
	if proof == nil {
		return nil
	}
	if proof.ProofType != openid4vci.ProofTypeJWT {
		return openid4vci.Error{
			Err:  errors.New("unsupported proof type: " + proof.ProofType),
			Code: openid4vci.InvalidOrMissingProof,
		}
	}
	return nil
}

// resolveMappers instantiates the protocol mappers of the winning clients, in
// client order, each client's mappers in declaration order. When multiple
// clients back the same credential their claim sets merge last-write-wins.
func resolveMappers(clients []idp.Client) ([]mapper.Mapper, error) {
	var result []mapper.Mapper
	for _, client := range clients {
		for _, definition := range client.Mappers {
			instance, err := mapper.FromDefinition(definition)
			if err != nil {
				return nil, fmt.Errorf("client %s: mapper %s: %w", client.ID, definition.ID, err)
			}
			result = append(result, instance)
		}
	}
	return result, nil
}
