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

package issuer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvci/issuer-node/idp"
	"github.com/openvci/issuer-node/issuer/mapper"
	"github.com/openvci/issuer-node/openid4vci"
)

// issuingClients declare ExampleCredential and carry the mappers that fill in
// the credential subject.
var issuingClients = []idp.Client{
	{
		ID:       "wallet-a",
		Protocol: idp.ProtocolID,
		Attributes: map[string]string{
			"vctypes_ExampleCredential": "ldp_vc,jwt_vc_json",
		},
		Mappers: []idp.MapperDefinition{
			{ID: "subject", Kind: mapper.KindSubjectID, Config: map[string]string{}},
			{ID: "email", Kind: mapper.KindUserAttribute, Config: map[string]string{
				"userAttribute": "email",
				"claimName":     "email",
			}},
			{ID: "tier", Kind: mapper.KindStaticClaim, Config: map[string]string{
				"claimName":   "tier",
				"staticValue": "gold",
			}},
			{ID: "expiry", Kind: mapper.KindExpiry, Config: map[string]string{
				"validFor": "3600",
			}},
		},
	},
}

func TestIssuer_New(t *testing.T) {
	t.Run("error - invalid DID", func(t *testing.T) {
		tc := newTestContext(t)
		config := tc.issuer.config
		config.DID = "not a did"

		_, err := New(config, tc.clock, tc.auth, tc.clients, tc.roles, tc.tokens)

		assert.Error(t, err)
	})
}

func TestIssuer_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		tc := newTestContext(t)
		tc.auth.EXPECT().Authenticate(ctx, "token").Return(&testAuth, nil)

		result, err := tc.issuer.Authenticate(ctx, "token")

		require.NoError(t, err)
		assert.Equal(t, testAuth, *result)
	})
	t.Run("error - empty token", func(t *testing.T) {
		tc := newTestContext(t)

		_, err := tc.issuer.Authenticate(ctx, "")

		requireErrorCode(t, err, openid4vci.NotAuthorized)
	})
	t.Run("error - token rejected", func(t *testing.T) {
		tc := newTestContext(t)
		tc.auth.EXPECT().Authenticate(ctx, "token").Return(nil, nil)

		_, err := tc.issuer.Authenticate(ctx, "token")

		requireErrorCode(t, err, openid4vci.NotAuthorized)
	})
	t.Run("error - authenticator failure", func(t *testing.T) {
		tc := newTestContext(t)
		tc.auth.EXPECT().Authenticate(ctx, "token").Return(nil, errors.New("boom"))

		_, err := tc.issuer.Authenticate(ctx, "token")

		requireErrorCode(t, err, openid4vci.ServerError)
	})
}

func TestIssuer_Metadata(t *testing.T) {
	ctx := context.Background()

	t.Run("credential issuer metadata", func(t *testing.T) {
		tc := newTestContext(t)
		tc.clients.EXPECT().Clients(ctx).Return(issuingClients, nil)

		metadata, err := tc.issuer.Metadata(ctx)

		require.NoError(t, err)
		assert.Equal(t, testIdentity, metadata.CredentialIssuer)
		assert.Equal(t, testIdentity+"/credential", metadata.CredentialEndpoint)
		require.Len(t, metadata.CredentialsSupported, 2)
		for _, entry := range metadata.CredentialsSupported {
			assert.Equal(t, []string{"VerifiableCredential", "ExampleCredential"}, entry.Types)
			assert.Equal(t, []string{"did"}, entry.CryptographicBindingMethodsSupported)
			assert.Equal(t, []string{"JsonWebSignature2020"}, entry.CryptographicSuitesSupported)
		}
	})
	t.Run("provider metadata", func(t *testing.T) {
		tc := newTestContext(t)

		metadata := tc.issuer.ProviderMetadata()

		assert.Equal(t, testIdentity, metadata.Issuer)
		assert.Equal(t, testIdentity+"/token", metadata.TokenEndpoint)
		assert.Equal(t, testIdentity+"/credential", metadata.CredentialEndpoint)
		assert.Equal(t, []string{openid4vci.PreAuthorizedCodeGrant}, metadata.GrantTypesSupported)
	})
}

func TestIssuer_IssueCredential(t *testing.T) {
	ctx := context.Background()
	request := openid4vci.CredentialRequest{
		Types:  []string{"VerifiableCredential", "ExampleCredential"},
		Format: openid4vci.LDPVCFormat,
		Proof:  &openid4vci.Proof{ProofType: openid4vci.ProofTypeJWT, JWT: "proof-jwt"},
	}

	t.Run("ok - ldp_vc", func(t *testing.T) {
		tc := newTestContext(t)
		tc.clients.EXPECT().Clients(ctx).Return(issuingClients, nil)
		tc.roles.EXPECT().Roles(ctx, testAuth.User.ID).Return(map[string][]string{}, nil)

		response, err := tc.issuer.IssueCredential(ctx, testAuth, request)

		require.NoError(t, err)
		assert.Equal(t, openid4vci.LDPVCFormat, response.Format)
		asJSON, _ := json.Marshal(response.Credential)
		assert.Contains(t, string(asJSON), `"proof"`)
		assert.Contains(t, string(asJSON), `"email":"alice@example.com"`)
		assert.Contains(t, string(asJSON), `"tier":"gold"`)
		assert.Contains(t, string(asJSON), `"id":"did:web:wallet.example.com"`)
		assert.Contains(t, string(asJSON), `"issuer":"`+testIssuerDID+`"`)
		assert.Contains(t, string(asJSON), `"expirationDate"`)
	})
	t.Run("ok - jwt_vc resolves against a jwt_vc_json declaration, response keeps the requested label", func(t *testing.T) {
		tc := newTestContext(t)
		tc.clients.EXPECT().Clients(ctx).Return(issuingClients, nil)
		tc.roles.EXPECT().Roles(ctx, testAuth.User.ID).Return(map[string][]string{}, nil)

		jwtRequest := request
		jwtRequest.Format = openid4vci.JWTVCFormat
		response, err := tc.issuer.IssueCredential(ctx, testAuth, jwtRequest)

		require.NoError(t, err)
		assert.Equal(t, openid4vci.JWTVCFormat, response.Format)
		token, ok := response.Credential.(string)
		require.True(t, ok)
		assert.Len(t, strings.Split(token, "."), 3)
	})
	t.Run("ok - legacy type string", func(t *testing.T) {
		tc := newTestContext(t)
		tc.clients.EXPECT().Clients(ctx).Return(issuingClients, nil)
		tc.roles.EXPECT().Roles(ctx, testAuth.User.ID).Return(map[string][]string{}, nil)

		legacyRequest := request
		legacyRequest.Types = nil
		legacyRequest.Type = `["VerifiableCredential","ExampleCredential"]`
		response, err := tc.issuer.IssueCredential(ctx, testAuth, legacyRequest)

		require.NoError(t, err)
		assert.Equal(t, openid4vci.LDPVCFormat, response.Format)
	})
	t.Run("ok - request without proof", func(t *testing.T) {
		tc := newTestContext(t)
		tc.clients.EXPECT().Clients(ctx).Return(issuingClients, nil)
		tc.roles.EXPECT().Roles(ctx, testAuth.User.ID).Return(map[string][]string{}, nil)

		bare := request
		bare.Proof = nil
		_, err := tc.issuer.IssueCredential(ctx, testAuth, bare)

		assert.NoError(t, err)
	})
	t.Run("error - no concrete type", func(t *testing.T) {
		tc := newTestContext(t)

		invalid := request
		invalid.Types = []string{"VerifiableCredential"}
		_, err := tc.issuer.IssueCredential(ctx, testAuth, invalid)

		requireErrorCode(t, err, openid4vci.InvalidRequest)
	})
	t.Run("error - unsupported proof type", func(t *testing.T) {
		tc := newTestContext(t)

		invalid := request
		invalid.Proof = &openid4vci.Proof{ProofType: "ldp_vp"}
		_, err := tc.issuer.IssueCredential(ctx, testAuth, invalid)

		requireErrorCode(t, err, openid4vci.InvalidOrMissingProof)
	})
	t.Run("error - unknown format", func(t *testing.T) {
		tc := newTestContext(t)

		invalid := request
		invalid.Format = "mdoc"
		_, err := tc.issuer.IssueCredential(ctx, testAuth, invalid)

		requireErrorCode(t, err, openid4vci.UnsupportedCredentialType)
	})
	t.Run("error - no client issues the pair", func(t *testing.T) {
		tc := newTestContext(t)
		tc.clients.EXPECT().Clients(ctx).Return(issuingClients, nil)

		invalid := request
		invalid.Types = []string{"VerifiableCredential", "MembershipCredential"}
		_, err := tc.issuer.IssueCredential(ctx, testAuth, invalid)

		requireErrorCode(t, err, openid4vci.UnsupportedCredentialType)
	})
	t.Run("error - misconfigured mapper", func(t *testing.T) {
		tc := newTestContext(t)
		broken := []idp.Client{{
			ID:       "wallet-a",
			Protocol: idp.ProtocolID,
			Attributes: map[string]string{
				"vctypes_ExampleCredential": "ldp_vc",
			},
			Mappers: []idp.MapperDefinition{
				{ID: "unknown", Kind: "oidc4vc-telepathy-mapper"},
			},
		}}
		tc.clients.EXPECT().Clients(ctx).Return(broken, nil)
		tc.roles.EXPECT().Roles(ctx, testAuth.User.ID).Return(map[string][]string{}, nil)

		_, err := tc.issuer.IssueCredential(ctx, testAuth, request)

		requireErrorCode(t, err, openid4vci.ServerError)
	})
	t.Run("error - client store failure", func(t *testing.T) {
		tc := newTestContext(t)
		tc.clients.EXPECT().Clients(ctx).Return(nil, errors.New("boom"))

		_, err := tc.issuer.IssueCredential(ctx, testAuth, request)

		requireErrorCode(t, err, openid4vci.ServerError)
	})
	t.Run("error - role store failure", func(t *testing.T) {
		tc := newTestContext(t)
		tc.clients.EXPECT().Clients(ctx).Return(issuingClients, nil)
		tc.roles.EXPECT().Roles(ctx, testAuth.User.ID).Return(nil, errors.New("boom"))

		_, err := tc.issuer.IssueCredential(ctx, testAuth, request)

		requireErrorCode(t, err, openid4vci.ServerError)
	})
}
