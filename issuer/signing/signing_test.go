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

package signing

import (
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	ssi "github.com/nuts-foundation/go-did"
	"github.com/nuts-foundation/go-did/vc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvci/issuer-node/crypto"
	"github.com/openvci/issuer-node/openid4vci"
)

const testVerificationMethod = "did:web:example.com#key-1"

func testCredential() vc.VerifiableCredential {
	credentialID := ssi.MustParseURI("urn:uuid:46130d5f-0b9e-4a24-aba4-9c93de8f7db2")
	return vc.VerifiableCredential{
		Context: []ssi.URI{
			vc.VCContextV1URI(),
			ssi.MustParseURI(JWS2020Context),
			ssi.MustParseURI(CredentialVocabContext),
		},
		ID:           &credentialID,
		Type:         []ssi.URI{vc.VerifiableCredentialTypeV1URI(), ssi.MustParseURI("ExampleCredential")},
		Issuer:       ssi.MustParseURI("did:web:example.com"),
		IssuanceDate: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		CredentialSubject: []map[string]interface{}{
			{
				"id":    "did:web:wallet.example.com",
				"email": "alice@example.com",
			},
		},
	}
}

func TestDispatcher(t *testing.T) {
	t.Run("all formats available", func(t *testing.T) {
		dispatcher := NewDispatcher(crypto.NewTestKeyFile(t), testVerificationMethod, clock.NewMock())

		assert.True(t, dispatcher.Supports(openid4vci.JWTVCJSONFormat))
		assert.True(t, dispatcher.Supports(openid4vci.JWTVCJSONLDFormat))
		assert.True(t, dispatcher.Supports(openid4vci.LDPVCFormat))
	})
	t.Run("unreadable key disables every format without failing construction", func(t *testing.T) {
		dispatcher := NewDispatcher("/nonexistent/key.pem", testVerificationMethod, clock.NewMock())

		assert.False(t, dispatcher.Supports(openid4vci.JWTVCJSONFormat))
		assert.False(t, dispatcher.Supports(openid4vci.LDPVCFormat))

		_, err := dispatcher.Sign(openid4vci.LDPVCFormat, testCredential())
		var issuanceError openid4vci.Error
		require.ErrorAs(t, err, &issuanceError)
		assert.Equal(t, openid4vci.UnsupportedCredentialType, issuanceError.Code)
	})
	t.Run("missing backend", func(t *testing.T) {
		dispatcher := &Dispatcher{backends: map[openid4vci.Format]Backend{}}

		_, err := dispatcher.Sign(openid4vci.JWTVCJSONFormat, testCredential())

		var issuanceError openid4vci.Error
		require.ErrorAs(t, err, &issuanceError)
		assert.Equal(t, openid4vci.UnsupportedCredentialType, issuanceError.Code)
	})
}

func TestJWTBackend_Sign(t *testing.T) {
	keyFile := crypto.NewTestKeyFile(t)
	backend, err := newJWTBackend(keyFile)
	require.NoError(t, err)
	key, err := crypto.ParseKeyFile(keyFile)
	require.NoError(t, err)
	credential := testCredential()

	signed, err := backend.Sign(credential)
	require.NoError(t, err)
	compact, ok := signed.(string)
	require.True(t, ok)

	now := func() time.Time { return credential.IssuanceDate }
	token, err := crypto.ParseJWT(compact, key, now)
	require.NoError(t, err)

	assert.Equal(t, "did:web:example.com", token.Issuer())
	assert.Equal(t, "did:web:wallet.example.com", token.Subject())
	assert.Equal(t, "urn:uuid:46130d5f-0b9e-4a24-aba4-9c93de8f7db2", token.JwtID())
	assert.True(t, token.NotBefore().Equal(credential.IssuanceDate))

	embedded, present := token.Get("vc")
	require.True(t, present)
	document, ok := embedded.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "did:web:example.com", document["issuer"])
}

func TestLDBackend_Sign(t *testing.T) {
	keyFile := crypto.NewTestKeyFile(t)
	mockClock := clock.NewMock()
	mockClock.Set(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	backend, err := newLDBackend(keyFile, testVerificationMethod, mockClock)
	require.NoError(t, err)

	t.Run("embeds a detached JsonWebSignature2020 proof", func(t *testing.T) {
		signed, err := backend.Sign(testCredential())

		require.NoError(t, err)
		document, ok := signed.(map[string]interface{})
		require.True(t, ok)
		proof, ok := document["proof"].(ldProof)
		require.True(t, ok)
		assert.Equal(t, JsonWebSignature2020, proof.Type)
		assert.Equal(t, "assertionMethod", proof.ProofPurpose)
		assert.Equal(t, testVerificationMethod, proof.VerificationMethod)
		assert.True(t, proof.Created.Equal(mockClock.Now()))
		// detached serialization: header..signature
		assert.Contains(t, proof.JWS, "..")
		assert.Len(t, strings.Split(proof.JWS, "."), 3)
	})
	t.Run("signing is deterministic for a fixed key and clock", func(t *testing.T) {
		first, err := backend.Sign(testCredential())
		require.NoError(t, err)
		second, err := backend.Sign(testCredential())
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})
	t.Run("subject claims are covered by the proof", func(t *testing.T) {
		signed, err := backend.Sign(testCredential())
		require.NoError(t, err)
		altered := testCredential()
		altered.CredentialSubject[0]["email"] = "mallory@example.com"
		signedAltered, err := backend.Sign(altered)
		require.NoError(t, err)

		original := signed.(map[string]interface{})["proof"].(ldProof)
		tampered := signedAltered.(map[string]interface{})["proof"].(ldProof)
		assert.NotEqual(t, original.JWS, tampered.JWS)
	})
	t.Run("claims survive canonicalization", func(t *testing.T) {
		document, err := credentialAsMap(testCredential())
		require.NoError(t, err)
		document["@context"] = withContext(document["@context"], JWS2020Context)

		canonical, err := backend.canonicalize(document)

		require.NoError(t, err)
		assert.Contains(t, canonical, "alice@example.com")
	})
	t.Run("a stale proof on the input is discarded", func(t *testing.T) {
		credential := testCredential()
		credential.Proof = []interface{}{map[string]interface{}{"type": "stale"}}

		signed, err := backend.Sign(credential)

		require.NoError(t, err)
		document := signed.(map[string]interface{})
		proof, ok := document["proof"].(ldProof)
		require.True(t, ok)
		assert.NotEqual(t, "stale", proof.Type)
	})
}


func TestWithContext(t *testing.T) {
	t.Run("appends to a list", func(t *testing.T) {
		assert.Equal(t, []interface{}{"a", "b"}, withContext([]interface{}{"a"}, "b"))
	})
	t.Run("promotes a single string", func(t *testing.T) {
		assert.Equal(t, []interface{}{"a", "b"}, withContext("a", "b"))
	})
	t.Run("deduplicates", func(t *testing.T) {
		assert.Equal(t, []interface{}{"a", "b"}, withContext([]interface{}{"a", "b"}, "b"))
	})
}
