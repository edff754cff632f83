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
	"encoding/json"
	"fmt"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
	"github.com/nuts-foundation/go-did/vc"

	"github.com/openvci/issuer-node/crypto"
)

var _ Backend = (*jwtBackend)(nil)

// jwtBackend wraps the credential in a compact signed JWT whose payload carries
// the JSON-LD credential document as the vc claim.
type jwtBackend struct {
	key jwk.Key
}

func newJWTBackend(keyFile string) (*jwtBackend, error) {
	key, err := crypto.ParseKeyFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("unable to load JWT signing key: %w", err)
	}
	return &jwtBackend{key: key}, nil
}

func (b *jwtBackend) Sign(credential vc.VerifiableCredential) (interface{}, error) {
	document, err := credentialAsMap(credential)
	if err != nil {
		return nil, err
	}
	claims := map[string]interface{}{
		jwt.IssuerKey:    credential.Issuer.String(),
		jwt.NotBeforeKey: credential.IssuanceDate,
		"vc":             document,
	}
	if credential.ID != nil {
		claims[jwt.JwtIDKey] = credential.ID.String()
	}
	if subjectID := subjectID(credential); subjectID != "" {
		claims[jwt.SubjectKey] = subjectID
	}
	token, err := crypto.SignJWT(b.key, claims, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to sign credential as JWT: %w", err)
	}
	return token, nil
}

// subjectID returns the id claim of the first credential subject, if any.
func subjectID(credential vc.VerifiableCredential) string {
	for _, subject := range credential.CredentialSubject {
		if id, ok := subject["id"].(string); ok {
			return id
		}
	}
	return ""
}

func credentialAsMap(credential vc.VerifiableCredential) (map[string]interface{}, error) {
	asJSON, err := json.Marshal(credential)
	if err != nil {
		return nil, fmt.Errorf("unable to serialize credential: %w", err)
	}
	var result map[string]interface{}
	if err := json.Unmarshal(asJSON, &result); err != nil {
		return nil, err
	}
	return result, nil
}
