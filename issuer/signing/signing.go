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

// Package signing produces the final signed credential artifact. Two backends
// exist: a compact-JWT signer for the jwt_vc family and a Linked-Data proof
// signer for ldp_vc. Backends are constructed once at startup; a backend whose
// construction fails only disables its formats.
package signing

import (
	"errors"

	"github.com/benbjohnson/clock"
	"github.com/nuts-foundation/go-did/vc"

	"github.com/openvci/issuer-node/issuer/log"
	"github.com/openvci/issuer-node/openid4vci"
)

// Backend signs a single credential into its format-specific serialization.
// Implementations are constructed once and must be safe for concurrent use.
type Backend interface {
	// Sign returns the serialized signed credential: a compact token string or
	// a credential document with an embedded proof, depending on the backend.
	Sign(credential vc.VerifiableCredential) (interface{}, error)
}

// Dispatcher routes a normalized credential format to its signing backend.
type Dispatcher struct {
	backends map[openid4vci.Format]Backend
}

// NewDispatcher constructs the JWT and Linked-Data backends from the signing
// key at keyFile. Linked-Data proofs reference verificationMethod as the key
// identifier. Each backend's construction may fail independently, which is
// logged and leaves the corresponding formats unavailable instead of failing
// startup.
func NewDispatcher(keyFile string, verificationMethod string, cl clock.Clock) *Dispatcher {
	result := &Dispatcher{backends: map[openid4vci.Format]Backend{}}

	if backend, err := newJWTBackend(keyFile); err != nil {
		log.Logger().WithError(err).Warn("JWT signing backend unavailable, jwt_vc formats disabled")
	} else {
		result.backends[openid4vci.JWTVCJSONFormat] = backend
		result.backends[openid4vci.JWTVCJSONLDFormat] = backend
	}

	if backend, err := newLDBackend(keyFile, verificationMethod, cl); err != nil {
		log.Logger().WithError(err).Warn("Linked-Data signing backend unavailable, ldp_vc format disabled")
	} else {
		result.backends[openid4vci.LDPVCFormat] = backend
	}

	return result
}

// Sign signs the credential in the given (normalized) format.
// Unknown formats and formats whose backend failed to initialize yield an
// unsupported_credential_type error.
func (d *Dispatcher) Sign(format openid4vci.Format, credential vc.VerifiableCredential) (interface{}, error) {
	backend, ok := d.backends[format]
	if !ok {
		return nil, openid4vci.Error{
			Err:  errors.New("no signing backend available for format: " + string(format)),
			Code: openid4vci.UnsupportedCredentialType,
		}
	}
	return backend.Sign(credential)
}

// Supports returns whether a backend is available for the given (normalized) format.
func (d *Dispatcher) Supports(format openid4vci.Format) bool {
	_, ok := d.backends[format]
	return ok
}
