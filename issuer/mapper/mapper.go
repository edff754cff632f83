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

// Package mapper implements the claim mapping pipeline: an ordered list of
// mappers, resolved from client configuration, that derive credential claims
// from the authenticated user and session. New mapper kinds register themselves
// with the kind registry; the pipeline has no knowledge of concrete kinds.
package mapper

import (
	"errors"
	"time"

	"github.com/nuts-foundation/go-did/vc"

	"github.com/openvci/issuer-node/idp"
)

// Env is the read-only issuance context mappers derive claims from.
type Env struct {
	User    idp.User
	Session idp.Session
	// Roles holds the user's role names, keyed by client ID.
	Roles map[string][]string
	// IssuedAt is the issuance timestamp of the credential under construction.
	IssuedAt time.Time
}

// Mapper contributes claims to a credential under construction. Implementations
// must not retain references to the passed-in state across invocations.
type Mapper interface {
	// SetClaimsForSubject contributes claims to the credential subject. Mappers
	// run in declaration order over a shared claim map; a later mapper may
	// overwrite an earlier mapper's claim.
	SetClaimsForSubject(claims map[string]interface{}, env Env) error
	// SetClaimsForCredential runs after the credential envelope is otherwise
	// finalized and may set credential-level fields.
	SetClaimsForCredential(credential *vc.VerifiableCredential, env Env) error
}

// Constructor builds a mapper instance from its configuration.
type Constructor func(config map[string]string) (Mapper, error)

var constructors = map[string]Constructor{}

// Register adds a mapper kind to the registry. Intended to be called from init.
func Register(kind string, constructor Constructor) {
	constructors[kind] = constructor
}

// FromDefinition instantiates the mapper a client declares.
// Unknown kinds are an error: a misconfigured client must not silently issue
// credentials with missing claims.
func FromDefinition(definition idp.MapperDefinition) (Mapper, error) {
	constructor, ok := constructors[definition.Kind]
	if !ok {
		return nil, errors.New("unknown claim mapper kind: " + definition.Kind)
	}
	return constructor(definition.Config)
}

// ApplySubjectPass runs the subject-claim pass: every mapper contributes to the
// shared claim map, in order, failing fast on the first mapper error.
func ApplySubjectPass(mappers []Mapper, claims map[string]interface{}, env Env) error {
	for _, m := range mappers {
		if err := m.SetClaimsForSubject(claims, env); err != nil {
			return err
		}
	}
	return nil
}

// ApplyCredentialPass runs the credential-level pass over the same ordered list.
func ApplyCredentialPass(mappers []Mapper, credential *vc.VerifiableCredential, env Env) error {
	for _, m := range mappers {
		if err := m.SetClaimsForCredential(credential, env); err != nil {
			return err
		}
	}
	return nil
}

// noCredentialClaims is embedded by mappers that only contribute subject claims.
type noCredentialClaims struct{}

func (noCredentialClaims) SetClaimsForCredential(_ *vc.VerifiableCredential, _ Env) error {
	return nil
}

// noSubjectClaims is embedded by mappers that only contribute credential-level fields.
type noSubjectClaims struct{}

func (noSubjectClaims) SetClaimsForSubject(_ map[string]interface{}, _ Env) error {
	return nil
}
