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

package mapper

import "errors"

// KindTargetRole maps the user's roles at a target client onto the roles
// subject claim.
const KindTargetRole = "oidc4vc-target-role-mapper"

// rolesClaim is the subject claim target role mappers accumulate into.
const rolesClaim = "roles"

func init() {
	Register(KindTargetRole, newTargetRoleMapper)
}

type targetRoleMapper struct {
	noCredentialClaims
	target string
}

func newTargetRoleMapper(config map[string]string) (Mapper, error) {
	target := config["clientId"]
	if target == "" {
		return nil, errors.New("target role mapper requires clientId")
	}
	return &targetRoleMapper{target: target}, nil
}

// SetClaimsForSubject appends a {names, target} entry for the configured target
// client. Multiple target role mappers accumulate entries rather than
// overwrite each other.
func (m *targetRoleMapper) SetClaimsForSubject(claims map[string]interface{}, env Env) error {
	names := env.Roles[m.target]
	if len(names) == 0 {
		return nil
	}
	entry := map[string]interface{}{
		"names":  names,
		"target": m.target,
	}
	existing, _ := claims[rolesClaim].([]interface{})
	claims[rolesClaim] = append(existing, entry)
	return nil
}
