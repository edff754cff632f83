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

// KindStaticClaim sets a fixed subject claim from client configuration.
const KindStaticClaim = "oidc4vc-static-claim-mapper"

func init() {
	Register(KindStaticClaim, newStaticClaimMapper)
}

type staticClaimMapper struct {
	noCredentialClaims
	claimName string
	value     string
}

func newStaticClaimMapper(config map[string]string) (Mapper, error) {
	claimName := config["claimName"]
	if claimName == "" {
		return nil, errors.New("static claim mapper requires claimName")
	}
	return &staticClaimMapper{
		claimName: claimName,
		value:     config["staticValue"],
	}, nil
}

func (m *staticClaimMapper) SetClaimsForSubject(claims map[string]interface{}, _ Env) error {
	claims[m.claimName] = m.value
	return nil
}
