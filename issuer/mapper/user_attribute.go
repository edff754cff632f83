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

import (
	"errors"
	"strconv"
)

// KindUserAttribute maps a user attribute onto a subject claim.
const KindUserAttribute = "oidc4vc-user-attribute-mapper"

func init() {
	Register(KindUserAttribute, newUserAttributeMapper)
}

type userAttributeMapper struct {
	noCredentialClaims
	attribute string
	claimName string
	aggregate bool
}

func newUserAttributeMapper(config map[string]string) (Mapper, error) {
	attribute := config["userAttribute"]
	claimName := config["claimName"]
	if attribute == "" || claimName == "" {
		return nil, errors.New("user attribute mapper requires userAttribute and claimName")
	}
	// malformed booleans count as false
	aggregate, _ := strconv.ParseBool(config["aggregateAttributes"])
	return &userAttributeMapper{
		attribute: attribute,
		claimName: claimName,
		aggregate: aggregate,
	}, nil
}

func (m *userAttributeMapper) SetClaimsForSubject(claims map[string]interface{}, env Env) error {
	values := env.User.Attributes[m.attribute]
	if len(values) == 0 {
		return nil
	}
	if m.aggregate || len(values) > 1 {
		claims[m.claimName] = values
		return nil
	}
	claims[m.claimName] = values[0]
	return nil
}
