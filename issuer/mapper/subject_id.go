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

// KindSubjectID sets the subject id claim. When the user carries a DID
// attribute that DID is the subject; otherwise a URN derived from the user id
// is used.
const KindSubjectID = "oidc4vc-subject-id-mapper"

// didAttribute is the user attribute holding the wallet DID, when known.
const didAttribute = "did"

func init() {
	Register(KindSubjectID, newSubjectIDMapper)
}

type subjectIDMapper struct {
	noCredentialClaims
	attribute string
}

func newSubjectIDMapper(config map[string]string) (Mapper, error) {
	attribute := config["userAttribute"]
	if attribute == "" {
		attribute = didAttribute
	}
	return &subjectIDMapper{attribute: attribute}, nil
}

func (m *subjectIDMapper) SetClaimsForSubject(claims map[string]interface{}, env Env) error {
	if values := env.User.Attributes[m.attribute]; len(values) > 0 && values[0] != "" {
		claims["id"] = values[0]
		return nil
	}
	claims["id"] = "urn:uuid:" + env.User.ID
	return nil
}
