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
	"time"

	"github.com/nuts-foundation/go-did/vc"
)

// KindExpiry gives the credential an expiration date relative to issuance.
const KindExpiry = "oidc4vc-expiry-mapper"

func init() {
	Register(KindExpiry, newExpiryMapper)
}

type expiryMapper struct {
	noSubjectClaims
	validFor time.Duration
}

func newExpiryMapper(config map[string]string) (Mapper, error) {
	seconds, err := strconv.Atoi(config["validFor"])
	if err != nil || seconds <= 0 {
		return nil, errors.New("expiry mapper requires a positive validFor in seconds")
	}
	return &expiryMapper{validFor: time.Duration(seconds) * time.Second}, nil
}

func (m *expiryMapper) SetClaimsForCredential(credential *vc.VerifiableCredential, env Env) error {
	expiry := env.IssuedAt.Add(m.validFor)
	credential.ExpirationDate = &expiry
	return nil
}
