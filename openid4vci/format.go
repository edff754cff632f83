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

package openid4vci

import (
	"errors"
	"net/http"
)

// Format identifies the serialization/signing format of an issued credential.
type Format string

const (
	// JWTVCFormat is the legacy wire name for JWT-style credentials, sent by wallets
	// that do not differentiate between the json and json-ld payload flavours.
	JWTVCFormat Format = "jwt_vc"
	// JWTVCJSONFormat is a credential wrapped in a compact signed JWT with a JSON payload.
	JWTVCJSONFormat Format = "jwt_vc_json"
	// JWTVCJSONLDFormat is a credential wrapped in a compact signed JWT with a JSON-LD payload.
	JWTVCJSONLDFormat Format = "jwt_vc_json-ld"
	// LDPVCFormat is a JSON-LD credential with an embedded Linked-Data proof.
	LDPVCFormat Format = "ldp_vc"
)

// ParseFormat validates a wire-level format string.
func ParseFormat(input string) (Format, error) {
	switch Format(input) {
	case JWTVCFormat, JWTVCJSONFormat, JWTVCJSONLDFormat, LDPVCFormat:
		return Format(input), nil
	default:
		return "", Error{
			Err:        errors.New("unknown credential format: " + input),
			Code:       UnsupportedCredentialType,
			StatusCode: http.StatusBadRequest,
		}
	}
}

// NormalizeFormat resolves the jwt_vc alias workaround in a single place.
// It returns the format to use for client resolution and signing (resolution),
// and the format label to echo back to the client (response). Wallets that
// request the ambiguous jwt_vc format are served the json flavour, but the
// response must carry the label they asked for.
func NormalizeFormat(requested Format) (resolution Format, response Format) {
	if requested == JWTVCFormat {
		return JWTVCJSONFormat, JWTVCFormat
	}
	return requested, requested
}

// Aliases returns the wire names a client capability declaration may use for this
// format. The two JWT variants jwt_vc and jwt_vc_json are treated as equivalent:
// a request for one matches a declaration of the other.
func (f Format) Aliases() []string {
	switch f {
	case JWTVCFormat, JWTVCJSONFormat:
		return []string{string(JWTVCFormat), string(JWTVCJSONFormat)}
	case JWTVCJSONLDFormat:
		return []string{string(JWTVCFormat), string(JWTVCJSONLDFormat)}
	default:
		return []string{string(f)}
	}
}
