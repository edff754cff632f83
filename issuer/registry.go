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

package issuer

import (
	"errors"
	"strings"

	"github.com/openvci/issuer-node/idp"
	"github.com/openvci/issuer-node/openid4vci"
)

// typesAttributePrefix prefixes the client attributes that declare issuable
// credential types. The attribute vctypes_<Type> holds a comma-separated list
// of format names the client supports for <Type>.
const typesAttributePrefix = "vctypes_"

// SupportedCredentials extracts every (type, format) pair declared by any of
// the given clients, deduplicated by value. Only clients registered for the
// issuance protocol contribute. The result is order-insensitive: re-running the
// scan over an unchanged client set yields a set-equal list.
func SupportedCredentials(clients []idp.Client) []openid4vci.SupportedCredential {
	seen := map[openid4vci.SupportedCredential]struct{}{}
	var result []openid4vci.SupportedCredential
	for _, client := range clients {
		for _, candidate := range declaredCredentials(client) {
			if _, ok := seen[candidate]; ok {
				continue
			}
			seen[candidate] = struct{}{}
			result = append(result, candidate)
		}
	}
	return result
}

// ClientsSupporting resolves the clients backing the given (type, format) pair.
// The JWT wire aliases are treated as equivalent: a request for jwt_vc matches
// a declaration of jwt_vc_json and vice versa. An empty credential type or an
// empty result set yields an unsupported_credential_type error.
func ClientsSupporting(clients []idp.Client, credentialType string, format openid4vci.Format) ([]idp.Client, error) {
	if credentialType == "" {
		return nil, openid4vci.Error{
			Err:  errors.New("no credential type supplied"),
			Code: openid4vci.UnsupportedCredentialType,
		}
	}
	var result []idp.Client
	for _, client := range clients {
		if client.Protocol != idp.ProtocolID {
			continue
		}
		declared, ok := client.Attributes[typesAttributePrefix+credentialType]
		if !ok {
			continue
		}
		if matchesFormat(declared, format) {
			result = append(result, client)
		}
	}
	if len(result) == 0 {
		return nil, openid4vci.Error{
			Err:  errors.New("no client supports credential type '" + credentialType + "' in format '" + string(format) + "'"),
			Code: openid4vci.UnsupportedCredentialType,
		}
	}
	return result, nil
}

func declaredCredentials(client idp.Client) []openid4vci.SupportedCredential {
	if client.Protocol != idp.ProtocolID {
		return nil
	}
	var result []openid4vci.SupportedCredential
	for key, value := range client.Attributes {
		if !strings.HasPrefix(key, typesAttributePrefix) {
			continue
		}
		credentialType := strings.TrimPrefix(key, typesAttributePrefix)
		if credentialType == "" {
			continue
		}
		for _, token := range splitFormats(value) {
			format, err := openid4vci.ParseFormat(token)
			if err != nil {
				// misconfigured entries are skipped, not fatal
				continue
			}
			result = append(result, openid4vci.SupportedCredential{Type: credentialType, Format: format})
		}
	}
	return result
}

func matchesFormat(declaration string, format openid4vci.Format) bool {
	declared := splitFormats(declaration)
	for _, alias := range format.Aliases() {
		for _, token := range declared {
			if token == alias {
				return true
			}
		}
	}
	return false
}

func splitFormats(value string) []string {
	var result []string
	for _, token := range strings.Split(value, ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			result = append(result, token)
		}
	}
	return result
}
