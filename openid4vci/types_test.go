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
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialRequest_ResolveType(t *testing.T) {
	t.Run("ok - types list", func(t *testing.T) {
		request := CredentialRequest{Types: []string{"VerifiableCredential", "ExampleCredential"}}

		resolved, err := request.ResolveType()

		require.NoError(t, err)
		assert.Equal(t, "ExampleCredential", resolved)
	})
	t.Run("ok - legacy JSON-encoded type string", func(t *testing.T) {
		request := CredentialRequest{Type: `["VerifiableCredential","ExampleCredential"]`}

		resolved, err := request.ResolveType()

		require.NoError(t, err)
		assert.Equal(t, "ExampleCredential", resolved)
	})
	t.Run("error - two concrete types", func(t *testing.T) {
		request := CredentialRequest{Types: []string{"ExampleCredential", "OtherCredential"}}

		_, err := request.ResolveType()

		requireErrorCode(t, err, InvalidRequest)
	})
	t.Run("error - only the base type", func(t *testing.T) {
		request := CredentialRequest{Types: []string{"VerifiableCredential"}}

		_, err := request.ResolveType()

		requireErrorCode(t, err, InvalidRequest)
	})
	t.Run("error - no types at all", func(t *testing.T) {
		_, err := CredentialRequest{}.ResolveType()

		requireErrorCode(t, err, InvalidRequest)
	})
	t.Run("error - type is not a JSON list", func(t *testing.T) {
		request := CredentialRequest{Type: "ExampleCredential"}

		_, err := request.ResolveType()

		requireErrorCode(t, err, InvalidRequest)
	})
}

func TestParseFormat(t *testing.T) {
	for _, valid := range []string{"jwt_vc", "jwt_vc_json", "jwt_vc_json-ld", "ldp_vc"} {
		t.Run(valid, func(t *testing.T) {
			format, err := ParseFormat(valid)

			require.NoError(t, err)
			assert.Equal(t, Format(valid), format)
		})
	}
	t.Run("error - unknown format", func(t *testing.T) {
		_, err := ParseFormat("mdoc")

		requireErrorCode(t, err, UnsupportedCredentialType)
	})
}

func TestNormalizeFormat(t *testing.T) {
	t.Run("jwt_vc resolves to jwt_vc_json, response keeps the requested label", func(t *testing.T) {
		resolution, response := NormalizeFormat(JWTVCFormat)

		assert.Equal(t, JWTVCJSONFormat, resolution)
		assert.Equal(t, JWTVCFormat, response)
	})
	t.Run("other formats pass through", func(t *testing.T) {
		for _, format := range []Format{JWTVCJSONFormat, JWTVCJSONLDFormat, LDPVCFormat} {
			resolution, response := NormalizeFormat(format)

			assert.Equal(t, format, resolution)
			assert.Equal(t, format, response)
		}
	})
}

func TestFormat_Aliases(t *testing.T) {
	assert.ElementsMatch(t, []string{"jwt_vc", "jwt_vc_json"}, JWTVCFormat.Aliases())
	assert.ElementsMatch(t, []string{"jwt_vc", "jwt_vc_json"}, JWTVCJSONFormat.Aliases())
	assert.Contains(t, JWTVCJSONLDFormat.Aliases(), "jwt_vc")
	assert.Equal(t, []string{"ldp_vc"}, LDPVCFormat.Aliases())
}

func TestError_Status(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, Error{Code: NotAuthorized}.Status())
	assert.Equal(t, http.StatusNotFound, Error{Code: NotFound}.Status())
	assert.Equal(t, http.StatusInternalServerError, Error{Code: ServerError}.Status())
	assert.Equal(t, http.StatusBadRequest, Error{Code: InvalidToken}.Status())
	assert.Equal(t, http.StatusTeapot, Error{Code: InvalidToken, StatusCode: http.StatusTeapot}.Status())
}

func requireErrorCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	var protocolError Error
	require.ErrorAs(t, err, &protocolError)
	assert.Equal(t, code, protocolError.Code)
}
