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

import "net/http"

// ErrorCode specifies the error codes the issuance endpoints can return.
type ErrorCode string

const (
	// NotAuthorized is returned when the caller did not present a (valid) bearer credential
	// on an endpoint that requires an authenticated user.
	NotAuthorized ErrorCode = "not_authorized"
	// InvalidToken is returned when a code, nonce or access token is malformed, expired,
	// already consumed, or when the token request specifies an unsupported grant type.
	InvalidToken ErrorCode = "invalid_token"
	// InvalidRequest is returned when the request is malformed: the type list does not
	// resolve to exactly one concrete type, or an offer payload could not be (de)serialized.
	InvalidRequest ErrorCode = "invalid_request"
	// InvalidOrMissingProof is returned when the credential request contains a proof of
	// an unsupported proof type.
	InvalidOrMissingProof ErrorCode = "invalid_or_missing_proof"
	// UnsupportedCredentialType is returned when no client declares the requested
	// (type, format) pair, or no signing backend is available for the requested format.
	UnsupportedCredentialType ErrorCode = "unsupported_credential_type"
	// NotFound is returned when the issuer DID in the request path does not match the
	// DID this node issues for.
	NotFound ErrorCode = "not_found"
	// ServerError is returned when an unexpected condition prevented the request from
	// being fulfilled.
	ServerError ErrorCode = "server_error"
)

// Error is a protocol-level error: it is terminal for the request and carries the
// HTTP status code and the error code to be returned to the client.
// The underlying error is logged, never returned.
type Error struct {
	// Code is the protocol error code, serialized as the "error" field of the response body.
	Code ErrorCode `json:"error"`
	// Err is the underlying error, may be nil. Not intended for the client.
	Err error `json:"-"`
	// StatusCode is the HTTP status code to return. Defaults to 400 when left zero.
	StatusCode int `json:"-"`
}

// Error returns the error message, which is either the underlying error or the code if there is no underlying error.
func (e Error) Error() string {
	if e.Err == nil {
		return string(e.Code)
	}
	return string(e.Code) + " - " + e.Err.Error()
}

// Status returns the HTTP status code for the error, applying the defaults for the taxonomy.
func (e Error) Status() int {
	if e.StatusCode != 0 {
		return e.StatusCode
	}
	switch e.Code {
	case NotAuthorized:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	case ServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
