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
	"encoding/json"
	"errors"
)

// PreAuthorizedCodeGrant is the grant type of the OpenID4VCI pre-authorized code flow.
const PreAuthorizedCodeGrant = "urn:ietf:params:oauth:grant-type:pre-authorized_code"

// TypeVerifiableCredential is the base type every Verifiable Credential carries.
const TypeVerifiableCredential = "VerifiableCredential"

// ProofTypeJWT is the only proof type credential requests may carry.
const ProofTypeJWT = "jwt"

// SupportedCredential identifies one issuable (type, format) combination.
type SupportedCredential struct {
	Type   string `json:"type"`
	Format Format `json:"format"`
}

// CredentialOfferURI points a wallet at a single-use credential offer.
type CredentialOfferURI struct {
	Issuer string `json:"issuer"`
	Nonce  string `json:"nonce"`
}

// CredentialOffer is the offer document a wallet retrieves with the offer nonce.
type CredentialOffer struct {
	CredentialIssuer string                `json:"credential_issuer"`
	Credentials      []SupportedCredential `json:"credentials"`
	Grants           Grants                `json:"grants"`
}

// Grants lists the grants a wallet can use to redeem a credential offer.
type Grants struct {
	PreAuthorizedCode *PreAuthorizedGrant `json:"urn:ietf:params:oauth:grant-type:pre-authorized_code,omitempty"`
}

// PreAuthorizedGrant carries the pre-authorized code embedded in an offer.
type PreAuthorizedGrant struct {
	PreAuthorizedCode string `json:"pre-authorized_code"`
	UserPinRequired   bool   `json:"user_pin_required"`
}

// Proof is a wallet-supplied proof of possession attached to a credential request.
type Proof struct {
	ProofType string `json:"proof_type"`
	JWT       string `json:"jwt"`
}

// CredentialRequest is the body of the credential endpoint.
// Conformant wallets send the type list in "types"; some legacy wallets send a
// JSON-encoded list as the "type" string instead.
type CredentialRequest struct {
	Types  []string `json:"types,omitempty"`
	Type   string   `json:"type,omitempty"`
	Format Format   `json:"format"`
	Proof  *Proof   `json:"proof,omitempty"`
}

// ResolveType returns the single concrete credential type of the request, after
// removing the fixed base type. Any other outcome is an invalid request.
func (r CredentialRequest) ResolveType() (string, error) {
	types := r.Types
	if types == nil && r.Type != "" {
		if err := json.Unmarshal([]byte(r.Type), &types); err != nil {
			return "", Error{Err: errors.New("type is not a JSON list: " + err.Error()), Code: InvalidRequest}
		}
	}
	var concrete []string
	for _, curr := range types {
		if curr != TypeVerifiableCredential {
			concrete = append(concrete, curr)
		}
	}
	if len(concrete) != 1 {
		return "", Error{Err: errors.New("request must contain exactly one concrete credential type"), Code: InvalidRequest}
	}
	return concrete[0], nil
}

// CredentialResponse is the response of the credential endpoint.
// Credential is a compact token string or a proofed credential document,
// depending on the format.
type CredentialResponse struct {
	Format     Format      `json:"format"`
	Credential interface{} `json:"credential"`
}

// TokenResponse is the response of the token endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// CredentialsSupportedEntry describes one issuable credential in the issuer metadata.
type CredentialsSupportedEntry struct {
	ID                                   string   `json:"id"`
	Format                               Format   `json:"format"`
	Types                                []string `json:"types"`
	CryptographicBindingMethodsSupported []string `json:"cryptographic_binding_methods_supported"`
	CryptographicSuitesSupported         []string `json:"cryptographic_suites_supported"`
}

// CredentialIssuerMetadata is the .well-known/openid-credential-issuer document.
type CredentialIssuerMetadata struct {
	CredentialIssuer     string                      `json:"credential_issuer"`
	CredentialEndpoint   string                      `json:"credential_endpoint"`
	CredentialsSupported []CredentialsSupportedEntry `json:"credentials_supported"`
}

// ProviderMetadata is the .well-known/openid-configuration document, reduced to
// the fields wallets consume, augmented with the pre-authorized code grant.
type ProviderMetadata struct {
	Issuer                 string   `json:"issuer"`
	TokenEndpoint          string   `json:"token_endpoint"`
	CredentialEndpoint     string   `json:"credential_endpoint"`
	GrantTypesSupported    []string `json:"grant_types_supported"`
	ResponseTypesSupported []string `json:"response_types_supported"`
}
