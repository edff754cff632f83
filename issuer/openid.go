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
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/openvci/issuer-node/idp"
	"github.com/openvci/issuer-node/issuer/log"
	"github.com/openvci/issuer-node/openid4vci"
)

// offer is the stored state of a credential offer: the offered (type, format)
// pair bound to the authenticated session that created it. Expiry is an
// absolute epoch-second timestamp; the store TTL is a fallback.
type offer struct {
	Credential openid4vci.SupportedCredential `json:"credential"`
	Auth       idp.AuthResult                 `json:"auth"`
	Expiry     int64                          `json:"expiry"`
}

// preAuthorizedCode is the stored state of a one-time code, redeemable for an
// access token exactly once.
type preAuthorizedCode struct {
	Auth   idp.AuthResult `json:"auth"`
	Expiry int64          `json:"expiry"`
}

// CreateOffer creates a credential offer for the authenticated session and
// returns the offer-URI document a wallet dereferences to obtain it.
// The offer is keyed by a fresh nonce and lives for the configured offer TTL.
func (i *Issuer) CreateOffer(ctx context.Context, auth idp.AuthResult, credentialType string, format openid4vci.Format) (*openid4vci.CredentialOfferURI, error) {
	resolution, response := openid4vci.NormalizeFormat(format)
	clients, err := i.clients.Clients(ctx)
	if err != nil {
		return nil, openid4vci.Error{Err: err, Code: openid4vci.ServerError}
	}
	// the offered pair must be issuable, otherwise the wallet ends up with a dead offer
	if _, err := ClientsSupporting(clients, credentialType, resolution); err != nil {
		return nil, err
	}

	nonce := uuid.NewString()
	entry := offer{
		Credential: openid4vci.SupportedCredential{Type: credentialType, Format: response},
		Auth:       auth,
		Expiry:     i.clock.Now().Unix() + int64(i.config.OfferTTL),
	}
	if err := i.offers.Put(nonce, entry); err != nil {
		return nil, openid4vci.Error{
			Err:  fmt.Errorf("unable to store offer: %w", err),
			Code: openid4vci.InvalidRequest,
		}
	}
	i.metrics.offersCreated.Inc()
	log.Logger().
		WithField("type", credentialType).
		WithField("format", response).
		Debug("Created credential offer")
	return &openid4vci.CredentialOfferURI{
		Issuer: i.IdentityURL(),
		Nonce:  nonce,
	}, nil
}

// MaterializeOffer consumes the offer stored under nonce and turns it into the
// credential offer document, embedding a fresh one-time pre-authorized code
// bound to the same session. The nonce is single-use: a second materialization
// attempt fails.
func (i *Issuer) MaterializeOffer(_ context.Context, nonce string) (*openid4vci.CredentialOffer, error) {
	var entry offer
	if err := i.offers.GetAndDelete(nonce, &entry); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, openid4vci.Error{
				Err:  errors.New("unknown or expired offer nonce"),
				Code: openid4vci.InvalidRequest,
			}
		}
		return nil, openid4vci.Error{
			Err:  fmt.Errorf("malformed offer payload: %w", err),
			Code: openid4vci.InvalidRequest,
		}
	}
	if i.clock.Now().Unix() > entry.Expiry {
		return nil, openid4vci.Error{
			Err:  errors.New("offer expired"),
			Code: openid4vci.InvalidRequest,
		}
	}

	codeID := uuid.NewString()
	code := preAuthorizedCode{
		Auth:   entry.Auth,
		Expiry: i.clock.Now().Unix() + int64(i.config.CodeTTL),
	}
	if err := i.codes.Put(codeID, code); err != nil {
		return nil, openid4vci.Error{Err: err, Code: openid4vci.ServerError}
	}

	return &openid4vci.CredentialOffer{
		CredentialIssuer: i.IdentityURL(),
		Credentials:      []openid4vci.SupportedCredential{entry.Credential},
		Grants: openid4vci.Grants{
			PreAuthorizedCode: &openid4vci.PreAuthorizedGrant{
				PreAuthorizedCode: codeID,
				UserPinRequired:   false,
			},
		},
	}, nil
}

// ExchangeToken redeems a pre-authorized code for an access token. The code
// field takes precedence; legacyCode accepts the non-conformant field name some
// wallets send. Redemption is single-shot: of two concurrent attempts for the
// same code exactly one succeeds.
func (i *Issuer) ExchangeToken(ctx context.Context, grantType, code, legacyCode string) (*openid4vci.TokenResponse, error) {
	if grantType != openid4vci.PreAuthorizedCodeGrant {
		return nil, openid4vci.Error{
			Err:  errors.New("unsupported grant type: " + grantType),
			Code: openid4vci.InvalidToken,
		}
	}
	if code == "" {
		code = legacyCode
	}
	if code == "" {
		return nil, openid4vci.Error{
			Err:  errors.New("missing pre-authorized code"),
			Code: openid4vci.InvalidToken,
		}
	}

	var entry preAuthorizedCode
	if err := i.codes.GetAndDelete(code, &entry); err != nil {
		return nil, openid4vci.Error{
			Err:  errors.New("unknown, expired or already redeemed pre-authorized code"),
			Code: openid4vci.InvalidToken,
		}
	}
	if i.clock.Now().Unix() > entry.Expiry {
		return nil, openid4vci.Error{
			Err:  errors.New("pre-authorized code expired"),
			Code: openid4vci.InvalidToken,
		}
	}

	accessToken, expiresIn, err := i.tokens.IssueAccessToken(ctx, entry.Auth)
	if err != nil {
		return nil, openid4vci.Error{Err: err, Code: openid4vci.ServerError}
	}
	i.metrics.tokensExchanged.Inc()
	log.Logger().
		WithField("client", entry.Auth.Client.ID).
		Debug("Exchanged pre-authorized code for access token")
	return &openid4vci.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "bearer",
		ExpiresIn:   expiresIn,
	}, nil
}
