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

// Package v0 binds the credential issuance endpoints to HTTP.
package v0

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/openvci/issuer-node/core"
	"github.com/openvci/issuer-node/issuer"
	"github.com/openvci/issuer-node/openid4vci"
)

// Wrapper implements the issuance HTTP surface on top of the engine.
type Wrapper struct {
	Issuer *issuer.Issuer
}

// Routes registers the issuance routes. All paths except /issuer are relative
// to the issuer DID path segment, which must match the configured DID.
func (w Wrapper) Routes(router core.EchoRouter) {
	router.GET("/issuer", w.identity)
	router.GET("/:did/types", w.supportedTypes)
	router.GET("/:did/.well-known/openid-credential-issuer", w.issuerMetadata)
	router.GET("/:did/.well-known/openid-configuration", w.providerMetadata)
	router.GET("/:did/credential-offer-uri", w.createOffer)
	router.GET("/:did/credential-offer/:nonce", w.materializeOffer)
	router.POST("/:did/token", w.exchangeToken)
	router.GET("/:did/", w.issueLegacy)
	router.POST("/:did/credential", w.issueCredential)
	router.OPTIONS("/:did/*", w.preflight)
}

func (w Wrapper) identity(ctx echo.Context) error {
	return respondText(ctx, w.Issuer.DID())
}

func (w Wrapper) supportedTypes(ctx echo.Context) error {
	if err := w.checkIssuerDID(ctx); err != nil {
		return err
	}
	if _, err := w.Issuer.Authenticate(ctx.Request().Context(), bearerToken(ctx)); err != nil {
		return err
	}
	supported, err := w.Issuer.SupportedCredentials(ctx.Request().Context())
	if err != nil {
		return err
	}
	return respondJSON(ctx, supported)
}

func (w Wrapper) issuerMetadata(ctx echo.Context) error {
	if err := w.checkIssuerDID(ctx); err != nil {
		return err
	}
	metadata, err := w.Issuer.Metadata(ctx.Request().Context())
	if err != nil {
		return err
	}
	return respondJSON(ctx, metadata)
}

func (w Wrapper) providerMetadata(ctx echo.Context) error {
	if err := w.checkIssuerDID(ctx); err != nil {
		return err
	}
	return respondJSON(ctx, w.Issuer.ProviderMetadata())
}

func (w Wrapper) createOffer(ctx echo.Context) error {
	if err := w.checkIssuerDID(ctx); err != nil {
		return err
	}
	auth, err := w.Issuer.Authenticate(ctx.Request().Context(), bearerToken(ctx))
	if err != nil {
		return err
	}
	format := openid4vci.Format(ctx.QueryParam("format"))
	if format == "" {
		return openid4vci.Error{
			Err:  errors.New("missing format query parameter"),
			Code: openid4vci.InvalidRequest,
		}
	}
	offerURI, err := w.Issuer.CreateOffer(ctx.Request().Context(), *auth, ctx.QueryParam("type"), format)
	if err != nil {
		return err
	}
	return respondJSON(ctx, offerURI)
}

func (w Wrapper) materializeOffer(ctx echo.Context) error {
	if err := w.checkIssuerDID(ctx); err != nil {
		return err
	}
	offer, err := w.Issuer.MaterializeOffer(ctx.Request().Context(), ctx.Param("nonce"))
	if err != nil {
		return err
	}
	return respondJSON(ctx, offer)
}

func (w Wrapper) exchangeToken(ctx echo.Context) error {
	if err := w.checkIssuerDID(ctx); err != nil {
		return err
	}
	grantType := ctx.FormValue("grant_type")
	code := ctx.FormValue("code")
	legacyCode := ctx.FormValue("pre-authorized_code")
	response, err := w.Issuer.ExchangeToken(ctx.Request().Context(), grantType, code, legacyCode)
	if err != nil {
		return err
	}
	return respondJSON(ctx, response)
}

// issueLegacy is the pre-standard issuance flow: type as query parameter, the
// access token either as bearer header or token query parameter, response is
// the Linked-Data credential itself.
func (w Wrapper) issueLegacy(ctx echo.Context) error {
	if err := w.checkIssuerDID(ctx); err != nil {
		return err
	}
	token := bearerToken(ctx)
	if override := ctx.QueryParam("token"); override != "" {
		token = override
	}
	auth, err := w.Issuer.Authenticate(ctx.Request().Context(), token)
	if err != nil {
		return err
	}
	request := openid4vci.CredentialRequest{
		Types:  []string{openid4vci.TypeVerifiableCredential, ctx.QueryParam("type")},
		Format: openid4vci.LDPVCFormat,
	}
	response, err := w.Issuer.IssueCredential(ctx.Request().Context(), *auth, request)
	if err != nil {
		return err
	}
	return respondJSON(ctx, response.Credential)
}

func (w Wrapper) issueCredential(ctx echo.Context) error {
	if err := w.checkIssuerDID(ctx); err != nil {
		return err
	}
	auth, err := w.Issuer.Authenticate(ctx.Request().Context(), bearerToken(ctx))
	if err != nil {
		return err
	}
	request := openid4vci.CredentialRequest{}
	if err := ctx.Bind(&request); err != nil {
		return openid4vci.Error{
			Err:  errors.New("malformed credential request"),
			Code: openid4vci.InvalidRequest,
		}
	}
	response, err := w.Issuer.IssueCredential(ctx.Request().Context(), *auth, request)
	if err != nil {
		return err
	}
	return respondJSON(ctx, response)
}

func (w Wrapper) preflight(ctx echo.Context) error {
	if err := w.checkIssuerDID(ctx); err != nil {
		return err
	}
	header := ctx.Response().Header()
	header.Set(echo.HeaderAccessControlAllowOrigin, "*")
	header.Set(echo.HeaderAccessControlAllowMethods, "POST,GET,OPTIONS")
	header.Set(echo.HeaderAccessControlAllowHeaders, "Content-Type, Authorization")
	return ctx.NoContent(http.StatusNoContent)
}

// checkIssuerDID guards every DID-scoped route: a request for another issuer
// identifier is answered with not_found.
func (w Wrapper) checkIssuerDID(ctx echo.Context) error {
	if ctx.Param("did") != w.Issuer.DID() {
		return openid4vci.Error{
			Err:  errors.New("issuer DID mismatch: " + ctx.Param("did")),
			Code: openid4vci.NotFound,
		}
	}
	return nil
}

func bearerToken(ctx echo.Context) string {
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func respondJSON(ctx echo.Context, body interface{}) error {
	ctx.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
	return ctx.JSON(http.StatusOK, body)
}

func respondText(ctx echo.Context, body string) error {
	ctx.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
	return ctx.String(http.StatusOK, body)
}
