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

package core

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/openvci/issuer-node/openid4vci"
)

// EchoServer implements both the EchoRouter interface and lifecycle functions to aid testing.
type EchoServer interface {
	EchoRouter
	Start(address string) error
	Shutdown(ctx context.Context) error
}

// EchoRouter is the interface API wrappers require to register their routes.
type EchoRouter interface {
	Add(method, path string, handler echo.HandlerFunc, middleware ...echo.MiddlewareFunc) *echo.Route

	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route

	Use(middleware ...echo.MiddlewareFunc)
}

// Routable enables connecting a REST API to the echo server.
type Routable interface {
	// Routes configures the HTTP routes on the given router.
	Routes(router EchoRouter)
}

// NewEchoServer creates the echo server with the error handling and logging
// applicable to all registered APIs.
func NewEchoServer() EchoServer {
	instance := echo.New()
	instance.HideBanner = true
	instance.HidePort = true
	instance.HTTPErrorHandler = errorHandler
	instance.Use(loggerMiddleware)
	return instance
}

// errorHandler renders protocol errors as their taxonomy dictates: the body is
// {"error": <code>} and the status code comes from the error. Anything else
// becomes a server_error.
func errorHandler(err error, ctx echo.Context) {
	if ctx.Response().Committed {
		return
	}
	var protocolError openid4vci.Error
	if !errors.As(err, &protocolError) {
		var echoErr *echo.HTTPError
		if errors.As(err, &echoErr) {
			_ = ctx.JSON(echoErr.Code, map[string]interface{}{"error": echoErr.Message})
			return
		}
		protocolError = openid4vci.Error{Err: err, Code: openid4vci.ServerError}
	}
	status := protocolError.Status()
	if status >= http.StatusInternalServerError {
		logrus.StandardLogger().WithError(err).Error("Request failed")
	} else {
		logrus.StandardLogger().WithError(err).Debug("Request failed")
	}
	// wallets live on other origins, so errors carry the CORS header as well
	ctx.Response().Header().Set(echo.HeaderAccessControlAllowOrigin, "*")
	_ = ctx.JSON(status, protocolError)
}

func loggerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		err := next(ctx)
		logrus.StandardLogger().WithFields(logrus.Fields{
			"remote_ip": ctx.RealIP(),
			"method":    ctx.Request().Method,
			"uri":       ctx.Request().RequestURI,
			"status":    ctx.Response().Status,
		}).Debug("HTTP request")
		return err
	}
}
