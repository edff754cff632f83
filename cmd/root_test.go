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

package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openvci/issuer-node/core"
	"github.com/openvci/issuer-node/crypto"
)

var errServerStopped = errors.New("server stopped")

// stubEchoServer records registered routes and stops immediately on Start.
type stubEchoServer struct {
	routes []string
}

func (s *stubEchoServer) Add(method, path string, _ echo.HandlerFunc, _ ...echo.MiddlewareFunc) *echo.Route {
	s.routes = append(s.routes, method+" "+path)
	return &echo.Route{Method: method, Path: path}
}

func (s *stubEchoServer) GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route {
	return s.Add(http.MethodGet, path, h, m...)
}

func (s *stubEchoServer) POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route {
	return s.Add(http.MethodPost, path, h, m...)
}

func (s *stubEchoServer) OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route {
	return s.Add(http.MethodOptions, path, h, m...)
}

func (s *stubEchoServer) Use(_ ...echo.MiddlewareFunc) {}

func (s *stubEchoServer) Start(_ string) error {
	return errServerStopped
}

func (s *stubEchoServer) Shutdown(_ context.Context) error {
	return nil
}

func Test_rootCommand(t *testing.T) {
	t.Run("no arguments prints help", func(t *testing.T) {
		buf := new(bytes.Buffer)
		cmd := createRootCommand()
		cmd.AddCommand(createServerCommand(context.Background()))
		cmd.SetOut(buf)
		cmd.SetArgs([]string{})

		require.NoError(t, cmd.Execute())

		assert.Contains(t, buf.String(), "Available Commands")
		assert.Contains(t, buf.String(), "server")
	})
}

func Test_serverFlagSet(t *testing.T) {
	flags := serverFlagSet()

	for _, name := range []string{
		"verbosity",
		"configfile",
		"http.address",
		"issuer.did",
		"issuer.url",
		"issuer.keyfile",
		"issuer.offerttl",
		"issuer.codettl",
		"idp.keyfile",
		"idp.accesstokenlifespan",
	} {
		assert.NotNil(t, flags.Lookup(name), name)
	}
}

func Test_serverCommand(t *testing.T) {
	t.Run("starts and registers the API routes", func(t *testing.T) {
		stub := &stubEchoServer{}
		echoCreator = func() core.EchoServer { return stub }
		defer func() { echoCreator = core.NewEchoServer }()
		keyFile := crypto.NewTestKeyFile(t)

		err := Execute(context.Background(), []string{
			"server",
			"--issuer.did", "did:web:example.com",
			"--issuer.url", "https://example.com",
			"--issuer.keyfile", keyFile,
			"--idp.keyfile", keyFile,
		})

		assert.ErrorIs(t, err, errServerStopped)
		assert.Contains(t, stub.routes, "GET /issuer")
		assert.Contains(t, stub.routes, "POST /:did/credential")
		assert.Contains(t, stub.routes, "GET /metrics")
	})
	t.Run("error - missing issuer configuration", func(t *testing.T) {
		stub := &stubEchoServer{}
		echoCreator = func() core.EchoServer { return stub }
		defer func() { echoCreator = core.NewEchoServer }()

		err := Execute(context.Background(), []string{"server"})

		assert.Error(t, err)
	})
}
