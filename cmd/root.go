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
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	apiv0 "github.com/openvci/issuer-node/api/v0"
	"github.com/openvci/issuer-node/core"
	"github.com/openvci/issuer-node/idp"
	"github.com/openvci/issuer-node/issuer"
	issuerCmd "github.com/openvci/issuer-node/issuer/cmd"
)

// Allows overriding the Echo server implementation to aid testing.
var echoCreator = core.NewEchoServer

func createRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "issuer-node",
		Short: "Verifiable Credential issuer node.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}
}

func createServerCommand(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Starts the issuer node.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(ctx, cmd.Flags())
		},
	}
	cmd.Flags().AddFlagSet(serverFlagSet())
	return cmd
}

func serverFlagSet() *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("issuer-node", pflag.ContinueOnError)
	flagSet.AddFlagSet(core.FlagSet())
	flagSet.AddFlagSet(issuerCmd.FlagSet())
	idpDefs := idp.DefaultStaticConfig()
	flagSet.String("idp.keyfile", idpDefs.KeyFile, "PEM file holding the access-token signing key.")
	flagSet.Int64("idp.accesstokenlifespan", idpDefs.AccessTokenLifespan, "Access token lifetime in seconds.")
	return flagSet
}

func startServer(ctx context.Context, flags *pflag.FlagSet) error {
	serverConfig := core.NewServerConfig()
	if err := serverConfig.Load(flags); err != nil {
		return err
	}
	issuerConfig := issuer.DefaultConfig()
	if err := serverConfig.InjectIntoConfig("issuer", &issuerConfig); err != nil {
		return err
	}
	idpConfig := idp.DefaultStaticConfig()
	if err := serverConfig.InjectIntoConfig("idp", &idpConfig); err != nil {
		return err
	}

	systemClock := clock.New()
	provider, err := idp.NewStaticProvider(idpConfig, systemClock)
	if err != nil {
		return fmt.Errorf("unable to initialize identity provider: %w", err)
	}
	engine, err := issuer.New(issuerConfig, systemClock, provider, provider, provider, provider)
	if err != nil {
		return fmt.Errorf("unable to initialize issuer: %w", err)
	}
	defer engine.Close()

	metricsEngine := core.MetricsEngine{}
	if err := metricsEngine.Configure(); err != nil {
		return err
	}

	server := echoCreator()
	for _, routable := range []core.Routable{apiv0.Wrapper{Issuer: engine}, metricsEngine} {
		routable.Routes(server)
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(serverConfig.HTTP.Address)
	}()
	logrus.StandardLogger().
		WithField("address", serverConfig.HTTP.Address).
		WithField("did", engine.DID()).
		Info("Issuer node started")

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logrus.StandardLogger().Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

// Execute runs the root command with the given arguments.
func Execute(ctx context.Context, args []string) error {
	cmd := createRootCommand()
	cmd.AddCommand(createServerCommand(ctx))
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}
