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
	"github.com/spf13/pflag"

	"github.com/openvci/issuer-node/issuer"
)

// FlagSet contains flags relevant for the issuer engine.
func FlagSet() *pflag.FlagSet {
	defs := issuer.DefaultConfig()
	flagSet := pflag.NewFlagSet("issuer", pflag.ContinueOnError)
	flagSet.String("issuer.did", defs.DID, "DID credentials are issued under.")
	flagSet.String("issuer.url", defs.URL, "Public base URL of this node, used in metadata and offer documents.")
	flagSet.String("issuer.keyfile", defs.KeyFile, "PEM file holding the credential signing key.")
	flagSet.Int("issuer.offerttl", defs.OfferTTL, "Credential offer lifetime in seconds.")
	flagSet.Int("issuer.codettl", defs.CodeTTL, "Pre-authorized code lifetime in seconds.")
	return flagSet
}
