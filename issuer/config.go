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

// ModuleName is the name of this module.
const ModuleName = "Issuer"

// Config holds the config for the issuer engine.
type Config struct {
	// DID is the did:web/did:key identifier credentials are issued under.
	DID string `koanf:"did"`
	// URL is the public base URL of this node, used in metadata and offer documents.
	URL string `koanf:"url"`
	// KeyFile points to the PEM file holding the credential signing key.
	KeyFile string `koanf:"keyfile"`
	// OfferTTL is the credential offer lifetime in seconds.
	OfferTTL int `koanf:"offerttl"`
	// CodeTTL is the pre-authorized code lifetime in seconds.
	CodeTTL int `koanf:"codettl"`
}

// DefaultConfig returns a fresh Config filled with default values.
func DefaultConfig() Config {
	return Config{
		OfferTTL: 30,
		CodeTTL:  60,
	}
}
