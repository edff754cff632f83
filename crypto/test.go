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

package crypto

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path"
	"testing"
)

// NewTestKeyFile writes a fresh Ed25519 signing key in PEM form and returns its path.
// Ed25519 signatures are deterministic, which test assertions rely on.
func NewTestKeyFile(t *testing.T) string {
	t.Helper()
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return writeTestKeyFile(t, priv)
}

// NewTestECKeyFile writes a fresh ECDSA P-256 signing key in PEM form and returns its path.
func NewTestECKeyFile(t *testing.T) string {
	t.Helper()
	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	return writeTestKeyFile(t, priv)
}

func writeTestKeyFile(t *testing.T, key interface{}) string {
	t.Helper()
	asDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatal(err)
	}
	asPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: asDER})
	keyFile := path.Join(t.TempDir(), "signing-key.pem")
	if err := os.WriteFile(keyFile, asPEM, 0600); err != nil {
		t.Fatal(err)
	}
	return keyFile
}
