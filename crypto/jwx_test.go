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
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyFile(t *testing.T) {
	t.Run("ok - ed25519", func(t *testing.T) {
		key, err := ParseKeyFile(NewTestKeyFile(t))

		require.NoError(t, err)
		assert.Equal(t, jwa.EdDSA.String(), key.Algorithm().String())
		assert.NotEmpty(t, key.KeyID())
	})
	t.Run("ok - ec", func(t *testing.T) {
		key, err := ParseKeyFile(NewTestECKeyFile(t))

		require.NoError(t, err)
		assert.Equal(t, jwa.ES256.String(), key.Algorithm().String())
	})
	t.Run("error - file does not exist", func(t *testing.T) {
		_, err := ParseKeyFile("/nonexistent/key.pem")

		assert.Error(t, err)
	})
}

func TestSignJWT(t *testing.T) {
	key, err := ParseKeyFile(NewTestKeyFile(t))
	require.NoError(t, err)

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	token, err := SignJWT(key, map[string]interface{}{
		"sub": "user-1",
		"iat": now,
		"exp": now.Add(time.Minute),
	}, nil)
	require.NoError(t, err)

	t.Run("valid within lifetime", func(t *testing.T) {
		parsed, err := ParseJWT(token, key, func() time.Time { return now.Add(30 * time.Second) })

		require.NoError(t, err)
		assert.Equal(t, "user-1", parsed.Subject())
	})
	t.Run("rejected after expiry", func(t *testing.T) {
		_, err := ParseJWT(token, key, func() time.Time { return now.Add(2 * time.Minute) })

		assert.Error(t, err)
	})
	t.Run("rejected with wrong key", func(t *testing.T) {
		otherKey, err := ParseKeyFile(NewTestKeyFile(t))
		require.NoError(t, err)

		_, err = ParseJWT(token, otherKey, func() time.Time { return now })

		assert.Error(t, err)
	})
}

func TestSignJWS(t *testing.T) {
	key, err := ParseKeyFile(NewTestKeyFile(t))
	require.NoError(t, err)
	headers := map[string]interface{}{
		"b64":  false,
		"crit": []string{"b64"},
	}

	t.Run("ok - attached", func(t *testing.T) {
		sig, err := SignJWS([]byte("payload"), nil, key, false)

		require.NoError(t, err)
		assert.Len(t, strings.Split(sig, "."), 3)
	})
	t.Run("ok - detached", func(t *testing.T) {
		sig, err := SignJWS([]byte("payload"), headers, key, true)

		require.NoError(t, err)
		parts := strings.Split(sig, ".")
		require.Len(t, parts, 3)
		assert.Empty(t, parts[1])

		_, err = jws.Verify([]byte(sig),
			jws.WithKey(jwa.EdDSA, mustPublicKey(t, key)),
			jws.WithDetachedPayload([]byte("payload")))
		assert.NoError(t, err)
	})
	t.Run("ok - detached payload containing a dot", func(t *testing.T) {
		// raw digest payloads routinely contain 0x2E, which the attached
		// compact serialization cannot carry with b64:false
		payload := []byte("before.after")

		sig, err := SignJWS(payload, headers, key, true)

		require.NoError(t, err)
		_, err = jws.Verify([]byte(sig),
			jws.WithKey(jwa.EdDSA, mustPublicKey(t, key)),
			jws.WithDetachedPayload(payload))
		assert.NoError(t, err)
	})
}

func mustPublicKey(t *testing.T, key jwk.Key) jwk.Key {
	t.Helper()
	pub, err := key.PublicKey()
	require.NoError(t, err)
	return pub
}
