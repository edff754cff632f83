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

// Package crypto wraps the JOSE operations the issuer needs: loading key material
// from disk and producing signed JWTs and (detached) JWS signatures.
package crypto

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// ErrUnsupportedSigningKey is returned when an unsupported private key is used to sign.
var ErrUnsupportedSigningKey = errors.New("signing key algorithm not supported")

// ParseKeyFile reads a PEM-encoded private key from disk and returns it as a JWK
// with its signature algorithm set.
func ParseKeyFile(path string) (jwk.Key, error) {
	pemBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read key file %s: %w", path, err)
	}
	key, err := jwk.ParseKey(pemBytes, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("unable to parse key file %s: %w", path, err)
	}
	alg, err := SignatureAlgorithm(key)
	if err != nil {
		return nil, err
	}
	if err = key.Set(jwk.AlgorithmKey, alg); err != nil {
		return nil, err
	}
	if err = jwk.AssignKeyID(key); err != nil {
		return nil, err
	}
	return key, nil
}

// SignatureAlgorithm derives the JWS algorithm from the key type.
func SignatureAlgorithm(key jwk.Key) (jwa.SignatureAlgorithm, error) {
	switch key.KeyType() {
	case jwa.EC:
		if ecKey, ok := key.(jwk.ECDSAPrivateKey); ok {
			switch ecKey.Crv() {
			case jwa.P256:
				return jwa.ES256, nil
			case jwa.P384:
				return jwa.ES384, nil
			case jwa.P521:
				return jwa.ES512, nil
			}
		}
		return "", ErrUnsupportedSigningKey
	case jwa.OKP:
		return jwa.EdDSA, nil
	case jwa.RSA:
		return jwa.PS256, nil
	default:
		return "", ErrUnsupportedSigningKey
	}
}

// SignJWT signs claims with the key and returns the compact token.
// The headers param can be used to add additional protected headers.
func SignJWT(key jwk.Key, claims map[string]interface{}, headers map[string]interface{}) (string, error) {
	t := jwt.New()
	for k, v := range claims {
		if err := t.Set(k, v); err != nil {
			return "", err
		}
	}
	hdr := jws.NewHeaders()
	for k, v := range headers {
		if err := hdr.Set(k, v); err != nil {
			return "", err
		}
	}
	sig, err := jwt.Sign(t, jwt.WithKey(jwa.SignatureAlgorithm(key.Algorithm().String()), key, jws.WithProtectedHeaders(hdr)))
	if err != nil {
		return "", err
	}
	return string(sig), nil
}

// SignJWS creates a signed JWS in compact form using the given key, protected
// headers and payload. With detached set the payload is not embedded in the
// serialization (header..signature). Non-base64 payloads (b64:false) must be
// signed detached: the compact form cannot carry arbitrary bytes.
func SignJWS(payload []byte, headers map[string]interface{}, key jwk.Key, detached bool) (string, error) {
	hdr := jws.NewHeaders()
	for k, v := range headers {
		if err := hdr.Set(k, v); err != nil {
			return "", err
		}
	}
	keyOption := jws.WithKey(jwa.SignatureAlgorithm(key.Algorithm().String()), key, jws.WithProtectedHeaders(hdr))
	var sig []byte
	var err error
	if detached {
		sig, err = jws.Sign(nil, keyOption, jws.WithDetachedPayload(payload))
	} else {
		sig, err = jws.Sign(payload, keyOption)
	}
	if err != nil {
		return "", err
	}
	return string(sig), nil
}

// ParseJWT parses a compact token, verifies its signature against the public part
// of the key and validates its time-based claims against the given time source.
func ParseJWT(token string, key jwk.Key, now func() time.Time) (jwt.Token, error) {
	pub, err := key.PublicKey()
	if err != nil {
		return nil, err
	}
	return jwt.Parse([]byte(token),
		jwt.WithKey(jwa.SignatureAlgorithm(key.Algorithm().String()), pub),
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(now)))
}
