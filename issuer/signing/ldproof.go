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

package signing

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/nuts-foundation/go-did/vc"
	"github.com/piprate/json-gold/ld"

	"github.com/openvci/issuer-node/crypto"
)

// JsonWebSignature2020 is the signature suite of the Linked-Data backend.
const JsonWebSignature2020 = "JsonWebSignature2020"

// JWS2020Context is the JSON-LD context defining the proof terms of the suite.
const JWS2020Context = "https://w3c-ccg.github.io/lds-jws2020/contexts/lds-jws2020-v1.json"

// CredentialVocabContext provides a default vocabulary for the claims the
// mapping pipeline produces. Without it, terms unknown to the other contexts
// would be dropped during canonicalization and escape the proof.
const CredentialVocabContext = "https://openvci.org/contexts/credentials-vocab-v1.json"

var _ Backend = (*ldBackend)(nil)

// ldProof is the proof node embedded in the signed credential document.
// https://w3c-ccg.github.io/data-integrity-spec/#proofs
type ldProof struct {
	Type               string    `json:"type"`
	Created            time.Time `json:"created"`
	ProofPurpose       string    `json:"proofPurpose"`
	VerificationMethod string    `json:"verificationMethod"`
	JWS                string    `json:"jws,omitempty"`
}

// toMap returns the proof as a canonicalization input: the JWS is left out and
// the suite's context is added so the proof terms resolve.
func (p ldProof) toMap() map[string]interface{} {
	asJSON, _ := json.Marshal(p)
	result := map[string]interface{}{}
	_ = json.Unmarshal(asJSON, &result)
	delete(result, "jws")
	result["@context"] = JWS2020Context
	result["@type"] = result["type"]
	return result
}

// ldBackend embeds a JsonWebSignature2020 proof into the credential document.
type ldBackend struct {
	key                jwk.Key
	verificationMethod string
	loader             ld.DocumentLoader
	clock              clock.Clock
}

func newLDBackend(keyFile string, verificationMethod string, cl clock.Clock) (*ldBackend, error) {
	key, err := crypto.ParseKeyFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("unable to load Linked-Data signing key: %w", err)
	}
	loader, err := newContextLoader()
	if err != nil {
		return nil, err
	}
	return &ldBackend{
		key:                key,
		verificationMethod: verificationMethod,
		loader:             loader,
		clock:              cl,
	}, nil
}

func (b *ldBackend) Sign(credential vc.VerifiableCredential) (interface{}, error) {
	document, err := credentialAsMap(credential)
	if err != nil {
		return nil, err
	}
	delete(document, "proof")
	document["@context"] = withContext(withContext(document["@context"], JWS2020Context), CredentialVocabContext)

	proof := ldProof{
		Type:               JsonWebSignature2020,
		Created:            b.clock.Now().UTC().Truncate(time.Second),
		ProofPurpose:       "assertionMethod",
		VerificationMethod: b.verificationMethod,
	}

	canonicalDocument, err := b.canonicalize(document)
	if err != nil {
		return nil, fmt.Errorf("unable to canonicalize document: %w", err)
	}
	canonicalProof, err := b.canonicalize(proof.toMap())
	if err != nil {
		return nil, fmt.Errorf("unable to canonicalize proof: %w", err)
	}

	// https://w3c-ccg.github.io/data-integrity-spec/#create-verify-hash-algorithm:
	// hash of the canonicalized proof options, then hash of the canonicalized document.
	proofDigest := sha256.Sum256([]byte(canonicalProof))
	documentDigest := sha256.Sum256([]byte(canonicalDocument))
	tbs := append(proofDigest[:], documentDigest[:]...)

	// the sha256 digests are raw bytes, so the signature must be detached:
	// an attached b64:false payload may not contain a '.' (RFC 7797, section 5.2)
	sig, err := crypto.SignJWS(tbs, detachedJWSHeaders(), b.key, true)
	if err != nil {
		return nil, fmt.Errorf("unable to sign proof: %w", err)
	}
	proof.JWS = sig

	document["proof"] = proof
	return document, nil
}

// canonicalize applies the URDNA2015 [RDF-DATASET-NORMALIZATION] algorithm.
func (b *ldBackend) canonicalize(input map[string]interface{}) (string, error) {
	proc := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions("")
	options.DocumentLoader = b.loader
	options.Format = "application/n-quads"
	options.Algorithm = ld.AlgorithmURDNA2015
	result, err := proc.Normalize(input, options)
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// detachedJWSHeaders creates the protected headers for JsonWebSignature2020:
// {"b64":false,"crit":["b64"]}
func detachedJWSHeaders() map[string]interface{} {
	return map[string]interface{}{
		"b64":  false,
		"crit": []string{"b64"},
	}
}

// withContext appends the given context URL to the @context value, deduplicated.
func withContext(context interface{}, newContext string) []interface{} {
	var contexts []interface{}
	switch c := context.(type) {
	case string:
		contexts = append(contexts, c)
	case []interface{}:
		contexts = append(contexts, c...)
	case map[string]interface{}:
		contexts = append(contexts, c)
	}
	for _, curr := range contexts {
		if curr == newContext {
			return contexts
		}
	}
	return append(contexts, newContext)
}
