package netload

import (
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"hash"
	"strings"
)

// integrityAlgs maps SRI algorithm names to hash constructors, weakest first.
var integrityAlgs = []struct {
	name string
	new  func() hash.Hash
}{
	{"sha256", sha256.New},
	{"sha384", sha512.New384},
	{"sha512", sha512.New},
}

// VerifyIntegrity checks body against an SRI metadata string such as
// "sha384-<base64> sha512-<base64>". Only the strongest algorithm present
// is considered and any of its digests may match. Metadata without a
// supported algorithm always matches.
func VerifyIntegrity(url, integrity string, body []byte) error {
	digests := make(map[int][][]byte)
	strongest := -1

	for _, token := range strings.Fields(integrity) {
		alg, value, ok := strings.Cut(token, "-")
		if !ok {
			continue
		}
		value, _, _ = strings.Cut(value, "?")

		idx := algIndex(alg)
		if idx < 0 {
			continue
		}
		want, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			continue
		}
		digests[idx] = append(digests[idx], want)
		if idx > strongest {
			strongest = idx
		}
	}

	if strongest < 0 {
		return nil
	}

	h := integrityAlgs[strongest].new()
	h.Write(body)
	sum := h.Sum(nil)

	for _, want := range digests[strongest] {
		if subtle.ConstantTimeCompare(sum, want) == 1 {
			return nil
		}
	}
	return &IntegrityError{URL: url, Integrity: integrity}
}

func algIndex(name string) int {
	name = strings.ToLower(name)
	for i, alg := range integrityAlgs {
		if alg.name == name {
			return i
		}
	}
	return -1
}
