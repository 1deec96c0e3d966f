package utils

import (
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// ConfirmationCodeLength is the number of hex characters in a code.
const ConfirmationCodeLength = 10

// ConfirmationCode derives the signup code from the username alone, keyed by
// secret. The same username always yields the same code and codes never
// expire; rotating the secret is the only way to invalidate them.
func ConfirmationCode(username, secret string) string {
	key := []byte(secret)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}

	h, err := blake2b.New256(key)
	if err != nil {
		// New256 only fails for keys longer than 64 bytes, handled above.
		panic(err)
	}
	h.Write([]byte(username))

	return hex.EncodeToString(h.Sum(nil))[:ConfirmationCodeLength]
}

// VerifyConfirmationCode compares code with the expected one in constant time.
func VerifyConfirmationCode(username, code, secret string) bool {
	expected := ConfirmationCode(username, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1
}
