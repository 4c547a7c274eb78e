package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const hashRounds = 4096

// HashID derives a stable 32-hex-char digest from value. The same input always
// yields the same output: login and the change-password conditional update both
// work by recomputing the digest, and user ids are derived from emails with the
// "user" salt. A per-call salted scheme cannot serve here.
func HashID(value string, salt ...string) string {
	s := ""
	if len(salt) > 0 {
		s = salt[0]
	}
	sum := pbkdf2.Key([]byte(value), []byte("account:"+s), hashRounds, 16, sha256.New)
	return hex.EncodeToString(sum)
}
