package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

// SignValue appends an HMAC-SHA256 of value so a cookie can be checked without a lookup.
func SignValue(secret, value string) string {
	return value + "." + base64.RawURLEncoding.EncodeToString(mac(secret, value))
}

// VerifyValue returns the original value when signed carries a valid signature.
func VerifyValue(secret, signed string) (string, bool) {
	idx := strings.LastIndexByte(signed, '.')
	if idx <= 0 {
		return "", false
	}
	value, sig := signed[:idx], signed[idx+1:]

	got, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", false
	}
	if !hmac.Equal(got, mac(secret, value)) {
		return "", false
	}
	return value, true
}

func mac(secret, value string) []byte {
	m := hmac.New(sha256.New, []byte(secret))
	m.Write([]byte(value))
	return m.Sum(nil)
}
