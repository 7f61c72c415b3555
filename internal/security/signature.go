package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const signatureSeparator = "."

func ComputeSignature(secret string, parts ...string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(parts, "\n")))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// SignValue returns value with an HMAC suffix bound to purpose.
func SignValue(secret, purpose, value string) string {
	return value + signatureSeparator + ComputeSignature(secret, purpose, value)
}

// VerifyValue checks a string produced by SignValue and returns the value.
func VerifyValue(secret, purpose, signed string) (string, bool) {
	idx := strings.LastIndex(signed, signatureSeparator)
	if idx <= 0 || idx == len(signed)-1 {
		return "", false
	}
	value, signature := signed[:idx], signed[idx+1:]
	expected := ComputeSignature(secret, purpose, value)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return "", false
	}
	return value, true
}
