package relay

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strings"
)

const (
	// SignatureHeader carries the relay body signature.
	SignatureHeader = "X-Signature"
	signaturePrefix = "sha256="
)

var (
	// ErrMissingSignature is returned when no signature header was supplied.
	ErrMissingSignature = errors.New("missing signature")
	// ErrInvalidSignature is returned when the supplied signature does not match the body.
	ErrInvalidSignature = errors.New("invalid signature")
)

// Sign returns "sha256=<hex HMAC-SHA256(secret, body)>" for the exact body bytes.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a header value produced by Sign in constant time.
func Verify(secret string, body []byte, header string) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return ErrMissingSignature
	}
	provided, ok := strings.CutPrefix(header, signaturePrefix)
	if !ok {
		return ErrInvalidSignature
	}
	got, err := hex.DecodeString(strings.ToLower(provided))
	if err != nil {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if subtle.ConstantTimeCompare(got, mac.Sum(nil)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}
