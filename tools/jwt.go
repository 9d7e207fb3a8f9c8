package tools

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var (
	ErrTokenInvalid = errors.New("token inválido")
	ErrTokenExpired = errors.New("token expirado")
)

// SignHS256JWT signs claims with HMAC-SHA256.
func SignHS256JWT(secret string, claims any) (string, error) {
	headB, err := json.Marshal(map[string]any{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		return "", err
	}
	payloadB, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}

	enc := base64.RawURLEncoding
	unsigned := enc.EncodeToString(headB) + "." + enc.EncodeToString(payloadB)

	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(unsigned))
	return unsigned + "." + enc.EncodeToString(h.Sum(nil)), nil
}

// VerifyHS256JWT checks the signature and the exp claim and decodes the
// payload into out.
func VerifyHS256JWT(token, secret string, now time.Time, out any) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return ErrTokenInvalid
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(parts[0] + "." + parts[1]))
	expected := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(parts[2])) {
		return ErrTokenInvalid
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return ErrTokenInvalid
	}
	var std struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &std); err != nil {
		return ErrTokenInvalid
	}
	if std.Exp > 0 && now.Unix() > std.Exp {
		return ErrTokenExpired
	}
	if out != nil {
		if err := json.Unmarshal(payload, out); err != nil {
			return ErrTokenInvalid
		}
	}
	return nil
}
