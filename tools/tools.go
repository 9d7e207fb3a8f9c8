package tools

import (
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const passwordCharset = charset + "!@#$%&*"

func EncryptTextSHA512(text string) string {
	sum := sha512.Sum512([]byte(text))
	return hex.EncodeToString(sum[:])
}

func randomFrom(set string, length int) string {
	b := make([]byte, length)
	max := big.NewInt(int64(len(set)))
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		b[i] = set[n.Int64()]
	}
	return string(b)
}

func RandomString(length int) string {
	return randomFrom(charset, length)
}

// RandomPassword generates a password for accounts created by an admin.
func RandomPassword(length int) string {
	return randomFrom(passwordCharset, length)
}

// Slugify lowercases name and joins its words with "_". Accents are dropped.
func Slugify(name string) string {
	decomposed := norm.NFD.String(strings.ToLower(strings.TrimSpace(name)))
	var b strings.Builder
	lastSep := false
	for _, r := range decomposed {
		switch {
		case unicode.Is(unicode.Mn, r):
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSep = false
		case unicode.IsSpace(r) || r == '_' || r == '-':
			if !lastSep && b.Len() > 0 {
				b.WriteByte('_')
				lastSep = true
			}
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// URLSlug is Slugify with "-" separators, for article slugs.
func URLSlug(title string) string {
	return strings.ReplaceAll(Slugify(title), "_", "-")
}
