// Package pii tokenizes, masks and redacts personal data in result rows.
package pii

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"unicode"
)

// Token prefixes by data kind.
const (
	PrefixUser    = "usr"
	PrefixEmail   = "eml"
	PrefixPhone   = "phn"
	PrefixName    = "nam"
	PrefixCard    = "crd"
	PrefixAddress = "adr"
)

const tokenHexLen = 16

// ErrMissingSalt is returned when a tokenizer is built without a salt.
var ErrMissingSalt = errors.New("pii tokenization salt is required")

// Tokenizer produces stable, non-reversible tokens with HMAC-SHA256.
type Tokenizer struct {
	salt []byte
}

// NewTokenizer returns a Tokenizer keyed by salt.
func NewTokenizer(salt string) (*Tokenizer, error) {
	if strings.TrimSpace(salt) == "" {
		return nil, ErrMissingSalt
	}
	return &Tokenizer{salt: []byte(salt)}, nil
}

// Tokenize returns "<prefix>_<16 hex chars>", or "" for an empty value.
func (t *Tokenizer) Tokenize(value, prefix string) string {
	if value == "" {
		return ""
	}
	mac := hmac.New(sha256.New, t.salt)
	mac.Write([]byte(value))
	return prefix + "_" + hex.EncodeToString(mac.Sum(nil))[:tokenHexLen]
}

// Email tokenizes a lower-cased, trimmed email address.
func (t *Tokenizer) Email(email string) string {
	return t.Tokenize(strings.ToLower(strings.TrimSpace(email)), PrefixEmail)
}

// Phone tokenizes the digits of a phone number.
func (t *Tokenizer) Phone(phone string) string {
	return t.Tokenize(digits(phone), PrefixPhone)
}

// Name tokenizes a lower-cased, trimmed person name.
func (t *Tokenizer) Name(name string) string {
	return t.Tokenize(strings.ToLower(strings.TrimSpace(name)), PrefixName)
}

// User tokenizes an internal user identifier.
func (t *Tokenizer) User(id string) string {
	return t.Tokenize(id, PrefixUser)
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LastFour returns the last four digits of a card number, or "****" when there are fewer.
func LastFour(card string) string {
	d := digits(card)
	if len(d) < 4 {
		return "****"
	}
	return d[len(d)-4:]
}
