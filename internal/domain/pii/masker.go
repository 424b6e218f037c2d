package pii

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/publicsuffix"
)

// MaskEmail keeps the first character of the local part and the registrable domain:
// "jane.doe@mail.example.co.uk" becomes "j***@example.co.uk".
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(strings.TrimSpace(email), "@")
	if !ok || local == "" || domain == "" {
		return "***"
	}
	domain = strings.ToLower(domain)
	if etld1, err := publicsuffix.EffectiveTLDPlusOne(domain); err == nil {
		domain = etld1
	}
	return firstRune(local) + "***@" + domain
}

// MaskPhone keeps the last four digits: "***-***-1234".
func MaskPhone(phone string) string {
	d := digits(phone)
	if len(d) < 4 {
		return "***-***-****"
	}
	return "***-***-" + d[len(d)-4:]
}

// MaskCard keeps the last four digits: "****-****-****-1234".
func MaskCard(card string) string {
	return "****-****-****-" + LastFour(card)
}

// MaskName keeps the first character of each word.
func MaskName(name string) string {
	parts := strings.Fields(name)
	for i, p := range parts {
		parts[i] = firstRune(p) + "***"
	}
	if len(parts) == 0 {
		return "***"
	}
	return strings.Join(parts, " ")
}

func firstRune(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	return string(r)
}
