package erpauth

import (
	"strings"
	"unicode"
)

// orgToken returns the organizational domain without its last extension,
// "triovisioninternational" for "triovisioninternational.com".
func orgToken(domain string) string {
	if i := strings.LastIndexByte(domain, '.'); i > 0 {
		return domain[:i]
	}
	return domain
}

// AutocompleteEmail applies the as-you-type rules of the registration email
// field: a trailing "@" expands to "@<domain>", and a trailing bare
// organizational token gets its extension.
func AutocompleteEmail(raw, domain string) string {
	if strings.HasSuffix(raw, "@") {
		return raw + domain
	}
	token := "@" + orgToken(domain)
	if strings.HasSuffix(raw, token) {
		return raw + domain[len(orgToken(domain)):]
	}
	return raw
}

// NormalizeEmail returns the canonical address an OTP is dispatched to: trimmed,
// trailing dots removed, lowercased, and completed with "@<domain>" when it has
// no "@". An empty result means there is no usable address.
func NormalizeEmail(raw, domain string) string {
	v := strings.TrimSpace(raw)
	v = strings.TrimRight(v, ".")
	if v == "" {
		return ""
	}
	v = strings.ToLower(v)
	domain = strings.ToLower(domain)
	if strings.Contains(v, "@") {
		if strings.HasSuffix(v, "@"+orgToken(domain)) {
			v += domain[len(orgToken(domain)):]
		}
		if strings.HasSuffix(v, "@") {
			return ""
		}
		return v
	}
	return v + "@" + domain
}

// CanSendOTP reports whether raw may be dispatched to: non-empty and free of whitespace.
func CanSendOTP(raw string) bool {
	if raw == "" {
		return false
	}
	return strings.IndexFunc(raw, unicode.IsSpace) < 0
}

func localPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}
