package gateway

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	ErrDomainNotAllowed = errors.New("sender domain not allowed")
	ErrEmptyBody        = errors.New("message body is empty")
	ErrBodyTooLong      = errors.New("message body is too long")
)

// Validator gates inbound chat messages before they reach the assistant.
type Validator struct {
	allowedDomains []string
	maxLength      int
}

// NewValidator creates a Validator. An empty allow list accepts every domain;
// maxLength <= 0 disables the length check.
func NewValidator(allowedDomains []string, maxLength int) *Validator {
	return &Validator{allowedDomains: allowedDomains, maxLength: maxLength}
}

func (v *Validator) Validate(route *Route, body string) error {
	if len(v.allowedDomains) > 0 && !domainAllowed(route.Domain, v.allowedDomains) {
		return fmt.Errorf("%w: %q", ErrDomainNotAllowed, route.Domain)
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return ErrEmptyBody
	}
	if v.maxLength > 0 && utf8.RuneCountInString(body) > v.maxLength {
		return ErrBodyTooLong
	}
	return nil
}

func domainAllowed(domain string, allowed []string) bool {
	for _, d := range allowed {
		if strings.EqualFold(d, domain) {
			return true
		}
	}
	return false
}
