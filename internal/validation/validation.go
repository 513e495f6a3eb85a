package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"github.com/weiawesome/wes-io-live/chatroom-service/internal/domain"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid input")

// NamePolicy selects which characters a participant name may contain.
type NamePolicy string

const (
	NamePolicyAlphanumeric NamePolicy = "alphanumeric"
	NamePolicyLetters      NamePolicy = "letters"
)

const maxNameLength = 100

// ParseNamePolicy parses a configured policy name.
func ParseNamePolicy(s string) (NamePolicy, error) {
	switch p := NamePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", NamePolicyAlphanumeric:
		return NamePolicyAlphanumeric, nil
	case NamePolicyLetters:
		return NamePolicyLetters, nil
	default:
		return "", fmt.Errorf("unknown name policy %q", s)
	}
}

func (p NamePolicy) tag() string {
	charset := "alphanum"
	if p == NamePolicyLetters {
		charset = "alpha"
	}
	return fmt.Sprintf("required,%s,max=%d", charset, maxNameLength)
}

// Validator checks and cleans untrusted input before it reaches the store.
type Validator struct {
	validate  *validator.Validate
	nameTag   string
	sanitizer *bluemonday.Policy
}

// New creates a Validator enforcing the given name policy.
func New(policy NamePolicy) *Validator {
	return &Validator{
		validate:  validator.New(),
		nameTag:   policy.tag(),
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Sanitize strips all markup from s and trims surrounding whitespace.
func (v *Validator) Sanitize(s string) string {
	return strings.TrimSpace(v.sanitizer.Sanitize(s))
}

// Name validates a candidate participant name and returns it sanitized.
func (v *Validator) Name(name string) (string, error) {
	if err := v.validate.Var(name, v.nameTag); err != nil {
		return "", fmt.Errorf("%w: name: %v", ErrInvalid, err)
	}
	return v.Sanitize(name), nil
}

// Message validates a user-authored message and returns its sanitized form.
// Only From, To, Text and Type are set on the result.
func (v *Validator) Message(from string, req *domain.MessageRequest) (*domain.Message, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: empty message", ErrInvalid)
	}

	typ, err := domain.ParseMessageType(strings.TrimSpace(req.Type))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if !typ.UserAuthored() {
		return nil, fmt.Errorf("%w: type %q is reserved", ErrInvalid, typ)
	}

	to := v.Sanitize(req.To)
	if to == "" {
		return nil, fmt.Errorf("%w: to is required", ErrInvalid)
	}

	text := v.Sanitize(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalid)
	}

	return &domain.Message{
		From: from,
		To:   to,
		Text: text,
		Type: typ,
	}, nil
}
