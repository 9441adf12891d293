package policy

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"filer/internal/domain"
	"filer/internal/pkg/apperr"
)

const (
	ReasonUnsupportedType = "unsupported type"
	ReasonTooLarge        = "exceeds size limit"
)

// UploadDescriptor is what the caller declares about an upload.
type UploadDescriptor struct {
	Filename string
	MimeType string
	Size     int64
}

// Extension returns the lower-cased extension of Filename without the dot.
func (d UploadDescriptor) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(d.Filename)), ".")
}

type RuleSource interface {
	Rules(ctx context.Context, audience domain.Audience) ([]domain.TypePolicy, error)
}

// Validator checks uploads against the rules of an audience.
type Validator struct {
	rules RuleSource
}

func NewValidator(rules RuleSource) *Validator {
	return &Validator{rules: rules}
}

// Validate returns the matched rule, or a validation error naming the reason.
func (v *Validator) Validate(ctx context.Context, d UploadDescriptor, audience domain.Audience) (*domain.TypePolicy, error) {
	if d.Size < 0 {
		return nil, apperr.Validation("invalid size")
	}

	rules, err := v.rules.Rules(ctx, audience)
	if err != nil {
		return nil, fmt.Errorf("failed to load type policies: %w", err)
	}

	mime := NormalizeMime(d.MimeType)
	rule := pick(rules, audience, func(p *domain.TypePolicy) bool {
		return mime != "" && NormalizeMime(p.MimeType) == mime
	})
	if rule == nil {
		ext := d.Extension()
		rule = pick(rules, audience, func(p *domain.TypePolicy) bool {
			return ext != "" && strings.TrimPrefix(strings.ToLower(p.Extension), ".") == ext
		})
	}
	if rule == nil {
		return nil, apperr.Validation(ReasonUnsupportedType)
	}

	if d.Size > rule.MaxSize {
		return nil, apperr.Validation(ReasonTooLarge)
	}

	matched := *rule
	return &matched, nil
}

// pick prefers a rule scoped to the audience itself over a "both" rule;
// rules are already in display order.
func pick(rules []domain.TypePolicy, audience domain.Audience, match func(*domain.TypePolicy) bool) *domain.TypePolicy {
	var fallback *domain.TypePolicy
	for i := range rules {
		p := &rules[i]
		if !p.AppliesTo(audience) || !match(p) {
			continue
		}
		if p.Scope != domain.ScopeBoth {
			return p
		}
		if fallback == nil {
			fallback = p
		}
	}
	return fallback
}

// NormalizeMime lower-cases a media type and strips its parameters.
func NormalizeMime(mime string) string {
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
