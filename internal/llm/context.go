package llm

import "context"

type purposeKey struct{}

// Purposes recorded with each logged request.
const (
	PurposeTemplateDraft = "template-draft"
	PurposeUnknown       = "unknown"
)

// WithPurpose tags ctx with what the request is for.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the tag set by WithPurpose, or PurposeUnknown.
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return PurposeUnknown
}
