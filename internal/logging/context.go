package logging

import "context"

type ctxKey struct{}

// Fields are attached to every record logged with the context.
type Fields struct {
	RequestID string
	CallerID  string
	VersionID string
	BuildID   string
	Component string
}

func (f Fields) merge(o Fields) Fields {
	if o.RequestID != "" {
		f.RequestID = o.RequestID
	}
	if o.CallerID != "" {
		f.CallerID = o.CallerID
	}
	if o.VersionID != "" {
		f.VersionID = o.VersionID
	}
	if o.BuildID != "" {
		f.BuildID = o.BuildID
	}
	if o.Component != "" {
		f.Component = o.Component
	}
	return f
}

// WithFields returns a context whose fields are the existing ones overlaid
// with the non-empty values of f.
func WithFields(ctx context.Context, f Fields) context.Context {
	return context.WithValue(ctx, ctxKey{}, FieldsFrom(ctx).merge(f))
}

func FieldsFrom(ctx context.Context) Fields {
	if ctx == nil {
		return Fields{}
	}
	f, _ := ctx.Value(ctxKey{}).(Fields)
	return f
}
