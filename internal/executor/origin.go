package executor

import "context"

// Origin identifies who issued a query, for the execution log.
type Origin struct {
	RequestID string
	Extension string

	// Seq returns the next per-request sequence number. When nil the
	// Client numbers executions itself.
	Seq func() int64
}

type originKey struct{}

// WithOrigin returns a context that attributes executions to origin.
func WithOrigin(ctx context.Context, origin Origin) context.Context {
	return context.WithValue(ctx, originKey{}, origin)
}

// OriginFrom returns the origin attached to ctx, if any.
func OriginFrom(ctx context.Context) (Origin, bool) {
	o, ok := ctx.Value(originKey{}).(Origin)
	return o, ok
}
