package optimizer

import "context"

// RequestInfo identifies the request a solve belongs to in logs and metrics.
type RequestInfo struct {
	ID     string
	Source string
}

type requestKey struct{}

// WithRequestInfo attaches info to ctx.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestKey{}, info)
}

// RequestInfoFrom returns the info attached to ctx, if any.
func RequestInfoFrom(ctx context.Context) (RequestInfo, bool) {
	info, ok := ctx.Value(requestKey{}).(RequestInfo)
	return info, ok
}
