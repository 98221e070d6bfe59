package core

import "context"

// RequestInfo identifies the caller of a request for logging.
type RequestInfo struct {
	IP        string
	UserAgent string
}

type requestInfoKey struct{}

// ContextWithRequestInfo attaches caller details to ctx.
func ContextWithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext returns the caller details, or zero values.
func RequestInfoFromContext(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}
