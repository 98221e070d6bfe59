package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/bookfund/internal/core"
)

// WithRequestMetadata attaches the caller's IP and User-Agent to ctx.
// RemoteAddr has already been rewritten by TrustedRealIP.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.ContextWithRequestInfo(ctx, core.RequestInfo{
		IP:        clientIP(r),
		UserAgent: r.UserAgent(),
	})
}
