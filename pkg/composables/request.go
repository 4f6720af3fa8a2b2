package composables

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/constants"
)

type Params struct {
	IP        string
	UserAgent string
	RequestID string
	Request   *http.Request
	Writer    http.ResponseWriter
}

// UseParams returns the request parameters from the context.
// If the parameters are not found, the second return value will be false.
func UseParams(ctx context.Context) (*Params, bool) {
	params, ok := ctx.Value(constants.ParamsKey).(*Params)
	return params, ok
}

// WithParams returns a new context with the request parameters.
func WithParams(ctx context.Context, params *Params) context.Context {
	return context.WithValue(ctx, constants.ParamsKey, params)
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the request-scoped logger, or an entry on the standard
// logger when ctx carries none (CLI runs, tests).
func UseLogger(ctx context.Context) *logrus.Entry {
	if logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok {
		return logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// UseIP returns the IP address from the context.
// If the IP address is not found, the second return value will be false.
func UseIP(ctx context.Context) (string, bool) {
	params, ok := UseParams(ctx)
	if !ok {
		return "", false
	}
	return params.IP, true
}

// UseRequestID returns the request id assigned by the logging middleware.
func UseRequestID(ctx context.Context) (string, bool) {
	params, ok := UseParams(ctx)
	if !ok || params.RequestID == "" {
		return "", false
	}
	return params.RequestID, true
}

// GetLastQueryParam returns the last occurrence of a query parameter.
func GetLastQueryParam(r *http.Request, key string) string {
	values := r.URL.Query()[key]
	if len(values) > 0 {
		return values[len(values)-1]
	}
	return ""
}
