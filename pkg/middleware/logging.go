package middleware

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/composables"
	"github.com/heyyrintu/lifelong-Dashboard-sub002/pkg/httpapi"
)

type LoggerOptions struct {
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodyLength   int

	// Looked up on every request; a random uuidv4 is generated when absent.
	RequestIDHeader string
	// Falls back to request.RemoteAddr when absent.
	RealIPHeader string
	Repanic      bool
}

func NewLoggerOptions(logRequestBody bool, logResponseBody bool, maxBodyLength int) LoggerOptions {
	return LoggerOptions{
		LogRequestBody:  logRequestBody,
		LogResponseBody: logResponseBody,
		MaxBodyLength:   maxBodyLength,
		RequestIDHeader: "X-Request-ID",
		RealIPHeader:    "X-Real-IP",
	}
}

func DefaultLoggerOptions() LoggerOptions {
	return NewLoggerOptions(true, true, 512)
}

type responseCaptureWriter struct {
	http.ResponseWriter
	statusCode    int
	statusWritten bool
	body          *bytes.Buffer
	maxBody       int
}

func (w *responseCaptureWriter) WriteHeader(code int) {
	if !w.statusWritten {
		w.statusCode = code
		w.statusWritten = true
		w.ResponseWriter.WriteHeader(code)
	}
}

// Status returns the HTTP status code
func (w *responseCaptureWriter) Status() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

func (w *responseCaptureWriter) Write(b []byte) (int, error) {
	if !w.statusWritten {
		w.WriteHeader(http.StatusOK)
	}
	if room := w.maxBody - w.body.Len(); room > 0 {
		w.body.Write(b[:min(room, len(b))])
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseCaptureWriter) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseCaptureWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := w.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, fmt.Errorf("underlying ResponseWriter does not implement http.Hijacker")
}

func wrapResponseWriter(w http.ResponseWriter, maxBody int) *responseCaptureWriter {
	return &responseCaptureWriter{
		ResponseWriter: w,
		body:           &bytes.Buffer{},
		maxBody:        maxBody,
	}
}

func getRealIP(r *http.Request, header string) string {
	if header != "" {
		if ip := strings.TrimSpace(r.Header.Get(header)); ip != "" {
			return ip
		}
	}
	return r.RemoteAddr
}

func getRequestID(r *http.Request, header string) string {
	if header != "" {
		if id := strings.TrimSpace(r.Header.Get(header)); id != "" {
			return id
		}
	}
	return uuid.New().String()
}

var tracer = otel.Tracer("logistics-mis-middleware")

func TracedMiddleware(name string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(
				r.Context(),
				"middleware."+name,
				trace.WithAttributes(
					attribute.String("middleware.name", name),
					attribute.String("http.method", r.Method),
					attribute.String("http.url", r.URL.String()),
				),
			)
			defer span.End()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func formatHeaders(h http.Header) map[string]string {
	headers := make(map[string]string)
	for key, values := range h {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}
	return headers
}

// Uploads are multipart and never logged.
func shouldLogBody(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "application/json")
}

func truncateBody(b []byte, n int) string {
	if n > 0 && len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// WithLogger opens the request span, stores a request-scoped logger and the
// request params in the context, and turns handler panics into a JSON 500.
func WithLogger(logger *logrus.Logger, opts LoggerOptions) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				start := time.Now()
				requestID := getRequestID(r, opts.RequestIDHeader)
				ip := getRealIP(r, opts.RealIPHeader)

				fieldsLogger := logger.WithFields(logrus.Fields{
					"request-id": requestID,
					"path":       r.URL.Path,
					"method":     r.Method,
				})
				fieldsLogger.WithFields(logrus.Fields{
					"host":       r.Host,
					"ip":         ip,
					"user-agent": r.UserAgent(),
				}).Debug("request started")

				if opts.LogRequestBody && r.Body != nil && r.Method != http.MethodGet && shouldLogBody(r.Header.Get("Content-Type")) {
					body, err := io.ReadAll(io.LimitReader(r.Body, int64(opts.MaxBodyLength)+1))
					if err != nil {
						fieldsLogger.WithError(err).Error("failed to read request-body")
						http.Error(w, "failed to read request-body", http.StatusInternalServerError)
						return
					}
					r.Body = struct {
						io.Reader
						io.Closer
					}{io.MultiReader(bytes.NewReader(body), r.Body), r.Body}
					fieldsLogger.WithField("request-body", truncateBody(body, opts.MaxBodyLength)).Debug("request-body captured")
				}

				propagator := propagation.TraceContext{}
				ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
				ctx, span := tracer.Start(
					ctx,
					"http.request",
					trace.WithAttributes(
						attribute.String("http.method", r.Method),
						attribute.String("http.route", r.URL.Path),
						attribute.String("http.user_agent", r.UserAgent()),
						attribute.String("http.request_id", requestID),
						attribute.String("net.peer.ip", ip),
					),
				)
				defer span.End()
				propagator.Inject(ctx, propagation.HeaderCarrier(w.Header()))

				if spanContext := span.SpanContext(); spanContext.HasTraceID() {
					traceID := spanContext.TraceID().String()
					w.Header().Set("X-Trace-Id", traceID)
					fieldsLogger = fieldsLogger.WithField("trace-id", traceID)
				}
				w.Header().Set("X-Request-Id", requestID)

				wrappedWriter := wrapResponseWriter(w, opts.MaxBodyLength)
				ctx = composables.WithLogger(ctx, fieldsLogger)
				ctx = composables.WithParams(ctx, &composables.Params{
					IP:        ip,
					UserAgent: r.UserAgent(),
					RequestID: requestID,
					Request:   r,
					Writer:    wrappedWriter,
				})

				defer func() {
					recovered := recover()
					if recovered == nil {
						return
					}
					fieldsLogger.WithFields(logrus.Fields{
						"panic":    recovered,
						"stack":    string(debug.Stack()),
						"ip":       ip,
						"duration": time.Since(start),
					}).Error("panic recovered in request handler")

					if !wrappedWriter.statusWritten {
						_ = httpapi.WriteError(wrappedWriter, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error", map[string]string{
							"request_id": requestID,
							"path":       r.URL.Path,
						})
					}
					span.SetAttributes(attribute.Int("http.status_code", http.StatusInternalServerError))
					if opts.Repanic {
						panic(recovered)
					}
				}()

				next.ServeHTTP(wrappedWriter, r.WithContext(ctx))

				statusCode := wrappedWriter.Status()
				duration := time.Since(start)
				entry := fieldsLogger.WithFields(logrus.Fields{
					"duration":     duration,
					"status-code":  statusCode,
					"status-class": statusCode / 100,
				})
				if opts.LogResponseBody && statusCode >= http.StatusBadRequest && shouldLogBody(wrappedWriter.Header().Get("Content-Type")) {
					entry = entry.WithField("response-body", truncateBody(wrappedWriter.body.Bytes(), opts.MaxBodyLength))
				}
				if statusCode >= http.StatusInternalServerError {
					entry.Warn("request completed")
				} else {
					entry.Info("request completed")
				}

				span.SetAttributes(
					attribute.Int64("http.request_duration_ms", duration.Milliseconds()),
					attribute.Int("http.status_code", statusCode),
				)
			},
		)
	}
}
