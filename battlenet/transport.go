package battlenet

import (
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"

	"github.com/tnicklin/nephalem/logger"
)

// NewHTTPClient returns an HTTP client that retries connection errors, 429 and 5xx responses
// and limits the outgoing request rate. Every attempt, retries included, waits on the limiter.
func NewHTTPClient(cfg Config, log logger.Logger) *http.Client {
	cfg.Defaults()
	if log == nil {
		log = logger.NewNop()
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = max(cfg.MaxRetries, 0)
	rc.RetryWaitMin = cfg.RetryWaitMin
	rc.RetryWaitMax = cfg.RetryWaitMax
	rc.Logger = leveledLogger{log: log}
	rc.ResponseLogHook = responseLogHook(log)
	// Hand the last response back so callers can classify the status themselves.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.HTTPClient.Transport = &rateLimitedTransport{
		next:    rc.HTTPClient.Transport,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
	}

	return &http.Client{
		Transport: &retryingTransport{
			RoundTripper: &retryablehttp.RoundTripper{Client: rc},
			inner:        rc.HTTPClient,
		},
		Timeout: cfg.Timeout,
	}
}

type retryingTransport struct {
	*retryablehttp.RoundTripper
	inner *http.Client
}

func (t *retryingTransport) CloseIdleConnections() {
	t.inner.CloseIdleConnections()
}

type rateLimitedTransport struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		return nil, err
	}
	return t.next.RoundTrip(req)
}

func (t *rateLimitedTransport) CloseIdleConnections() {
	type closeIdler interface{ CloseIdleConnections() }
	if ci, ok := t.next.(closeIdler); ok {
		ci.CloseIdleConnections()
	}
}

// responseLogHook warns on HTTP errors. Successful responses are logged at debug level without bodies.
func responseLogHook(log logger.Logger) retryablehttp.ResponseLogHook {
	return func(_ retryablehttp.Logger, resp *http.Response) {
		if resp == nil || resp.Request == nil {
			return
		}
		kv := []any{
			"method", resp.Request.Method,
			"host", resp.Request.URL.Host,
			"path", resp.Request.URL.Path,
			"status", resp.StatusCode,
		}
		if resp.StatusCode >= 400 {
			log.WarnW("battlenet: http error", kv...)
			return
		}
		log.DebugW("battlenet: http response", kv...)
	}
}

// leveledLogger adapts logger.Logger to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log logger.Logger
}

var _ retryablehttp.LeveledLogger = leveledLogger{}

func (l leveledLogger) Error(msg string, keysAndValues ...any) {
	l.log.ErrorW("retryablehttp: "+msg, redact(keysAndValues)...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...any) {
	l.log.InfoW("retryablehttp: "+msg, redact(keysAndValues)...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...any) {
	l.log.DebugW("retryablehttp: "+msg, redact(keysAndValues)...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...any) {
	l.log.WarnW("retryablehttp: "+msg, redact(keysAndValues)...)
}

// redact replaces request URLs with host and path so query strings never reach the logs.
func redact(keysAndValues []any) []any {
	out := make([]any, len(keysAndValues))
	copy(out, keysAndValues)
	for i := 1; i < len(out); i += 2 {
		if key, ok := out[i-1].(string); !ok || key != "url" {
			continue
		}
		if u, ok := out[i].(*url.URL); ok && u != nil {
			out[i] = u.Host + u.Path
		}
	}
	return out
}
