package daemon

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"queuewatch/internal/logging"
)

// newAttachHandler proxies every request to upstream through transport, so
// queue traffic viewed via the attach listener is observed by the
// interceptor.
func newAttachHandler(upstream string, transport http.RoundTripper, logger *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream: %w", err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, errors.New("upstream must be an absolute http(s) url")
	}
	logger = logging.NewComponentLogger(logger, "attach")

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.Warn("upstream request failed",
				logging.String("url", r.URL.String()),
				logging.Error(err),
			)
			writeError(w, http.StatusBadGateway, "upstream unavailable")
		},
	}
	return proxy, nil
}
