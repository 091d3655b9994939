// Package preflight probes the application under test before a browser is launched.
package preflight

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Probe timeouts
const (
	DialTimeout    = 250 * time.Millisecond
	RequestTimeout = 800 * time.Millisecond
)

// Status is the outcome of a probe.
type Status struct {
	BaseURL    string
	Reachable  bool
	StatusCode int
	Elapsed    time.Duration
	Err        error
}

// Probe checks that the target accepts TCP connections and answers an HTTP
// GET on its base URL. It never fails the run; callers only log the result.
func Probe(ctx context.Context, baseURL string) Status {
	start := time.Now()
	st := Status{BaseURL: baseURL}

	u, err := url.Parse(baseURL)
	if err != nil {
		st.Err = fmt.Errorf("parse base url: %w", err)
		st.Elapsed = time.Since(start)
		return st
	}
	host := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}

	d := net.Dialer{Timeout: DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		st.Err = fmt.Errorf("dial %s: %w", host, err)
		st.Elapsed = time.Since(start)
		return st
	}
	_ = conn.Close()

	reqCtx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, baseURL, nil)
	if err != nil {
		st.Err = err
		st.Elapsed = time.Since(start)
		return st
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		st.Err = fmt.Errorf("GET %s: %w", baseURL, err)
		st.Elapsed = time.Since(start)
		return st
	}
	_ = resp.Body.Close()

	st.StatusCode = resp.StatusCode
	st.Reachable = true
	st.Elapsed = time.Since(start)
	return st
}

// Log probes baseURL and reports the outcome on logger.
func Log(ctx context.Context, logger *zap.Logger, baseURL string) Status {
	st := Probe(ctx, baseURL)
	logger = logger.With(zap.String("component", "preflight"), zap.String("base_url", baseURL), zap.Duration("elapsed", st.Elapsed))
	if st.Reachable {
		logger.Info("Target reachable", zap.Int("status", st.StatusCode))
	} else {
		logger.Warn("Target not reachable, the run will likely fail at navigation", zap.Error(st.Err))
	}
	return st
}
