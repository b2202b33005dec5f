// Package httpadapter implements the HTTP(S) bench.ProtocolAdapter:
// it builds a reusable *http.Client per worker, chooses a target URL
// (uniformly at random when more than one is configured), executes
// the request, fully drains the response body, and reports the
// outcome as a bench.RequestStats.
package httpadapter

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"regexp"
	"sync"
	"time"

	"golang.org/x/net/http2"

	"perfgauge/bench"
)

// connectTimeout bounds dial + TLS handshake for every worker's client.
const connectTimeout = 10 * time.Second

var tokenRE = regexp.MustCompile(`^[!#$%&'*+\-.^_` + "`" + `|~0-9A-Za-z]+$`)

// Config describes one HTTP bench target. It is validated once, at
// construction time, so malformed methods/headers fail at config time
// rather than mid-run.
type Config struct {
	URLs         []string
	Method       string
	Headers      map[string][]string
	Body         []byte
	IgnoreCert   bool
	ConnReuse    bool
	HTTP2Only    bool
	StopOnErrors map[int]struct{}

	// OperationName, if set, is attached to every RequestStats this
	// adapter produces so BenchRunMetrics can break results out by
	// operation.
	OperationName string
}

// Adapter is the bench.ProtocolAdapter[*http.Client] implementation
// for HTTP(S) targets.
type Adapter struct {
	cfg Config

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewAdapter validates cfg and returns an Adapter. Method must parse
// to a valid HTTP verb and header names/values must be well-formed;
// both are checked here so configuration errors surface at startup
// rather than on the first request.
func NewAdapter(cfg Config) (*Adapter, error) {
	if len(cfg.URLs) == 0 {
		return nil, errors.New("httpadapter: at least one target URL is required")
	}
	if cfg.Method == "" {
		cfg.Method = http.MethodGet
	}
	if !tokenRE.MatchString(cfg.Method) {
		return nil, fmt.Errorf("httpadapter: invalid HTTP method %q", cfg.Method)
	}
	for name, values := range cfg.Headers {
		if !tokenRE.MatchString(name) {
			return nil, fmt.Errorf("httpadapter: invalid header name %q", name)
		}
		for _, v := range values {
			if bytes.ContainsAny([]byte(v), "\r\n") {
				return nil, fmt.Errorf("httpadapter: invalid header value for %q", name)
			}
		}
	}
	if cfg.StopOnErrors == nil {
		cfg.StopOnErrors = map[int]struct{}{}
	}

	return &Adapter{
		cfg: cfg,
		//nolint:gosec // load-shaping jitter, not security sensitive
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// BuildClient builds one reusable *http.Client per worker: optional
// TLS-verify skip, HTTP/2-only transport, connection-pool reuse
// (disabled -> pool-max-idle=0), TCP nodelay, and a bounded connect
// timeout.
func (a *Adapter) BuildClient() (*http.Client, error) {
	dialer := &net.Dialer{
		Timeout: connectTimeout,
		// Keepalives are disabled: this client drives sustained
		// synthetic load, not a long-lived idle connection.
		KeepAlive: -1,
	}
	dialContext := func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err == nil {
			if tcp, ok := conn.(*net.TCPConn); ok {
				_ = tcp.SetNoDelay(true)
			}
		}
		return conn, err
	}

	var transport http.RoundTripper
	if a.cfg.HTTP2Only {
		transport = &http2.Transport{
			AllowHTTP: true,
			DialTLS: func(network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialContext(context.Background(), network, addr)
			},
		}
	} else {
		t := &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           dialContext,
			TLSClientConfig:       &tls.Config{InsecureSkipVerify: a.cfg.IgnoreCert}, //nolint:gosec // opt-in via --ignore_cert
			DisableKeepAlives:     !a.cfg.ConnReuse,
			TLSHandshakeTimeout:   connectTimeout,
			ExpectContinueTimeout: 1 * time.Second,
			IdleConnTimeout:       90 * time.Second,
		}
		if !a.cfg.ConnReuse {
			t.MaxIdleConnsPerHost = 0
			t.MaxIdleConns = 0
		}
		transport = t
	}

	return &http.Client{Transport: transport}, nil
}

// SendRequest builds one request, executes it, fully drains the
// response body (counting bytes), and returns a bench.RequestStats.
func (a *Adapter) SendRequest(ctx context.Context, client *http.Client) bench.RequestStats {
	start := time.Now()

	url := a.pickURL()
	var body io.Reader
	if len(a.cfg.Body) > 0 {
		body = bytes.NewReader(a.cfg.Body)
	}

	req, err := http.NewRequestWithContext(ctx, a.cfg.Method, url, body)
	if err != nil {
		return bench.RequestStats{
			IsSuccess:     false,
			Status:        err.Error(),
			Duration:      time.Since(start),
			OperationName: a.cfg.OperationName,
		}
	}
	for name, values := range a.cfg.Headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return bench.RequestStats{
			IsSuccess:     false,
			Status:        err.Error(),
			Duration:      time.Since(start),
			OperationName: a.cfg.OperationName,
		}
	}
	defer resp.Body.Close()

	n, _ := io.Copy(io.Discard, resp.Body)

	status := resp.Status
	if conn := resp.Header.Get("Connection"); conn != "" {
		status = fmt.Sprintf("%s Connection: %s", status, conn)
	}

	_, fatal := a.cfg.StopOnErrors[resp.StatusCode]

	return bench.RequestStats{
		IsSuccess:      resp.StatusCode >= 200 && resp.StatusCode < 300,
		BytesProcessed: uint64(n),
		Status:         status,
		Duration:       time.Since(start),
		FatalError:     fatal,
		OperationName:  a.cfg.OperationName,
	}
}

func (a *Adapter) pickURL() string {
	if len(a.cfg.URLs) == 1 {
		return a.cfg.URLs[0]
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cfg.URLs[a.rnd.Intn(len(a.cfg.URLs))]
}
