package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"makerapi/internal/auth"
	"makerapi/internal/logging"
	"makerapi/internal/model"
)

const defaultTimeout = 10 * time.Second

type TestResult struct {
	StatusCode int           `json:"status" yaml:"status"`
	StatusText string        `json:"statusText" yaml:"statusText"`
	Elapsed    time.Duration `json:"-" yaml:"-"`
	ElapsedMs  int64         `json:"elapsedMs" yaml:"elapsedMs"`
	Headers    []Header      `json:"headers" yaml:"headers"`
	// Body is the response text, re-indented when it parsed as JSON.
	Body   string `json:"body" yaml:"body"`
	Parsed any    `json:"parsed,omitempty" yaml:"parsed,omitempty"`
	Note   string `json:"note,omitempty" yaml:"note,omitempty"`
}

func (r TestResult) OK() bool { return r.StatusCode >= 200 && r.StatusCode < 300 }

// Executor sends composed requests to one server. Requests whose policy is
// CredentialsInclude go through a client carrying the session cookie;
// CredentialsOmit requests use a client with no cookie jar at all.
type Executor struct {
	baseURL string
	session *http.Client
	bare    *http.Client
	log     *slog.Logger
}

type ExecutorOptions struct {
	BaseURL       string
	SessionCookie string
	Timeout       time.Duration
	Logger        *slog.Logger
	// Transport overrides http.DefaultTransport, mainly for tests.
	Transport http.RoundTripper
}

func NewExecutor(opts ExecutorOptions) (*Executor, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	session, err := NewSessionClient(opts.BaseURL, opts.SessionCookie, timeout)
	if err != nil {
		return nil, err
	}
	bare := &http.Client{Timeout: timeout}
	if opts.Transport != nil {
		session.Transport = opts.Transport
		bare.Transport = opts.Transport
	}
	return &Executor{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		session: session,
		bare:    bare,
		log:     logging.OrNop(opts.Logger),
	}, nil
}

// SessionClient is the cookie-bearing client, shared with token discovery.
func (e *Executor) SessionClient() *http.Client { return e.session }

// NewSessionClient returns a client whose jar holds cookie for baseURL.
// cookie is a Cookie header value ("a=1; b=2"); a bare value is stored as
// the "session" cookie.
func NewSessionClient(baseURL, cookie string, timeout time.Duration) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if cookie = strings.TrimSpace(cookie); cookie != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, err
		}
		jar.SetCookies(u, parseCookies(cookie))
	}
	return &http.Client{Timeout: timeout, Jar: jar}, nil
}

func parseCookies(line string) []*http.Cookie {
	if !strings.Contains(line, "=") {
		return []*http.Cookie{{Name: "session", Value: line}}
	}
	cookies, err := http.ParseCookie(line)
	if err != nil {
		name, value, _ := strings.Cut(line, "=")
		return []*http.Cookie{{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)}}
	}
	return cookies
}

// Execute sends req once. A transport failure is ExecutionFailed; any HTTP
// status, including errors, is a result.
func (e *Executor) Execute(ctx context.Context, req ComposedRequest) (TestResult, error) {
	target := e.baseURL + req.URL

	var body io.Reader
	if req.Body != nil {
		body = strings.NewReader(*req.Body)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return TestResult{}, model.NewError(model.KindExecutionFailed, err, "%s %s", req.Method, target)
	}
	for _, h := range req.Headers {
		hreq.Header.Set(h.Name, h.Value)
	}

	client := e.session
	if req.Credentials == CredentialsOmit {
		client = e.bare
	}

	e.log.Debug("execute", "method", req.Method, "url", target, "auth", req.Auth, "credentials", req.Credentials)

	start := time.Now()
	resp, err := client.Do(hreq)
	if err != nil {
		return TestResult{}, model.NewError(model.KindExecutionFailed, err, "request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return TestResult{}, model.NewError(model.KindExecutionFailed, err, "read response")
	}

	res := TestResult{
		StatusCode: resp.StatusCode,
		StatusText: statusText(resp),
		Elapsed:    elapsed,
		ElapsedMs:  elapsed.Milliseconds(),
		Headers:    responseHeaders(resp.Header),
		Note:       auth.Advisory(req.Auth),
	}
	res.Body, res.Parsed = decodeBody(resp.Header.Get("Content-Type"), raw)

	e.log.Debug("executed", "status", res.StatusCode, "elapsed_ms", res.ElapsedMs, "bytes", len(raw))
	return res, nil
}

// statusText prefers the server's reason phrase.
func statusText(resp *http.Response) string {
	if t := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))); t != "" {
		return t
	}
	return http.StatusText(resp.StatusCode)
}

// responseHeaders flattens h with lower-cased names in sorted order.
func responseHeaders(h http.Header) []Header {
	names := make([]string, 0, len(h))
	for k := range h {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]Header, 0, len(names))
	for _, k := range names {
		out = append(out, Header{Name: strings.ToLower(k), Value: strings.Join(h.Values(k), ", ")})
	}
	return out
}

// decodeBody parses JSON when the content type says so or the text looks
// like it; anything else is returned as-is.
func decodeBody(contentType string, raw []byte) (string, any) {
	trimmed := bytes.TrimSpace(raw)
	looksJSON := len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[')
	if strings.Contains(strings.ToLower(contentType), "json") || looksJSON {
		var v any
		if err := json.Unmarshal(trimmed, &v); err == nil {
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, trimmed, "", "  "); err == nil {
				return pretty.String(), v
			}
		}
	}
	return string(raw), nil
}
