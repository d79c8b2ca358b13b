package httpclient

import (
	"strings"

	"al.essio.dev/pkg/shellescape"

	"makerapi/internal/auth"
	"makerapi/internal/model"
)

// CurlCommand is a request rendered for the shell, plus advisory comments
// printed above it.
type CurlCommand struct {
	Comments []string `json:"comments,omitempty" yaml:"comments,omitempty"`
	Method   string   `json:"method" yaml:"method"`
	URL      string   `json:"url" yaml:"url"`
	Headers  []Header `json:"headers" yaml:"headers"`
	Body     *string  `json:"body,omitempty" yaml:"body,omitempty"`
}

// Curl renders the same request Compose would build, against baseURL.
// Unlike Compose, body text that is not JSON is still rendered, with a
// warning comment.
func Curl(baseURL string, r model.Route, params ParamValues, mode model.AuthMode, creds auth.Credentials, bodyText *string) (CurlCommand, error) {
	if mode == "" {
		mode = auth.Default(r)
	}
	if mode == model.AuthMixed {
		return CurlCommand{}, model.NewError(model.KindInvalidAuthMode, nil, "mixed is not a request auth mode")
	}

	res := resolve(r, params, bodyText)
	headers, _ := authHeaders(mode, creds)
	if res.body != nil {
		headers = append(headers, Header{Name: "Content-Type", Value: "application/json"})
	}

	cmd := CurlCommand{
		Method:  strings.ToUpper(r.Method),
		URL:     strings.TrimRight(baseURL, "/") + res.url,
		Headers: headers,
		Body:    res.body,
	}

	switch mode {
	case model.AuthToken:
		cmd.Comments = append(cmd.Comments, "Note: this command does not send cookies, only the token header")
		if strings.TrimSpace(creds.Token) == "" {
			cmd.Comments = append(cmd.Comments, "Note: the token is empty; select or enter a token first")
		}
	case model.AuthSession:
		cmd.Comments = append(cmd.Comments, "Note: add your session cookie, e.g. --cookie 'session=<value>'")
		if creds.CSRFToken == "" {
			cmd.Comments = append(cmd.Comments, "Note: no CSRF token known; add -H 'X-CSRF-TOKEN: <token>' if the server asks for one")
		}
	case model.AuthLocalOnly:
		cmd.Comments = append(cmd.Comments, "Note: this endpoint is restricted to local network access")
	}
	if res.bodyErr != nil {
		cmd.Comments = append(cmd.Comments, "Warning: request body is not valid JSON")
	}
	return cmd, nil
}

// CurlFromRequest renders an already composed request.
func CurlFromRequest(baseURL string, req ComposedRequest) CurlCommand {
	return CurlCommand{
		Method:  req.Method,
		URL:     strings.TrimRight(baseURL, "/") + req.URL,
		Headers: req.Headers,
		Body:    req.Body,
	}
}

func (c CurlCommand) String() string { return ToCurlText(c) }

// ToCurlText formats c as a multi-line shell command.
func ToCurlText(c CurlCommand) string {
	var b strings.Builder
	for _, line := range c.Comments {
		b.WriteString("# ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString("curl -X ")
	b.WriteString(c.Method)
	b.WriteByte(' ')
	b.WriteString(shellescape.Quote(c.URL))
	for _, h := range c.Headers {
		b.WriteString(" \\\n  -H ")
		b.WriteString(shellescape.Quote(h.Name + ": " + h.Value))
	}
	if c.Body != nil {
		b.WriteString(" \\\n  -d ")
		b.WriteString(shellescape.Quote(*c.Body))
	}
	b.WriteByte('\n')
	return b.String()
}
