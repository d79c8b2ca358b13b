package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"makerapi/internal/logging"
	"makerapi/internal/model"
)

// Discoverer looks up the tokens of the logged-in user. Client should carry
// the session cookie; discovery is pointless without one.
type Discoverer struct {
	BaseURL string
	Client  *http.Client
	Logger  *slog.Logger
}

type tokenEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Value       string `json:"value"`
	Token       string `json:"token"`
}

type tokensResponse struct {
	Tokens []tokenEntry `json:"tokens"`
}

// Discover never fails: every problem is logged and yields an empty list.
func (d *Discoverer) Discover(ctx context.Context) []model.Token {
	log := logging.OrNop(d.Logger)

	var user map[string]any
	if err := d.getJSON(ctx, "/api/user", &user); err != nil {
		log.Debug("token discovery: no current user", "err", err)
		return nil
	}

	endpoint := "/api/tokens"
	if id := userID(user); id != "" {
		endpoint = "/api/users/" + url.PathEscape(id) + "/tokens"
	}

	var tr tokensResponse
	if err := d.getJSON(ctx, endpoint, &tr); err != nil {
		log.Warn("token discovery failed", "endpoint", endpoint, "err", err)
		return nil
	}

	out := make([]model.Token, 0, len(tr.Tokens))
	for _, t := range tr.Tokens {
		v := t.Value
		if v == "" {
			v = t.Token
		}
		out = append(out, model.Token{Name: t.Name, Description: t.Description, Value: v})
	}
	log.Debug("token discovery", "endpoint", endpoint, "tokens", len(out))
	return out
}

// userID looks for the id at the top level, then under user and data.
func userID(v map[string]any) string {
	if id := idString(v["id"]); id != "" {
		return id
	}
	for _, key := range []string{"user", "data"} {
		if nested, ok := v[key].(map[string]any); ok {
			if id := idString(nested["id"]); id != "" {
				return id
			}
		}
	}
	return ""
}

func idString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		if id.String() == "0" {
			return ""
		}
		return id.String()
	default:
		return ""
	}
}

func (d *Discoverer) getJSON(ctx context.Context, path string, out any) error {
	body, err := get(ctx, d.client(), d.BaseURL, path, "application/json")
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(out)
}

func (d *Discoverer) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return http.DefaultClient
}

// DiscoverCSRF reads the anti-forgery token from the csrf-token meta tag of
// the dashboard page. An empty string means none was found.
func DiscoverCSRF(ctx context.Context, client *http.Client, baseURL string, log *slog.Logger) string {
	log = logging.OrNop(log)
	if client == nil {
		client = http.DefaultClient
	}
	body, err := get(ctx, client, baseURL, "/", "text/html")
	if err != nil {
		log.Debug("csrf discovery failed", "err", err)
		return ""
	}
	token := ParseCSRFMeta(bytes.NewReader(body))
	log.Debug("csrf discovery", "found", token != "")
	return token
}

// ParseCSRFMeta returns the content of <meta name="csrf-token">.
func ParseCSRFMeta(r io.Reader) string {
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "meta" {
				continue
			}
			var name, content string
			for _, a := range tok.Attr {
				switch strings.ToLower(a.Key) {
				case "name":
					name = a.Val
				case "content":
					content = a.Val
				}
			}
			if strings.EqualFold(name, "csrf-token") {
				return content
			}
		}
	}
}

func get(ctx context.Context, client *http.Client, baseURL, path, accept string) ([]byte, error) {
	target := strings.TrimRight(baseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("GET %s: %s", target, resp.Status)
	}
	return b, nil
}
