package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	qqDefaultAuthBase = "https://graph.qq.com"
	qqEmailDomain     = "qq.oauth"
)

// QQProvider drives QQ Connect. QQ differs from Google on every wire format:
// the token response is form-encoded, the openid lookup is JSONP-wrapped, and
// no email is ever reported, so a deterministic "{openid}@qq.oauth" fallback
// keeps the identity resolver's email requirement satisfied.
type QQProvider struct {
	clientID     string
	clientSecret string
	redirectURL  string
	baseURL      string
	httpClient   *http.Client
}

func NewQQProvider(clientID, clientSecret, redirectURL string) *QQProvider {
	return &QQProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		baseURL:      qqDefaultAuthBase,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (q *QQProvider) Name() string {
	return "qq"
}

func (q *QQProvider) AuthCodeURL(state string) string {
	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", q.clientID)
	params.Set("redirect_uri", q.redirectURL)
	params.Set("state", state)
	return q.baseURL + "/oauth2.0/authorize?" + params.Encode()
}

func (q *QQProvider) Exchange(ctx context.Context, code string) (*Token, error) {
	params := url.Values{}
	params.Set("grant_type", "authorization_code")
	params.Set("client_id", q.clientID)
	params.Set("client_secret", q.clientSecret)
	params.Set("code", code)
	params.Set("redirect_uri", q.redirectURL)

	body, err := q.get(ctx, q.baseURL+"/oauth2.0/token?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("qq code exchange failed: %w", err)
	}

	// Form-encoded: access_token=..&expires_in=..&refresh_token=..
	values, err := url.ParseQuery(string(body))
	if err != nil || values.Get("access_token") == "" {
		return nil, fmt.Errorf("unexpected qq token response: %q", string(body))
	}
	token := &Token{
		AccessToken:  values.Get("access_token"),
		RefreshToken: values.Get("refresh_token"),
	}
	if seconds, err := strconv.Atoi(values.Get("expires_in")); err == nil && seconds > 0 {
		expiry := time.Now().Add(time.Duration(seconds) * time.Second)
		token.Expiry = &expiry
	}
	return token, nil
}

func (q *QQProvider) FetchProfile(ctx context.Context, token *Token) (*Profile, error) {
	openID, err := q.fetchOpenID(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("access_token", token.AccessToken)
	params.Set("oauth_consumer_key", q.clientID)
	params.Set("openid", openID)

	body, err := q.get(ctx, q.baseURL+"/user/get_user_info?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("qq profile fetch failed: %w", err)
	}

	var info struct {
		Ret      int    `json:"ret"`
		Msg      string `json:"msg"`
		Nickname string `json:"nickname"`
		Figure   string `json:"figureurl_qq_1"`
	}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("malformed qq profile response: %w", err)
	}
	if info.Ret != 0 {
		return nil, fmt.Errorf("qq profile request rejected: %s", info.Msg)
	}

	return &Profile{
		ProviderUserID: openID,
		Email:          fmt.Sprintf("%s@%s", openID, qqEmailDomain),
		Name:           info.Nickname,
		Picture:        info.Figure,
	}, nil
}

// fetchOpenID unwraps the JSONP envelope: callback( {"client_id":"..","openid":".."} );
func (q *QQProvider) fetchOpenID(ctx context.Context, accessToken string) (string, error) {
	body, err := q.get(ctx, q.baseURL+"/oauth2.0/me?access_token="+url.QueryEscape(accessToken))
	if err != nil {
		return "", fmt.Errorf("qq openid lookup failed: %w", err)
	}

	payload := string(body)
	if start := strings.Index(payload, "("); start >= 0 {
		if end := strings.LastIndex(payload, ")"); end > start {
			payload = payload[start+1 : end]
		}
	}

	var me struct {
		OpenID string `json:"openid"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &me); err != nil {
		return "", fmt.Errorf("malformed qq openid response: %w", err)
	}
	if me.OpenID == "" {
		return "", fmt.Errorf("qq openid response is missing openid")
	}
	return me.OpenID, nil
}

func (q *QQProvider) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := q.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
