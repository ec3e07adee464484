package media

import (
	"encoding/json"
	"net/url"
	"os"
	"strings"

	"reelpost/internal/services"
)

// RequiresSession reports whether the URL's host gates downloads behind an
// Instagram login session.
func RequiresSession(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	return host == "instagram.com" || strings.HasSuffix(host, ".instagram.com")
}

// sessionFile mirrors the exported Instagram session layout: a cookie map
// plus authorization data that carries the session id.
type sessionFile struct {
	Cookies           map[string]string `json:"cookies"`
	AuthorizationData map[string]any    `json:"authorization_data"`
}

// LoadCookies reads session cookies from an exported Instagram session file
// so downloads from instagram.com can authenticate.
func LoadCookies(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "read cookie file", err)
	}

	var session sessionFile
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "parse cookie file", err)
	}

	cookies := make(map[string]string, len(session.Cookies)+1)
	for name, value := range session.Cookies {
		if name != "" && value != "" {
			cookies[name] = value
		}
	}
	if _, ok := cookies["sessionid"]; !ok {
		if raw, ok := session.AuthorizationData["sessionid"]; ok {
			if sessionID, ok := raw.(string); ok && sessionID != "" {
				cookies["sessionid"] = sessionID
			}
		}
	}
	if len(cookies) == 0 {
		return nil, services.Wrapf(services.ErrConfiguration, "cookie file %s holds no usable cookies", path)
	}
	return cookies, nil
}
