package session

import (
	"crypto/sha1"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Origin is the fixed origin string every authorized request is scoped to
const Origin = "https://www.youtube.com"

// cookieOrder fixes the serialization order of the Cookie header so
// requests are reproducible across runs.
var cookieOrder = []string{"PREF", "__Secure-3PSID", "CONSENT", "SAPISID", "__Secure-3PAPISID"}

// Session holds the credential set used for upstream requests. It is
// stateless aside from the cookies; the per-request authorization value
// is derived on demand.
type Session struct {
	cookies map[string]string
	now     func() time.Time
}

// New creates a session from an initialized cookie set
func New(cookies map[string]string) *Session {
	if cookies == nil {
		cookies = InitializeCookies(nil)
	}
	return &Session{
		cookies: cookies,
		now:     time.Now,
	}
}

// FromCookieFile builds a session from a Netscape cookies.txt file.
// An empty path yields an anonymous session.
func FromCookieFile(path string) *Session {
	return New(InitializeCookies(LoadCookieFile(path)))
}

// ApplyProfile overlays stored credential secrets onto the session cookies
func (s *Session) ApplyProfile(p *Profile) {
	if p == nil {
		return
	}
	if p.SAPISID != "" {
		s.cookies["SAPISID"] = p.SAPISID
		if _, ok := s.cookies["__Secure-3PAPISID"]; !ok {
			s.cookies["__Secure-3PAPISID"] = p.SAPISID
		}
	}
	if p.SecurePSID != "" {
		s.cookies["__Secure-3PSID"] = p.SecurePSID
	}
}

// Authenticated reports whether the session carries the secret needed
// to compute an authorization value
func (s *Session) Authenticated() bool {
	return s.cookies["SAPISID"] != ""
}

// Cookie returns the value of a single cookie
func (s *Session) Cookie(name string) string {
	return s.cookies[name]
}

// CookieHeader serializes the session cookies into a Cookie header value
func (s *Session) CookieHeader() string {
	var parts []string
	seen := make(map[string]bool)

	for _, name := range cookieOrder {
		if v, ok := s.cookies[name]; ok {
			parts = append(parts, fmt.Sprintf("%s=%s", name, v))
			seen[name] = true
		}
	}

	var extra []string
	for name := range s.cookies {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		parts = append(parts, fmt.Sprintf("%s=%s", name, s.cookies[name]))
	}

	return strings.Join(parts, "; ")
}

// authorization computes the SAPISIDHASH authorization value: a unix
// timestamp joined with the SHA-1 of "<timestamp> <SAPISID> <origin>".
func (s *Session) authorization() string {
	timestamp := s.now().Unix()
	input := fmt.Sprintf("%d %s %s", timestamp, s.cookies["SAPISID"], Origin)
	digest := sha1.Sum([]byte(input))
	return fmt.Sprintf("SAPISIDHASH %d_%x", timestamp, digest)
}

// Headers returns the request headers for one upstream call. The
// Authorization header is only present for authenticated sessions and
// is recomputed per call because the hash embeds a timestamp.
func (s *Session) Headers() map[string]string {
	headers := map[string]string{
		"Cookie":                        s.CookieHeader(),
		"X-Goog-AuthUser":               "0",
		"X-Origin":                      Origin,
		"X-Youtube-Bootstrap-Logged-In": "true",
	}

	if s.Authenticated() {
		headers["Authorization"] = s.authorization()
	}

	return headers
}
