package session

import (
	"fmt"
	"math/rand"
	"net/url"
	"os"
	"regexp"
	"strings"

	"ytcarchiver/pkg/logger"
)

var (
	ytCookieLine   = regexp.MustCompile(`^(#.*?)?\.youtube\.com`)
	consentPending = regexp.MustCompile(`PENDING\+(\d+)`)
	whitespace     = regexp.MustCompile(`\s+`)
)

// LoadCookieFile parses a Netscape-format cookies.txt file and returns
// the cookies scoped to .youtube.com. A missing file is not an error;
// it yields an empty map so the session falls back to anonymous access.
func LoadCookieFile(path string) map[string]string {
	cookies := make(map[string]string)

	if path == "" {
		return cookies
	}

	content, err := os.ReadFile(path)
	if err != nil {
		logger.WithField("cookie_file", path).Warn("cookie file could not be read, continuing anonymously")
		return cookies
	}

	for _, line := range strings.Split(string(content), "\n") {
		if !ytCookieLine.MatchString(line) {
			continue
		}

		// Netscape format: domain, flag, path, secure, expiry, name, value
		parts := whitespace.Split(line, -1)
		if len(parts) < 6 {
			continue
		}

		value := ""
		if len(parts) >= 7 {
			value = parts[6]
		}
		cookies[parts[5]] = value
	}

	return cookies
}

// initConsent upgrades a pending CONSENT cookie to an accepted one,
// reusing the pending consent id when present.
func initConsent(userConsent string) string {
	if strings.Contains(userConsent, "YES") {
		return userConsent
	}

	if m := consentPending.FindStringSubmatch(userConsent); m != nil {
		return "YES+" + m[1]
	}

	return fmt.Sprintf("YES+%d", 100+rand.Intn(900))
}

// InitializeCookies builds the cookie set used for every request from
// the cookies loaded off disk. SAPISID and __Secure-3PAPISID mirror
// each other when only one is present.
func InitializeCookies(loaded map[string]string) map[string]string {
	cookies := make(map[string]string)

	cookies["PREF"] = url.Values{"hl": {"en"}, "tz": {"UTC"}}.Encode()

	if psid, ok := loaded["__Secure-3PSID"]; ok {
		cookies["__Secure-3PSID"] = psid
	}

	cookies["CONSENT"] = initConsent(loaded["CONSENT"])

	sapisid := loaded["SAPISID"]
	threePAPISID := loaded["__Secure-3PAPISID"]

	if sapisid == "" && threePAPISID != "" {
		sapisid = threePAPISID
	}
	if threePAPISID == "" && sapisid != "" {
		threePAPISID = sapisid
	}

	if sapisid != "" {
		cookies["SAPISID"] = sapisid
	}
	if threePAPISID != "" {
		cookies["__Secure-3PAPISID"] = threePAPISID
	}

	return cookies
}
