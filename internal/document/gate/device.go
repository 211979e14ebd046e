package gate

import (
	"strings"

	"github.com/mssola/useragent"
)

// DescribeUserAgent turns a User-Agent header into a short label such as
// "Chrome on Windows" or "Safari on iPhone". Empty input yields "".
func DescribeUserAgent(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	os := ua.OS()

	if ua.Mobile() {
		if platform := ua.Platform(); platform != "" {
			return strings.TrimSpace(orDefault(browser, "Unknown browser") + " on " + platform)
		}
	}
	return strings.TrimSpace(orDefault(browser, "Unknown browser") + " on " + orDefault(os, "unknown OS"))
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
