package service

import (
	"strings"

	"github.com/mssola/useragent"
)

// deviceLabel condenses a raw User-Agent header into a short human-readable
// label ("Chrome on Linux") stored with each session token so users can
// recognize their own sessions.
func deviceLabel(rawUA string) string {
	if rawUA == "" {
		return "unknown"
	}

	ua := useragent.New(rawUA)
	if ua.Bot() {
		return "bot"
	}

	browser, _ := ua.Browser()
	os := ua.OSInfo().Name

	switch {
	case browser != "" && os != "":
		return browser + " on " + os
	case browser != "":
		return browser
	case os != "":
		return os
	default:
		if label := strings.TrimSpace(rawUA); len(label) <= 40 {
			return label
		}
		return "unknown"
	}
}
