package scrape

import (
	"net/http"
	"strings"
)

// BlockType describes the kind of block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockJSShell    BlockType = "js_shell"
	BlockDenied     BlockType = "access_denied"
)

// shortPage bounds the marker checks. Long pages mention these words in
// ordinary copy and embed captcha widgets in inquiry forms.
const shortPage = 10000

var challengeMarkers = []string{
	"checking your browser",
	"enable javascript",
	"please enable cookies",
	"access denied",
	"403 forbidden",
	"just a moment",
	"attention required",
}

// DetectBlock checks an HTTP response for signs of anti-bot protection.
func DetectBlock(resp *http.Response, body []byte) (bool, BlockType) {
	if resp == nil {
		return false, BlockNone
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusServiceUnavailable {
		if resp.Header.Get("cf-ray") != "" || resp.Header.Get("cf-cache-status") != "" ||
			resp.Header.Get("server") == "cloudflare" {
			return true, BlockCloudflare
		}
	}

	return DetectBlockContent(string(body))
}

// DetectBlockContent classifies page content alone. Proxy fetchers use it
// since they do not expose the origin's headers.
func DetectBlockContent(content string) (bool, BlockType) {
	lower := strings.ToLower(content)

	if strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge") {
		return true, BlockCloudflare
	}

	if len(content) < shortPage && strings.Contains(lower, "captcha") {
		return true, BlockCaptcha
	}

	if len(content) < 2000 {
		if strings.Contains(lower, "<noscript") && strings.Contains(lower, "javascript") {
			return true, BlockJSShell
		}
		if strings.Contains(lower, `meta http-equiv="refresh"`) {
			return true, BlockJSShell
		}
	}
	if len(content) < shortPage {
		for _, m := range challengeMarkers {
			if strings.Contains(lower, m) {
				return true, BlockDenied
			}
		}
	}

	return false, BlockNone
}
