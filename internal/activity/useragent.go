package activity

import "strings"

// User-agent classification is heuristic, ordered first-match-wins. The
// ordering matters: Chrome user agents also contain "Safari", so Chrome is
// checked first, and Safari only matches when Chrome is absent.

func BrowserFromUserAgent(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Chrome"):
		return "Chrome"
	case strings.Contains(userAgent, "Firefox"):
		return "Firefox"
	case strings.Contains(userAgent, "Safari"):
		return "Safari"
	case strings.Contains(userAgent, "Edge"):
		return "Edge"
	case strings.Contains(userAgent, "Opera"), strings.Contains(userAgent, "OPR"):
		return "Opera"
	default:
		return "Unknown"
	}
}

func OSFromUserAgent(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Windows NT 10"):
		return "Windows 10/11"
	case strings.Contains(userAgent, "Windows NT"):
		return "Windows"
	case strings.Contains(userAgent, "Mac OS X"), strings.Contains(userAgent, "macOS"):
		return "macOS"
	case strings.Contains(userAgent, "Linux"):
		return "Linux"
	case strings.Contains(userAgent, "Android"):
		return "Android"
	case strings.Contains(userAgent, "iOS"), strings.Contains(userAgent, "iPhone"), strings.Contains(userAgent, "iPad"):
		return "iOS"
	default:
		return "Unknown"
	}
}

func DeviceTypeFromUserAgent(userAgent string) string {
	switch {
	case strings.Contains(userAgent, "Mobile"), strings.Contains(userAgent, "Android"), strings.Contains(userAgent, "iPhone"):
		return "Mobile"
	case strings.Contains(userAgent, "Tablet"), strings.Contains(userAgent, "iPad"):
		return "Tablet"
	default:
		return "Desktop"
	}
}
