package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	chromeOnWindows = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	safariOnMac     = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"
	firefoxOnLinux  = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	chromeOnAndroid = "Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36"
	safariOnIPad    = "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15"
)

func TestBrowserFromUserAgent(t *testing.T) {
	// Chrome UAs also contain "Safari"; Chrome has to win.
	assert.Equal(t, "Chrome", BrowserFromUserAgent(chromeOnWindows))
	assert.Equal(t, "Safari", BrowserFromUserAgent(safariOnMac))
	assert.Equal(t, "Firefox", BrowserFromUserAgent(firefoxOnLinux))
	assert.Equal(t, "Unknown", BrowserFromUserAgent("curl/8.4.0"))
	assert.Equal(t, "Unknown", BrowserFromUserAgent(""))
}

func TestOSFromUserAgent(t *testing.T) {
	assert.Equal(t, "Windows 10/11", OSFromUserAgent(chromeOnWindows))
	assert.Equal(t, "Windows", OSFromUserAgent("Mozilla/5.0 (Windows NT 6.1)"))
	assert.Equal(t, "macOS", OSFromUserAgent(safariOnMac))
	assert.Equal(t, "Linux", OSFromUserAgent(firefoxOnLinux))
	// Android UAs contain "Linux", and Linux is checked first. This
	// classification is deliberate and must stay stable.
	assert.Equal(t, "Linux", OSFromUserAgent(chromeOnAndroid))
	// Apple tablet UAs say "like Mac OS X", so they land on macOS.
	assert.Equal(t, "macOS", OSFromUserAgent(safariOnIPad))
	assert.Equal(t, "iOS", OSFromUserAgent("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)"))
	assert.Equal(t, "Unknown", OSFromUserAgent("curl/8.4.0"))
}

func TestDeviceTypeFromUserAgent(t *testing.T) {
	assert.Equal(t, "Desktop", DeviceTypeFromUserAgent(chromeOnWindows))
	assert.Equal(t, "Mobile", DeviceTypeFromUserAgent(chromeOnAndroid))
	assert.Equal(t, "Tablet", DeviceTypeFromUserAgent(safariOnIPad))
	assert.Equal(t, "Desktop", DeviceTypeFromUserAgent(""))
}
