package browser

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"sort"
	"strings"
)

// pages maps storefront page names to their paths on the web site.
var pages = map[string]string{
	"home":       "/",
	"products":   "/products",
	"investment": "/investment",
	"notice":     "/notice",
	"magazine":   "/magazine",
	"mypage":     "/mypage",
	"login":      "/login",
	"register":   "/register",
}

// Pages returns the known page names in sorted order.
func Pages() []string {
	names := make([]string, 0, len(pages))
	for name := range pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PageURL resolves a page name against the storefront base URL.
// An empty name means the home page.
func PageURL(webURL, page string) (string, error) {
	if page == "" {
		page = "home"
	}
	path, ok := pages[strings.ToLower(page)]
	if !ok {
		return "", fmt.Errorf("unknown page %q (one of: %s)", page, strings.Join(Pages(), ", "))
	}
	base, err := url.Parse(strings.TrimRight(webURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid web URL %q", webURL)
	}
	return base.JoinPath(path).String(), nil
}

// Open opens the specified URL in the user's default browser.
func Open(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "linux":
		return exec.Command("xdg-open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}
