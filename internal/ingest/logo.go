package ingest

import (
	"net/url"

	"github.com/hitoshi/rssreader/internal/model"
)

// ResolveLogo はフィードのロゴURLを決定する。
// フィード文書内のロゴ（RSSのimage / Atomのlogo）を優先し、
// 存在しない場合はフィードURLのホストから /favicon.ico を推測する。
// どちらも得られない場合は空文字列を返す。
func ResolveLogo(parsed *model.ParsedFeed, feedURL string) string {
	if parsed != nil && parsed.LogoURL != "" {
		return parsed.LogoURL
	}
	return guessDefaultFaviconURL(feedURL)
}

// guessDefaultFaviconURL はURLのホストからデフォルトのfavicon URLを推測する。
func guessDefaultFaviconURL(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	// パスを/favicon.icoに設定
	u.Path = "/favicon.ico"
	u.RawQuery = ""
	u.Fragment = ""

	return u.String()
}
