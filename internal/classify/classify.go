// Package classify decides whether a message's URL belongs to the supported
// set of origins. Matching is substring-based on purpose: it is a documented
// heuristic boundary, not a URL parser, and accepts the occasional false
// positive (an unrelated domain containing "x.com/") in exchange for handling
// shorteners and query-string forms the same way the extractors do.
package classify

import "strings"

// Marker is the opt-in prefix that forces an extraction attempt for an
// otherwise unlisted origin.
const Marker = "**"

// supportedOrigins are the allow-listed origin fragments.
var supportedOrigins = []string{
	"instagram.com/",
	"tiktok.com/",
	"reddit.com/",
	"x.com/",
	"youtube.com/shorts",
}

// storiesFragment identifies Instagram stories, which cannot be fetched
// without an authenticated session.
const storiesFragment = "instagram.com/stories/"

// Kind is the classification outcome for a message.
type Kind string

const (
	// KindSupported means the URL matches an allow-listed origin.
	KindSupported Kind = "supported"
	// KindOptIn means the opt-in marker forces an extraction attempt.
	KindOptIn Kind = "opt-in"
	// KindRequiresLogin means the origin needs an authenticated session.
	KindRequiresLogin Kind = "requires-login"
	// KindUnsupported means no origin matched and no marker was present.
	KindUnsupported Kind = "unsupported"
)

// Result is the outcome of classifying one message.
type Result struct {
	Kind Kind
	// URL is the marker-stripped URL, set for supported and opt-in results.
	URL string
}

// Classify inspects raw message text and decides how the pipeline should
// treat it. Pure string contract: no network or filesystem access.
func Classify(text string) Result {
	text = strings.TrimSpace(text)
	// Tolerate a space slipping in after the marker.
	text = strings.Replace(text, Marker+" ", Marker, 1)

	hasMarker := strings.HasPrefix(text, Marker)
	url := text
	if hasMarker {
		url = strings.TrimPrefix(text, Marker)
	}

	// Stories short-circuit everything else, marker included.
	if strings.Contains(url, storiesFragment) {
		return Result{Kind: KindRequiresLogin}
	}

	if hasMarker {
		return Result{Kind: KindOptIn, URL: url}
	}

	for _, origin := range supportedOrigins {
		if strings.Contains(url, origin) {
			return Result{Kind: KindSupported, URL: url}
		}
	}

	return Result{Kind: KindUnsupported}
}
