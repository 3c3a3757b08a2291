package extractors

import (
	"context"
	"regexp"
	"strings"

	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/types"
)

// PackedHostExtractor covers hosts that ship their player setup inside
// a packed script. It contributes no patterns of its own: once the
// orchestrator unpacks the page scripts, the generic extractor finds
// the file/sources assignments. Registering the host still pins its
// name and referer for detection and proxying.
type PackedHostExtractor struct {
	*BaseExtractor
	name    string
	re      *regexp.Regexp
	referer string
}

func newPackedHostExtractor(client *httpclient.Client, log *logging.Logger, name, pattern, referer string) *PackedHostExtractor {
	return &PackedHostExtractor{
		BaseExtractor: NewBaseExtractor(client, log),
		name:          name,
		re:            regexp.MustCompile(pattern),
		referer:       referer,
	}
}

// Name returns the extractor name.
func (e *PackedHostExtractor) Name() string {
	return e.name
}

// Match returns true when the URL matches the host's domain pattern.
func (e *PackedHostExtractor) Match(url string) bool {
	return e.re.MatchString(strings.ToLower(url))
}

// Referer returns the referer this host's CDN expects.
func (e *PackedHostExtractor) Referer() string {
	return e.referer
}

// Extract yields nothing; the generic pass over the unpacked scripts
// finds this host's sources.
func (e *PackedHostExtractor) Extract(ctx context.Context, pageURL, combined, referer string) []types.MediaSource {
	return nil
}

// NewStreamwishExtractor creates the Streamwish extractor, covering its
// many mirror domains.
func NewStreamwishExtractor(client *httpclient.Client, log *logging.Logger) *PackedHostExtractor {
	return newPackedHostExtractor(client, log, "streamwish",
		`streamwish|filelions|azcdn|asnow|dwish|kswplayer|playerwish|sfastwish|obeywish`,
		"https://streamwish.to/")
}

// NewVidbomExtractor creates the Vidbom extractor.
func NewVidbomExtractor(client *httpclient.Client, log *logging.Logger) *PackedHostExtractor {
	return newPackedHostExtractor(client, log, "vidbom",
		`vidbom|vidbam|vadbam|vidbm`, "")
}

// NewVidhideExtractor creates the Vidhide extractor.
func NewVidhideExtractor(client *httpclient.Client, log *logging.Logger) *PackedHostExtractor {
	return newPackedHostExtractor(client, log, "vidhide",
		`vidhide|vid-hide|niikaplayer|vidhidepro|vidhidevip`, "")
}

// NewGoVideoExtractor creates the GoVideo extractor.
func NewGoVideoExtractor(client *httpclient.Client, log *logging.Logger) *PackedHostExtractor {
	return newPackedHostExtractor(client, log, "govideo",
		`govideo|govad|egtpgrvh`, "")
}

// NewUpstreamExtractor creates the Upstream extractor.
func NewUpstreamExtractor(client *httpclient.Client, log *logging.Logger) *PackedHostExtractor {
	return newPackedHostExtractor(client, log, "upstream",
		`upstream\.to|upstrea\.me`, "https://upstream.to/")
}
