// Package interfaces defines the core abstractions for the extraction
// pipeline. All host extractors implement HostExtractor, making the
// system easy to extend with new hosting platforms.
package interfaces

import (
	"context"

	"video-extractor-go/pkg/types"
)

// HostExtractor locates media sources in a hosting platform's pages.
//
// To add a new host:
// 1. Create a new file in pkg/extractors/
// 2. Implement this interface
// 3. Register it in internal/app (registration order matters)
type HostExtractor interface {
	// Name returns a unique identifier for this host.
	Name() string

	// Match returns true if this extractor handles the given page URL.
	Match(url string) bool

	// Referer returns the referer to present when requesting media from
	// this host, or "" when the target's own origin suffices.
	Referer() string

	// Extract scans the combined page text (raw HTML plus any unpacked
	// scripts) for media sources. It never fails: a parse miss yields an
	// empty result. ctx covers any secondary network round-trips.
	Extract(ctx context.Context, pageURL, combined, referer string) []types.MediaSource
}
