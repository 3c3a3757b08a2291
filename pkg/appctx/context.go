// Package appctx carries the application's shared dependencies to the
// HTTP handlers.
package appctx

import (
	"time"

	"video-extractor-go/pkg/config"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/registry"
	"video-extractor-go/pkg/services"
)

// Context bundles everything the handlers need.
type Context struct {
	Config    *config.Config
	Log       *logging.Logger
	Extract   *services.ExtractService
	Proxy     *services.ProxyService
	Registry  *registry.Registry
	StartedAt time.Time
}
