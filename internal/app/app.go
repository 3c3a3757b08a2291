// Package app wires the application together.
package app

import (
	"time"

	"video-extractor-go/pkg/appctx"
	"video-extractor-go/pkg/config"
	"video-extractor-go/pkg/extractors"
	"video-extractor-go/pkg/handlers/api"
	"video-extractor-go/pkg/httpclient"
	"video-extractor-go/pkg/logging"
	"video-extractor-go/pkg/registry"
	"video-extractor-go/pkg/server"
	"video-extractor-go/pkg/services"
)

// App is the assembled application.
type App struct {
	cfg    *config.Config
	log    *logging.Logger
	server *server.Server
}

// New loads configuration and builds the full dependency graph.
func New() (*App, error) {
	cfg := config.Load()

	log := logging.New(cfg.LogLevel, cfg.LogJSON, nil)

	client := httpclient.New(httpclient.Settings{
		FetchTimeout: cfg.FetchTimeout,
		UserAgent:    cfg.UserAgent,
		GlobalProxy:  cfg.GlobalProxy,
		UTLSDomains:  cfg.UTLSDomains,
		MaxRedirects: cfg.MaxRedirects,
	}, log)

	reg := registry.New()
	registerExtractors(reg, client, log)

	generic := extractors.NewGenericExtractor(client, log)
	extract := services.NewExtractService(client, reg, generic, log)
	proxy := services.NewProxyService(client, log)

	srv := server.New(cfg, log)

	handler := api.New(&appctx.Context{
		Config:    cfg,
		Log:       log,
		Extract:   extract,
		Proxy:     proxy,
		Registry:  reg,
		StartedAt: time.Now(),
	})
	handler.RegisterRoutes(srv.Router())

	log.Info("application initialized",
		"extractors", len(reg.Names()),
		"port", cfg.Port,
		"base_url", cfg.BaseURL,
	)

	return &App{cfg: cfg, log: log, server: srv}, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	return a.server.Start()
}

// registerExtractors registers every host extractor. Order matters:
// detection walks this list and the first match wins.
func registerExtractors(reg *registry.Registry, client *httpclient.Client, log *logging.Logger) {
	reg.Register(extractors.NewVKExtractor(client, log))
	reg.Register(extractors.NewOKRuExtractor(client, log))
	reg.Register(extractors.NewSibnetExtractor(client, log))
	reg.Register(extractors.NewStreamwishExtractor(client, log))
	reg.Register(extractors.NewMP4UploadExtractor(client, log))
	reg.Register(extractors.NewUqloadExtractor(client, log))
	reg.Register(extractors.NewVidbomExtractor(client, log))
	reg.Register(extractors.NewDoodExtractor(client, log))
	reg.Register(extractors.NewStreamtapeExtractor(client, log))
	reg.Register(extractors.NewGoVideoExtractor(client, log))
	reg.Register(extractors.NewMixdropExtractor(client, log))
	reg.Register(extractors.NewFilemoonExtractor(client, log))
	reg.Register(extractors.NewUpstreamExtractor(client, log))
	reg.Register(extractors.NewSendvidExtractor(client, log))
	reg.Register(extractors.NewMyviExtractor(client, log))
	reg.Register(extractors.NewMegamaxExtractor(client, log))
	reg.Register(extractors.NewDailymotionExtractor(client, log))
	reg.Register(extractors.NewVidmolyExtractor(client, log))
	reg.Register(extractors.NewYourUploadExtractor(client, log))
	reg.Register(extractors.NewVidhideExtractor(client, log))
	reg.Register(extractors.NewJWPlayerExtractor(client, log))
}
