package di

import (
	svccache "EMAScan/internal/service/cache"
	"EMAScan/internal/service/scanner"
	"EMAScan/internal/usecase"
	applogger "EMAScan/pkg/logger"
)

// Client bundles the components used by one-shot CLI commands.
type Client struct {
	Log      *applogger.Logger
	Scanner  *scanner.Client
	Cache    *svccache.ResultCache
	Pipeline *usecase.ResultPipeline
	Ingestor *usecase.StreamIngestor
}
