// Package di provides dependency injection configuration for pdf-explainer.
package di

import (
	"github.com/samber/do/v2"
	"github.com/sirupsen/logrus"

	"github.com/thywilljoshua/pdf-explainer/internal/config"
	"github.com/thywilljoshua/pdf-explainer/internal/di/providers"
	"github.com/thywilljoshua/pdf-explainer/internal/pipeline"
)

// NewContainer creates the DI container for cfg. Services are built lazily,
// so commands that only need the extractor never construct API clients.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideStore)

	// Pipeline collaborators
	do.Provide(injector, providers.ProvideExtractor)
	do.Provide(injector, providers.ProvideExplainer)
	do.Provide(injector, providers.ProvideSynthesizer)
	do.Provide(injector, providers.ProvideProber)
	do.Provide(injector, providers.ProvideComposer)
	do.Provide(injector, providers.ProvidePipeline)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap builds the full service graph so misconfiguration fails at startup
// instead of on the first upload.
func Bootstrap(injector do.Injector) error {
	if _, err := do.Invoke[*logrus.Logger](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*pipeline.Service](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}
	return nil
}
