package providers

import (
	"context"
	"net/http"

	"github.com/samber/do/v2"
	"github.com/sirupsen/logrus"

	"github.com/thywilljoshua/pdf-explainer/internal/config"
	"github.com/thywilljoshua/pdf-explainer/internal/pipeline"
	"github.com/thywilljoshua/pdf-explainer/internal/server"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.ShutdownerWithError.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server. It is not started here.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logrus.Logger](i)
	svc := do.MustInvoke[*pipeline.Service](i)
	jobs := do.MustInvoke[*StoreHandle](i)

	handler := server.New(svc, jobs.Store, server.Options{
		UploadDir:      cfg.Storage.UploadDir,
		AudioDir:       cfg.Storage.AudioDir,
		VideoDir:       cfg.Storage.VideoDir,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
		ProcessTimeout: cfg.Server.ProcessTimeout,
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		DefaultPrompt:  cfg.LLM.DefaultPrompt,
	}, log)

	return &HTTPServerHandle{Server: &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}}, nil
}
