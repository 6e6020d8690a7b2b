package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"github.com/andhikadk/smi-test/config"
	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	openAPIPath     = "/swagger/openapi.json"
	shutdownTimeout = 5 * time.Second
)

// Run serves router on cfg.HTTP.Address and blocks until ctx is canceled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, router *gin.Engine) error {
	srv := newServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("[http] listening on %s", cfg.HTTP.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newServer(cfg *config.Config, router *gin.Engine) *http.Server {
	MountDocs(router, cfg.HTTP.SwaggerDir)
	return &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// MountDocs serves the static OpenAPI document and a swagger UI pointing at it.
func MountDocs(router *gin.Engine, swaggerDir string) {
	if swaggerDir == "" {
		return
	}
	router.StaticFile(openAPIPath, filepath.Join(swaggerDir, "openapi.json"))
	router.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(openAPIPath))))
}
