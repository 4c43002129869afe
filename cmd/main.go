package main

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"

	"segredex/internal/config"
	"segredex/internal/handlers"
	"segredex/internal/services"
	"segredex/internal/store"
)

//go:embed all:templates
var templateFS embed.FS

//go:embed all:assets
var assetsFS embed.FS

func main() {
	// 1. Load configuration
	if err := config.LoadDotEnv(); err != nil {
		logger.Fatalf("Failed to load .env: %v", err)
	}
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		logger.Fatalf("Error parsing flags: %v", err)
	}

	defer logger.Init("segredex", cfg.Verbose, false, io.Discard).Close()

	// 2. Open the session store
	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("Failed to open session store: %v", err)
	}
	defer st.Close()

	// 3. Initialize the Draw Service
	drawService := services.NewDrawService(st, services.WithTimeout(cfg.DrawTimeout))

	// 4. Load HTML templates from the embedded filesystem.
	templates, err := parseTemplates()
	if err != nil {
		logger.Fatalf("Failed to parse templates: %v", err)
	}

	// 5. Initialize the HTTP Handler
	httpHandler := handlers.NewHTTPHandler(drawService, templates, cfg.BaseURL)

	// 6. Set up the Gin router
	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	// 7. Serve static files from the embedded filesystem.
	assetsSubFS, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		logger.Fatalf("Failed to create assets sub-filesystem: %v", err)
	}
	r.StaticFS("/assets", http.FS(assetsSubFS))

	// 8. Register public routes (before middleware)
	httpHandler.RegisterPublicRoutes(r)

	// 9. Group routes that require a browser session and apply middleware
	tenantRoutes := r.Group("/")
	tenantRoutes.Use(httpHandler.TenantMiddleware())
	httpHandler.RegisterTenantRoutes(tenantRoutes)

	// 10. Start the background janitor to clean up inactive sessions
	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go runJanitor(janitorCtx, drawService, cfg.SessionTTL)

	// 11. Run the server until interrupted
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown: %v", err)
		}
	}()

	logger.Infof("Server starting on http://localhost:%d (store: %s)", cfg.Port, cfg.StoreType)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("Failed to run server: %v", err)
		return
	}
	logger.Info("Server closed")
}

func openStore(ctx context.Context, cfg config.Config) (store.Store, error) {
	switch cfg.StoreType {
	case config.StoreSQLite, config.StorePostgres:
		return store.OpenSQLStore(ctx, cfg.StoreType, cfg.DatabaseURL)
	default:
		return store.NewMemoryStore(), nil
	}
}

func parseTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// runJanitor sweeps idle session artifacts every ten minutes.
func runJanitor(ctx context.Context, svc *services.DrawService, ttl time.Duration) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.CleanUpInactiveSessions(ctx, ttl); err != nil {
				logger.Errorf("Session cleanup failed: %v", err)
				continue
			}
			logger.V(1).Info("Performed cleanup of inactive sessions.")
		}
	}
}
