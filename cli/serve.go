package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/itish2003/voicerag/config"
	"github.com/itish2003/voicerag/controller"
	"github.com/itish2003/voicerag/logger"
	"github.com/itish2003/voicerag/services"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API:
  GET  /health
  POST /api/v1/ingest      {"source_url": "...", "page_limit": 10}
  POST /api/v1/query       {"query": "...", "voice": "nova", "k": 3}
  GET  /api/v1/audio/:id   download a rendered answer (served once)
  GET  /api/v1/stats       number of indexed points`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := logger.For("SERVER")

	a, err := buildApp(ctx, cfg, config.CredentialsFromEnv())
	if err != nil {
		return err
	}
	defer a.Close()

	// Probe the embedding model and create the collection up front so a bad
	// configuration fails at startup rather than on the first request.
	if err := a.indexer.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("failed to prepare collection %q: %w", cfg.VectorStore.Collection, err)
	}

	sweepInterval := cfg.Speech.ArtifactTTL / 2
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	a.files.StartSweeper(ctx, sweepInterval, cfg.Speech.ArtifactTTL, func(n int, err error) {
		if err != nil {
			log.Warn("artifact sweep failed", "error", err)
		} else if n > 0 {
			log.Info("expired audio artifacts removed", "count", n)
		}
	})

	// Log level changes in the config file apply without a restart.
	if _, err := os.Stat(cfgFile); err == nil && !verbose {
		err := config.Watch(ctx, cfgFile, func(next config.Config, err error) {
			if err != nil {
				log.Warn("ignoring invalid config change", "path", cfgFile, "error", err)
				return
			}
			logger.SetLevel(next.Logging.Level)
			log.Info("config reloaded", "log_level", next.Logging.Level)
		})
		if err != nil {
			log.Warn("config file will not be watched", "error", err)
		}
	}

	port := cfg.Server.Port
	if servePort != "" {
		port = servePort
	}
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           newRouter(a.rag, a.files),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", "http://localhost:"+port, "health", "/health")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newRouter(rag services.RAGService, files *services.FileActions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(), cors())

	router.GET("/health", func(c *gin.Context) {
		points, err := rag.TotalPoints(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "degraded",
				"service": "voicerag",
				"version": Version,
				"error":   err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "voicerag",
			"version": Version,
			"points":  points,
		})
	})

	controller.NewRAGController(rag, files).Register(router)
	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func requestLogger() gin.HandlerFunc {
	log := logger.For("HTTP")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
