package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/posterize/internal/server"
	"github.com/MeKo-Tech/posterize/internal/wheel"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve rendering and color picking over HTTP",
	Long: `Serve exposes:
  GET  /healthz      liveness probe
  GET  /status       render counters (JSON)
  POST /render       posterize the uploaded image (?breaks=&colors=&preset=&format=&grain=&max_width=&max_height=)
  GET  /wheel.png    the color wheel (?size=)
  GET  /wheel/pick   pick a color on the wheel (?x=&y=&value=&hex=&size=)
  GET  /presets      saved presets (JSON)`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "127.0.0.1:8080", "Listen address (host:port)")
	serveCmd.Flags().Int("max-concurrent-renders", runtime.NumCPU(), "Max concurrent renders")
	serveCmd.Flags().Duration("render-timeout", time.Minute, "How long a request waits for a render slot")
	serveCmd.Flags().Int64("max-upload-bytes", server.DefaultMaxUploadBytes, "Largest accepted upload")
	serveCmd.Flags().Int("wheel-size", wheel.DefaultSize, "Default color wheel size")
	serveCmd.Flags().String("cache-control", "no-store", "Cache-Control header for rendered images")
	serveCmd.Flags().Float64("grain", 0, "Default paper grain strength")
	serveCmd.Flags().Int64("seed", 1337, "Seed for the paper grain noise")
	serveCmd.Flags().Bool("presets", true, "Open the preset database for ?preset= lookups")

	bindCommandFlags(serveCmd, "serve",
		"addr", "max-concurrent-renders", "render-timeout", "max-upload-bytes",
		"wheel-size", "cache-control", "grain", "seed", "presets")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := viper.GetString("serve.addr")
	cfg := server.Config{
		MaxUploadBytes: viper.GetInt64("serve.max_upload_bytes"),
		MaxConcurrent:  viper.GetInt("serve.max_concurrent_renders"),
		RenderTimeout:  viper.GetDuration("serve.render_timeout"),
		WheelSize:      viper.GetInt("serve.wheel_size"),
		CacheControl:   viper.GetString("serve.cache_control"),
		Grain:          viper.GetFloat64("serve.grain"),
		Seed:           viper.GetInt64("serve.seed"),
	}

	var lookup server.PresetLookup
	if viper.GetBool("serve.presets") {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		lookup = store
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(cfg, lookup, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"addr", addr,
			"max_concurrent_renders", cfg.MaxConcurrent,
			"presets", lookup != nil,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
