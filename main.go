package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/storyflow/gateway/internal/database"
	"github.com/storyflow/gateway/internal/logging"
	"github.com/storyflow/gateway/internal/models"
	"github.com/storyflow/gateway/internal/registry"
	"github.com/storyflow/gateway/internal/subservice"

	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/danielgtaylor/huma/v2/humacli"

	huma "github.com/danielgtaylor/huma/v2"
)

// Build information, set with -ldflags "-X main.version=... -X main.gitCommit=...".
var (
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "1970-01-01T00:00:00Z"
)

func main() {
	// Environment from .env, if there is one. Real env vars take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Unable to read .env file: %v\n", err)
	}

	var api huma.API
	var logger zerolog.Logger
	var opts *models.Options

	// Create a CLI app
	cli := humacli.New(func(hooks humacli.Hooks, options *models.Options) {
		opts = options
		logger = logging.New(os.Stderr, options.Debug)
		logger.Debug().
			Str("host", options.Host).
			Int("port", options.Port).
			Int("timeout", options.Timeout).
			Str("registry_source", options.RegistrySource).
			Msg("options parsed")

		reg, err := buildRegistry(context.Background(), options, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("unable to build service registry")
		}

		var router *http.ServeMux
		api, router, err = newAPI(reg, options, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("unable to set up API")
		}

		server := &http.Server{
			Addr:              fmt.Sprintf("%s:%d", options.Host, options.Port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Start server
		hooks.OnStart(func() {
			for _, r := range reg.Routes() {
				logger.Info().Str("model", string(r.Model)).Str("url", r.URL).Msg("route")
			}
			logger.Info().Str("addr", server.Addr).Msg("starting gateway")
			err := server.ListenAndServe()
			if err != nil && err != http.ErrServerClosed {
				logger.Error().Err(err).Msg("listen error")
			} else {
				logger.Info().Msg("gateway stopped")
			}
		})

		// Gracefully shutdown server
		hooks.OnStop(func() {
			logger.Info().Str("addr", server.Addr).Msg("shutting down gateway")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				logger.Error().Err(err).Msg("shutdown error")
			}
		})
	})

	cli.Root().Use = "gateway"
	cli.Root().Short = "Routes generate requests to the StoryFlow model subservices"

	cli.Root().AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gateway %s (commit %s, built %s, %s %s/%s)\n",
				version, gitCommit, buildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	})

	cli.Root().AddCommand(&cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document of the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := api.OpenAPI().YAML()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return nil
		},
	})

	cli.Root().AddCommand(stubCommand(&logger))
	cli.Root().AddCommand(migrateCommand(&opts))

	// Run the CLI. When passed no commands, it starts the server.
	cli.Run()
}

// stubCommand runs one stub subservice, so the pipeline can be exercised
// without any model installed.
func stubCommand(logger *zerolog.Logger) *cobra.Command {
	var model string
	var port int

	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a stub subservice for one model",
		RunE: func(cmd *cobra.Command, args []string) error {
			id := registry.ModelID(model)
			if port == 0 {
				port = stubPort(id)
			}

			config := huma.DefaultConfig(fmt.Sprintf("StoryFlow %s subservice (stub)", id), version)
			router := http.NewServeMux()
			api := humago.New(router, config)

			h := subservice.NewHandle(func(ctx context.Context) (subservice.Generator, error) {
				return subservice.NewStub(id)
			})
			if err := subservice.Register(api, id, h, *logger); err != nil {
				return err
			}

			server := &http.Server{
				Addr:              fmt.Sprintf("0.0.0.0:%d", port),
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = server.Shutdown(shutdownCtx)
			}()

			logger.Info().Str("model", model).Str("addr", server.Addr).Msg("starting stub subservice")
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&model, "model", string(registry.TTI), "Model to serve: llm, tti, tta or itv")
	cmd.Flags().IntVar(&port, "stub-port", 0, "Port to listen on (default: the port of the model's default route)")
	return cmd
}

// migrateCommand brings the routing table schema of the configured database
// to a version and prints where it stands.
func migrateCommand(options **models.Options) *cobra.Command {
	var to int32

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the subservices table and print the schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			if *options == nil {
				return errors.New("options not parsed")
			}
			status, err := database.RunMigrations(cmd.Context(), database.ConnString(*options), to)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), status.String())
			return nil
		},
	}
	cmd.Flags().Int32Var(&to, "to", -1, "Schema version to migrate to; 0 undoes all migrations, -1 is the latest")
	return cmd
}

// stubPort returns the port of the model's built-in route.
func stubPort(id registry.ModelID) int {
	u, err := url.Parse(registry.DefaultRoutes()[id])
	if err != nil {
		return 8000
	}
	p, err := strconv.Atoi(u.Port())
	if err != nil {
		return 8000
	}
	return p
}
