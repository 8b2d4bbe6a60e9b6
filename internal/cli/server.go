package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"decodex/internal/app"
	"decodex/internal/config"
	transport "decodex/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	var seedPath string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, seedPath)
		},
	}
	cmd.Flags().StringVar(&seedPath, "seed", "", "YAML question pack to load at startup")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag, seedPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	opTimeout := config.TTLDuration(cfg.Engine.OpTimeout, app.DefaultOpTimeout)
	auth, err := app.NewAuthenticator(app.AuthConfig{
		Secret:            cfg.Auth.JWTSecret,
		TokenTTL:          config.TTLDuration(cfg.Auth.TokenTTL, app.DefaultTokenTTL),
		AdminUser:         cfg.Auth.AdminUser,
		AdminPasswordHash: cfg.Auth.AdminPasswordHash,
	})
	if err != nil {
		return err
	}

	hub := app.NewHub()
	scoreboard := app.NewScoreboard(st.teams, hub, logger)
	engine := app.NewEngine(st.catalog, st.teams, st.settings, app.EngineConfig{
		Bonus:      app.NewTieredBonus(cfg.Engine.CompletionBonus),
		OpTimeout:  opTimeout,
		Scoreboard: scoreboard,
		Logger:     logger,
	})
	catalog := app.NewCatalogService(st.questions, st.catalog, st.teams, logger, opTimeout)

	if seedPath != "" {
		pack, err := loadPack(seedPath)
		if err != nil {
			return err
		}
		if _, err := seedCatalog(ctx, catalog, pack, logger); err != nil {
			return err
		}
		logger.Info("question pack loaded", "file", seedPath, "questions", len(pack.Questions))
	}

	handlers := transport.NewHandlers(transport.Deps{
		Engine:        engine,
		Catalog:       catalog,
		Teams:         app.NewTeamService(st.teams, auth, logger, opTimeout),
		Settings:      app.NewSettingsService(st.settings, hub, logger, opTimeout),
		Announcements: app.NewAnnouncementService(st.announcements, hub, logger, opTimeout),
		Scoreboard:    scoreboard,
		Auth:          auth,
		Hub:           hub,
		Logger:        logger,
		CORSOrigins:   cfg.Server.CORSOrigins,
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handlers.Routes(),
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		logger.Info("starting decodex", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to start server", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server...")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
