package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"media-store/core/database"
	"media-store/core/loader"
	"media-store/core/logger"
	"media-store/core/middleware/auth"
	"media-store/core/middleware/rayid"

	"media-store/feature/library"
	featuremedia "media-store/feature/media"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "media-store/docs/swagger"
)

// @title Media Store API
// @version 1.0
// @description Reference-counted media storage on S3-compatible object stores.
// @host localhost:8080
// @BasePath /

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the media store server",
	Long:  `Starts the HTTP server and initializes all enabled features.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap(cmd.Context())
		if err != nil {
			return err
		}
		logg := a.logger
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// The library feature is only enabled with a database.
		var db *gorm.DB
		if conn, err := database.Connect(a.cfg.Database); err != nil {
			logg.Warn("Optional database connection failed, library disabled", zap.Error(err))
		} else {
			db = conn
			logg.Info("Connected to library database", zap.String("driver", a.cfg.Database.Driver))
		}

		app := fiber.New(fiber.Config{
			DisableStartupMessage: true,
			Immutable:             true,
			BodyLimit:             a.cfg.Server.BodyLimit(),
		})

		mgr := loader.NewManager()
		mgr.Register(featuremedia.NewFeature(a.provider, logg))
		mgr.Register(library.NewFeature(a.provider, db, logg))

		// RayID must come first so every log line carries it.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Get("/swagger/*", swagger.HandlerDefault)

		app.Use(auth.New(auth.Config{ApiKey: a.cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			return err
		}

		errCh := make(chan error, 1)
		go func() {
			logg.Info("Starting server",
				zap.String("port", a.cfg.Server.Port),
				zap.Strings("features", mgr.Enabled()),
				zap.String("storage_driver", a.cfg.Storage.Driver))
			errCh <- app.Listen(":" + a.cfg.Server.Port)
		}()

		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			return err
		case <-quit:
		}
		logg.Info("Shutting down server...")
		return app.Shutdown()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
