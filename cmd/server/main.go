package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/estatehub/backoffice/internal/app"
	"github.com/estatehub/backoffice/internal/config"
	"github.com/estatehub/backoffice/internal/logging"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const usage = `usage: server [command] [flags]

commands:
  serve         run the HTTP server (default)
  migrate       apply database migrations and exit
  create-admin  provision an administrator account
`

func main() {
	command := "serve"
	args := os.Args[1:]
	if len(args) > 0 && len(args[0]) > 0 && args[0][0] != '-' {
		command, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet(command, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	configPath := fs.String("config", "", "path to config.yaml (defaults to CONFIG_PATH)")
	envFile := fs.String("env-file", ".env", "dotenv file loaded before configuration")

	var params app.CreateAdminParams
	if command == "create-admin" {
		fs.StringVar(&params.Username, "username", "", "admin username")
		fs.StringVar(&params.Email, "email", "", "admin email")
		fs.StringVar(&params.Password, "password", "", "admin password")
		fs.StringVar(&params.Role, "role", "admin", "admin role (admin or super-admin)")
	}
	_ = fs.Parse(args)

	config.LoadDotEnv(*envFile)
	cfg, errLoad := config.Load(config.ResolveConfigPath(*configPath))
	if errLoad != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", errLoad)
		os.Exit(1)
	}
	closer, errLog := logging.Setup(cfg.Log)
	if errLog != nil {
		fmt.Fprintf(os.Stderr, "setup logging: %v\n", errLog)
		os.Exit(1)
	}
	defer func(c io.Closer) { _ = c.Close() }(closer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if errRun := run(ctx, command, cfg, params); errRun != nil {
		log.WithError(errRun).Errorf("%s failed", command)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, cfg *config.Config, params app.CreateAdminParams) error {
	switch command {
	case "serve":
		if cfg.Log.Level != "debug" {
			gin.SetMode(gin.ReleaseMode)
		}
		return app.RunServer(ctx, cfg)
	case "migrate":
		if errMigrate := app.Migrate(ctx, cfg); errMigrate != nil {
			return errMigrate
		}
		log.Info("migrations applied")
		return nil
	case "create-admin":
		view, errCreate := app.CreateAdmin(ctx, cfg, params)
		if errCreate != nil {
			return errCreate
		}
		log.WithFields(log.Fields{
			"id":       view.ID,
			"username": view.Username,
			"email":    view.Email,
			"role":     view.Role,
		}).Info("admin created")
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}
