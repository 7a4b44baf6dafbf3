package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Joseda-hg/taskboard/internal/board"
	"github.com/Joseda-hg/taskboard/internal/config"
	"github.com/Joseda-hg/taskboard/internal/db"
	"github.com/Joseda-hg/taskboard/internal/logger"
	"github.com/Joseda-hg/taskboard/internal/service"
	"github.com/Joseda-hg/taskboard/internal/tui"
	"github.com/Joseda-hg/taskboard/internal/web"
)

const envPrefix = "TASKBOARD"

func newRootCmd() *cobra.Command {
	cmd, _ := newCommand()
	return cmd
}

// newCommand returns the root command together with the viper instance its
// flags and environment are bound to.
func newCommand() (*cobra.Command, *viper.Viper) {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "taskboard",
		Short:         "Terminal to-do board with projects, sub-tasks and a calendar",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v)
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("config", "", "config file path")
	flags.String("db", "", "sqlite db path (\":memory:\" keeps nothing)")
	flags.Bool("web", false, "enable web server")
	flags.Bool("web-only", false, "run web server only")
	flags.Int("port", 0, "web server port")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("delete-policy", "", "what deleting a project does to its tasks (delete, inbox)")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(flags)

	cmd.AddCommand(newExportCmd(v), newVersionCmd())
	return cmd, v
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "taskboard %s\ncommit: %s\nbuilt:  %s\n", version, commit, date)
		},
	}
}

// loadConfig reads the config file, applies flag and environment overrides,
// and writes the result back.
func loadConfig(v *viper.Viper) (config.Config, string, error) {
	cfgPath := v.GetString("config")
	if cfgPath == "" {
		var err error
		cfgPath, err = config.DefaultConfigPath()
		if err != nil {
			return config.Config{}, "", err
		}
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, "", err
	}
	cfg = applyOverrides(v, cfg)

	if err := config.Save(cfgPath, cfg); err != nil {
		return config.Config{}, "", err
	}
	return cfg, cfgPath, nil
}

func applyOverrides(v *viper.Viper, cfg config.Config) config.Config {
	if v.IsSet("db") && v.GetString("db") != "" {
		cfg.DBPath = v.GetString("db")
	}
	if cfg.DBPath == "" {
		cfg.DBPath = config.MemoryDB
	}
	if v.GetBool("web") {
		cfg.WebEnabled = true
	}
	if port := v.GetInt("port"); port != 0 {
		cfg.WebPort = port
	}
	if cfg.WebPort == 0 {
		cfg.WebPort = 8080
	}
	if level := v.GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if policy := v.GetString("delete-policy"); policy != "" {
		cfg.DeletePolicy = string(board.ParseDeletePolicy(policy))
	}
	return cfg
}

func openService(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*service.Service, func(), error) {
	if cfg.Persistent() {
		if err := config.EnsureDir(cfg.DBPath); err != nil {
			return nil, nil, err
		}
	}

	sqlDB, err := db.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	store := db.NewStore(sqlDB)

	b, err := store.LoadBoard(ctx)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, err
	}

	svc := service.New(b, store, log, service.WithDeletePolicy(board.ParseDeletePolicy(cfg.DeletePolicy)))
	return svc, func() { _ = sqlDB.Close() }, nil
}

func run(ctx context.Context, v *viper.Viper) error {
	cfg, cfgPath, err := loadConfig(v)
	if err != nil {
		return err
	}
	webOnly := v.GetBool("web-only")

	// The TUI owns the terminal, so logs go to a file beside the config.
	var out io.Writer = os.Stdout
	if !webOnly {
		logFile, err := logger.OpenFile(filepath.Join(filepath.Dir(cfgPath), "taskboard.log"))
		if err != nil {
			return err
		}
		defer logFile.Close()
		out = logFile
	}
	log := logger.New(out, cfg.LogLevel).WithField("service", "taskboard")

	svc, closeDB, err := openService(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDB()

	log.WithFields(logrus.Fields{
		"db":            cfg.DBPath,
		"persistent":    cfg.Persistent(),
		"delete_policy": svc.DeletePolicy(),
	}).Info("board loaded")

	if cfg.WebEnabled || webOnly {
		addr := fmt.Sprintf(":%d", cfg.WebPort)
		handler := web.NewServer(svc, log).Handler()
		if webOnly {
			log.Infof("web server running at http://localhost%s", addr)
			return http.ListenAndServe(addr, handler)
		}

		go func() {
			log.Infof("web server running at http://localhost%s", addr)
			if err := http.ListenAndServe(addr, handler); err != nil {
				log.WithError(err).Error("web server stopped")
			}
		}()
	}

	return tui.Run(svc)
}
