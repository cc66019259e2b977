package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/config"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/repository"
	"github.com/imazamsharieff/Gajrajah-crm-sub000/internal/crm/seed"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "crm",
	Short: "Gajrajah CRM API server",
	Long:  `Real-estate CRM API: projects, leads, inventory, bookings, site visits and reports.`,
	Run: func(cmd *cobra.Command, args []string) {
		serveCmd.Run(cmd, args)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	confFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(confFile)
	if err != nil {
		return nil, err
	}

	port, _ := cmd.Flags().GetInt("port")
	if port > 0 {
		cfg.Server.Port = port
	}
	return cfg, nil
}

// mustSetup 加载配置并初始化日志
func mustSetup(cmd *cobra.Command) (*config.Config, *zap.Logger) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	return cfg, zapLogger
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, zapLogger := mustSetup(cmd)
		defer zapLogger.Sync()

		if err := serve(cfg, zapLogger); err != nil {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the postgres tables",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, zapLogger := mustSetup(cmd)
		defer zapLogger.Sync()

		db, err := initDatabase(cfg.Database)
		if err != nil {
			zapLogger.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := repository.AutoMigrate(db); err != nil {
			zapLogger.Fatal("AutoMigrate failed", zap.Error(err))
		}
		zapLogger.Info("Migration completed", zap.String("database", cfg.Database.DBName))
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load demo data into the configured storage",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, zapLogger := mustSetup(cmd)
		defer zapLogger.Sync()

		if cfg.Storage.Driver != driverPostgres {
			zapLogger.Warn("Memory storage is discarded on exit; seed only validates the demo data")
		}

		deps, cleanup, err := buildDeps(context.Background(), cfg, zapLogger)
		if err != nil {
			zapLogger.Fatal("Failed to init dependencies", zap.Error(err))
		}
		defer cleanup()

		res, err := seed.Run(context.Background(), deps.services, seedOptions(cfg), zapLogger)
		if err != nil {
			zapLogger.Fatal("Seed failed", zap.Error(err))
		}
		fmt.Println(res)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.PersistentFlags().IntP("port", "p", 0, "Port for the server to listen on, overrides the value in the config file")
	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file (default ./configs/config.yaml)")
}
