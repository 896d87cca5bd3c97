package main

import (
	"context"
	"flag"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fitrackapp/fitrack/internal/config"
	"github.com/fitrackapp/fitrack/internal/db"
	"github.com/fitrackapp/fitrack/internal/logging"
	"github.com/fitrackapp/fitrack/internal/seed"
	"github.com/fitrackapp/fitrack/internal/workouts"
)

// seeds a user's account with the demo user's workout entries
func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	templateUser := flag.String("template", seed.DefaultTemplateUserID, "user id to clone workouts from")
	targetUser := flag.String("target", "", "user id to clone workouts to")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		log.Fatalf("load config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   "",
		LogToStdout:   true,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: false,
		Environment:   cfg.Environment,
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	mongoClient, err := db.Connect(ctx, db.ConnectParams{URI: cfg.MongoURI})
	if err != nil {
		log.Fatalf("connect mongo: %s", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Errorf("disconnect mongo: %s", err)
		}
	}()

	workoutsRepo := workouts.NewRepo(mongoClient.Database(cfg.MongoDBName))
	cloner := seed.NewCloner(workoutsRepo)

	cloned, err := cloner.Clone(ctx, *templateUser, *targetUser)
	if err != nil {
		log.Fatalf("clone workouts: %s", err)
	}

	log.Infof("done, %d workouts cloned to user [%s]", cloned, *targetUser)
}
