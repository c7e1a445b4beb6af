// Command authd runs the pixelmint access-control service: account and
// session endpoints backed by Postgres, generation quota backed by Redis
// with local fallback.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	authcore "github.com/pixelmint/authcore"
	"github.com/pixelmint/authcore/config"
	"github.com/pixelmint/authcore/httpapi"
	"github.com/pixelmint/authcore/session"
	"github.com/pixelmint/authcore/store"
)

func main() {
	var confPath string
	flag.StringVar(&confPath, "conf", "", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(confPath)
	if err != nil {
		logrus.WithError(err).Fatal("load configuration")
	}

	log := newLogger(cfg.Logger)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	if err := store.AutoMigrate(db); err != nil {
		log.WithError(err).Fatal("migrate database")
	}

	engineCfg := authcore.DefaultConfig()
	engineCfg.Token.AccessSecret = []byte(cfg.Tokens.AccessSecret)
	engineCfg.Token.RefreshSecret = []byte(cfg.Tokens.RefreshSecret)
	engineCfg.Token.AccessTTL = cfg.Tokens.AccessTTL
	engineCfg.Token.RefreshTTL = cfg.Tokens.RefreshTTL
	engineCfg.Token.Issuer = cfg.Tokens.Issuer
	engineCfg.Quota.RedisAddr = cfg.Redis.Addr
	engineCfg.Quota.RedisPassword = cfg.Redis.Password
	engineCfg.Quota.AnonymousLimit = cfg.RateLimit.Anonymous
	engineCfg.Quota.AuthenticatedLimit = cfg.RateLimit.Authenticated
	engineCfg.Quota.Window = cfg.RateLimit.Window

	engine, err := authcore.New().
		WithConfig(engineCfg).
		WithUserStore(store.NewGormUsers(db, 0)).
		WithSessionRegistry(session.NewGormRegistry(db, 0)).
		WithLogger(log).
		Build()
	if err != nil {
		log.WithError(err).Fatal("build engine")
	}
	defer engine.Close()

	// A dead quota backend must not block startup: the engine serves from
	// its local fallback until Redis comes back.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := engine.ConnectQuota(ctx); err != nil {
		log.WithError(err).Warn("quota backend unavailable, serving degraded")
	}
	cancel()

	if cfg.Server.RunMode != "" {
		gin.SetMode(cfg.Server.RunMode)
	}
	router := httpapi.NewRouter(engine, log)

	log.WithField("addr", cfg.Server.Addr).Info("authd listening")
	if err := router.Run(cfg.Server.Addr); err != nil {
		log.WithError(err).Fatal("http server")
	}
}

func newLogger(cfg config.Logger) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	return log
}
