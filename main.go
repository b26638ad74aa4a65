package main

import (
	"crypto/sha256"

	"PortalAuth/auth"
	"PortalAuth/config"
	"PortalAuth/controllers"
	"PortalAuth/middlewares"
	"PortalAuth/repositories"
	"PortalAuth/routes"
	"PortalAuth/services"
	"PortalAuth/stores"
	"PortalAuth/utils"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func init() {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)
}

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file loaded: ", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatal("Failed to load configuration: ", err)
	}

	db, err := repositories.InitDB(cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize database: ", err)
	}
	redisClient, err := config.NewRedisClient(cfg)
	if err != nil {
		logrus.Fatal("Failed to initialize redis: ", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	accountRepo := repositories.NewOAuthAccountRepository(db)
	grantRepo := repositories.NewGrantRepository(db)
	twoFactorRepo := repositories.NewTwoFactorRepository(db)

	// Token codec: RSA preferred when configured, HMAC otherwise. Missing
	// signing material already failed LoadConfig.
	var codec utils.TokenCodec
	if cfg.RSAPrivateKeyPEM != "" {
		codec, err = utils.NewRSACodec(cfg.RSAPrivateKeyPEM, cfg.RSAKeyID)
	} else {
		codec, err = utils.NewHMACCodec(cfg.JWTSecret)
	}
	if err != nil {
		logrus.Fatal("Failed to initialize token codec: ", err)
	}

	// Stores and services
	revocations := stores.NewRevocationStore(redisClient)
	exchange := stores.NewExchangeStore(redisClient)
	permissions := services.NewPermissionService(grantRepo, cfg.AdminEmails)
	sessions := services.NewSessionService(codec, revocations, exchange, permissions, cfg.TokenIssuer, cfg.TokenAudience)
	identity := services.NewIdentityService(userRepo, accountRepo)
	authService := services.NewAuthService(userRepo, identity, sessions)
	twoFactorService := services.NewTwoFactorService(userRepo, twoFactorRepo)

	// OAuth providers and state signing. The state key is derived from the
	// token signing material, so a forged state payload fails verification
	// on any process sharing the configuration.
	providers := []auth.Provider{
		auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL),
		auth.NewQQProvider(cfg.QQClientID, cfg.QQClientSecret, cfg.QQRedirectURL),
	}
	stateKey := sha256.Sum256([]byte("oauth-state:" + cfg.JWTSecret + cfg.RSAPrivateKeyPEM))
	states, err := auth.NewStateCodec(stateKey[:])
	if err != nil {
		logrus.Fatal("Failed to initialize state codec: ", err)
	}

	// Controllers and routes
	e := echo.New()
	e.HideBanner = true
	routes.RegisterRoutes(e, routes.Controllers{
		Auth:      controllers.NewAuthController(authService, identity, sessions, permissions, userRepo),
		OAuth:     controllers.NewOAuthController(providers, authService, identity, sessions, permissions, states, cfg.RedirectAllowlist),
		Admin:     controllers.NewAdminController(authService, permissions, grantRepo),
		TwoFactor: controllers.NewTwoFactorController(twoFactorService),
	}, middlewares.NewAuthMiddleware(sessions, userRepo))

	metrics := echo.New()
	metrics.HideBanner = true
	metrics.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	var g errgroup.Group
	g.Go(func() error {
		logrus.Info("API listening on :", cfg.Port)
		return e.Start(":" + cfg.Port)
	})
	g.Go(func() error {
		logrus.Info("Metrics listening on :", cfg.MetricsPort)
		return metrics.Start(":" + cfg.MetricsPort)
	})
	if err := g.Wait(); err != nil {
		logrus.Fatal("Server terminated: ", err)
	}
}
