package cmd

import (
	"database/sql"
	"net"

	"github.com/massivemarketmanager/ms-go-trading/app/controller"
	"github.com/massivemarketmanager/ms-go-trading/app/mail"
	"github.com/massivemarketmanager/ms-go-trading/app/middleware"
	"github.com/massivemarketmanager/ms-go-trading/app/repository"
	"github.com/massivemarketmanager/ms-go-trading/app/service"
	"github.com/massivemarketmanager/ms-go-trading/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the HTTP server exposing the auth flows and the trading-domain API.`,
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	configureLogging(cfg)

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	verificationTokenRepo := repository.NewEmailVerificationTokenRepository(db)
	balanceRepo := repository.NewBalanceRepository(db)
	strategyRepo := repository.NewStrategyRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	tradeRepo := repository.NewTradeRepository(db)

	hasher := service.NewPasswordHasher(cfg.BcryptCost)
	notifier := mail.NewSMTPNotifier(cfg)
	tokenService := service.NewTokenService(db, refreshTokenRepo, hasher, cfg)
	verificationService := service.NewVerificationService(db, verificationTokenRepo, userRepo, cfg)
	authService := service.NewAuthService(db, userRepo, tokenService, verificationService, hasher, notifier, cfg)
	tradingService := service.NewTradingService(balanceRepo, strategyRepo, positionRepo, tradeRepo)

	startHTTPServer(cfg, authService, tradingService)
}

func configureLogging(cfg *config.Config) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func startHTTPServer(cfg *config.Config, authService service.AuthService, tradingService *service.TradingService) {
	e := echo.New()
	defer e.Close()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	authController := controller.NewAuthController(authService)
	tradingController := controller.NewTradingController(tradingService)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	auth := e.Group("/api/auth")
	auth.POST("/sign-up", authController.SignUp)
	auth.POST("/sign-in", authController.SignIn)
	auth.POST("/verify", authController.Verify)
	auth.POST("/resend-verification", authController.ResendVerification)

	api := e.Group("/api")
	api.Use(authMiddleware.RequireAuth)
	api.GET("/balances", tradingController.ListBalances)
	api.GET("/strategies", tradingController.ListStrategies)
	api.POST("/strategies", tradingController.CreateStrategy)
	api.GET("/strategies/:id/positions", tradingController.ListPositions)
	api.POST("/positions", tradingController.CreatePosition)
	api.GET("/trades", tradingController.ListTrades)
	api.POST("/trades", tradingController.RecordTrade)

	httpAddr := net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort)
	logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
	if err := e.Start(httpAddr); err != nil {
		logrus.WithError(err).Fatal("Failed to start HTTP server")
	}
}
