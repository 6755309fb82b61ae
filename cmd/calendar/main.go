package main

import (
	"calendar-backend/cmd/calendar/apis"
	"calendar-backend/cmd/calendar/auth"
	"calendar-backend/cmd/calendar/model"
	"calendar-backend/cmd/calendar/repository"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/google/uuid"
	"github.com/kelseyhightower/envconfig"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	envPrefix       = "CALENDAR"
	defaultBodySize = "10M"
)

type EnvCfg struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" required:"true"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBLogLevel string `envconfig:"DB_LOG_LEVEL" default:"silent"`

	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	MaxBodySize string `envconfig:"MAX_BODY_SIZE" default:"10M"`

	JWTSecret    string        `envconfig:"JWT_SECRET" required:"true"`
	SessionTTL   time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	CookieSecure bool          `envconfig:"COOKIE_SECURE" default:"false"`

	Timezone     string `envconfig:"TIMEZONE" default:"UTC"`
	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding  string `envconfig:"LOG_ENCODING" default:"json"`
	CalendarPage string `envconfig:"CALENDAR_PAGE" default:"/"`
	AutoMigrate  bool   `envconfig:"AUTO_MIGRATE" default:"false"`

	AdminName     string `envconfig:"ADMIN_NAME" default:"Administrator"`
	AdminEmail    string `envconfig:"ADMIN_EMAIL"`
	AdminPassword string `envconfig:"ADMIN_PASSWORD"`
}

// Validate checks the values envconfig cannot express as tags.
func (c EnvCfg) Validate() error {
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 bytes")
	}
	if c.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	switch c.LogEncoding {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_ENCODING must be json or console, got %q", c.LogEncoding)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE: %w", err)
	}
	return nil
}

func (c EnvCfg) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.DBHost,
		c.DBPort,
		c.DBUser,
		c.DBPassword,
		c.DBName,
		c.DBSSLMode,
		c.Timezone,
	)
}

func gormLogLevel(s string) gormlogger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return gormlogger.Error
	case "warn":
		return gormlogger.Warn
	case "info":
		return gormlogger.Info
	}
	return gormlogger.Silent
}

func newLogger(level, encoding string) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(strings.ToLower(level)); err != nil {
		lvl = zapcore.InfoLevel
	}

	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(lvl),
		Encoding:         encoding,
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	if encoding == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	return zc.Build()
}

func main() {

	var cfg EnvCfg
	err := envconfig.Process(envPrefix, &cfg)
	if err != nil {
		panic(err)
	}
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		panic(err)
	}
	time.Local = loc

	logger, err := newLogger(cfg.LogLevel, cfg.LogEncoding)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := gorm.Open(
		postgres.Open(cfg.DSN()),
		&gorm.Config{
			Logger: gormlogger.Default.LogMode(gormLogLevel(cfg.DBLogLevel)),
		},
	)
	if err != nil {
		logger.Fatal("db open failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 && os.Args[1] == "setup" {
		if err := runSetup(ctx, db, cfg, logger, os.Stdout, os.Args[2:]); err != nil {
			logger.Fatal("setup failed", zap.Error(err))
		}
		return
	}

	if cfg.AutoMigrate {
		if err := repository.Migrate(ctx, db); err != nil {
			logger.Fatal("auto-migrate failed", zap.Error(err))
		}
		logger.Info("schema migrated")
	}

	e := newServer(db, cfg, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", cfg.HTTPAddr), zap.String("timezone", cfg.Timezone))
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = e.Shutdown(shutdownCtx)
}

func newServer(db *gorm.DB, cfg EnvCfg, logger *zap.Logger) *echo.Echo {

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.Recover())

	bodyLimit := cfg.MaxBodySize
	if bodyLimit == "" {
		bodyLimit = defaultBodySize
	}
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(requestLogger(logger))
	corsMethods := []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}
	corsHeaders := []string{
		echo.HeaderContentType,
		echo.HeaderAuthorization,
		echo.HeaderXRequestedWith,
	}
	e.Use(preflight(corsMethods, corsHeaders))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().Method == http.MethodOptions
		},
		AllowOrigins: []string{"*"},
		AllowMethods: corsMethods,
		AllowHeaders: corsHeaders,
	}))

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.SessionTTL)
	e.Use(auth.Session(tokens))

	rootg := e.Group("")
	apig := rootg.Group("/api")

	apis.
		NewHealthCheckAPI(db, logger).
		Setup(rootg)

	eventRepo := repository.NewEventRepo(db)
	countryRepo := repository.NewCountryRepo(db)
	userRepo := repository.NewUserRepo(db)

	apis.
		NewEventAPI(eventRepo, logger, cfg.CalendarPage).
		Setup(apig)

	apis.
		NewCalendarAPI(eventRepo, logger).
		Setup(apig)

	apis.
		NewCountryAPI(countryRepo, eventRepo, logger).
		Setup(apig)

	apis.
		NewTransferAPI(eventRepo, countryRepo, logger, time.Local).
		Setup(apig)

	apis.
		NewSessionAPI(userRepo, eventRepo, tokens, cfg.CookieSecure, logger).
		Setup(apig)

	apis.
		NewAdminAPI(userRepo, eventRepo, countryRepo, logger).
		Setup(apig)

	return e
}

// preflight stamps the CORS headers on every OPTIONS request and lets the
// route answer it, so /api/events replies 200 with an empty body whether or
// not the browser sent an Origin.
func preflight(methods, headers []string) echo.MiddlewareFunc {
	allowMethods := strings.Join(methods, ",")
	allowHeaders := strings.Join(headers, ",")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method != http.MethodOptions {
				return next(c)
			}

			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)
			h.Set(echo.HeaderAccessControlAllowOrigin, "*")
			h.Set(echo.HeaderAccessControlAllowMethods, allowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, allowHeaders)
			return next(c)
		}
	}
}

func requestLogger(logger *zap.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	})
}

// errorHandler renders router and middleware errors in the response envelope.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			message = fmt.Sprint(he.Message)
		} else {
			logger.Error("unhandled error", zap.Error(err), zap.String("uri", c.Request().RequestURI))
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(code)
		} else {
			err = c.JSON(code, model.BaseResponse{Message: message})
		}
		if err != nil {
			logger.Warn("write error response failed", zap.Error(err))
		}
	}
}
