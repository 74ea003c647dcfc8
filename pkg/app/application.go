package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/farmgate/farmgate/internal/metrics"
	"github.com/farmgate/farmgate/internal/middleware"
	"github.com/farmgate/farmgate/internal/providers"
	"github.com/farmgate/farmgate/internal/ratelimit"
	"github.com/farmgate/farmgate/internal/repository"
	"github.com/farmgate/farmgate/internal/services"
	"github.com/farmgate/farmgate/internal/tracing"
	"github.com/farmgate/farmgate/pkg/config"
	"github.com/farmgate/farmgate/pkg/hash"
	"github.com/farmgate/farmgate/pkg/token"

	"github.com/gin-gonic/gin"
)

type Application struct {
	Config          *config.Config
	Engine          *gin.Engine
	Auth            services.AuthService
	Users           services.UserService
	Products        services.ProductService
	Contracts       services.ContractService
	Profile         *token.Profile
	Logger          *slog.Logger
	RateLimiter     ratelimit.Limiter
	TracingShutdown func(context.Context) error
}

// ApplicationOption configures the Application
type ApplicationOption func(*Application) error

// WithProfile sets a custom token profile instead of building one from config.
func WithProfile(p *token.Profile) ApplicationOption {
	return func(app *Application) error {
		app.Profile = p
		return nil
	}
}

func NewApplication(cfg *config.Config, opts ...ApplicationOption) (*Application, error) {
	redisClient := providers.NewRedisProvider(cfg.RedisAddr, cfg.RedisPassword)
	limiter := ratelimit.NewTokenBucketLimiter(redisClient)

	level := new(slog.LevelVar)
	switch cfg.LogLevel {
	case "debug":
		level.Set(slog.LevelDebug)
	case "warn":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
	}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}
	logger := slog.New(handler).With("service", "farmgate", "env", cfg.Env)
	slog.SetDefault(logger)

	app := &Application{
		Config:      cfg,
		Logger:      logger,
		RateLimiter: limiter,
	}
	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	if app.Profile == nil {
		profile, err := BuildProfile(cfg)
		if err != nil {
			return nil, err
		}
		app.Profile = profile
	}

	issuer, err := token.NewIssuer(app.Profile,
		token.WithAccessLifetime(cfg.AccessLifetime()),
		token.WithRefreshLifetime(cfg.RefreshLifetime()),
	)
	if err != nil {
		return nil, err
	}

	hasher := hash.NewHasher(hash.DefaultParams)
	users := repository.NewUserRepository(redisClient, time.Now)
	products := repository.NewProductRepository(redisClient, time.Now)
	contracts := repository.NewContractRepository(redisClient, time.Now)
	metrics.RegisterStoreCollector(users, products, contracts, logger)

	app.Auth = services.NewAuthService(users, hasher, issuer, app.Profile)
	app.Users = services.NewUserService(users, hasher)
	app.Products = services.NewProductService(products)
	app.Contracts = services.NewContractService(contracts, users)

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.LoggerMiddleware(logger),
		middleware.TracingMiddleware("farmgate"),
		middleware.AssociateClaims(app.Profile, logger),
	)
	app.Engine = engine

	shutdown, err := tracing.Setup(context.Background(), tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  "farmgate",
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		OTLPInsecure: cfg.Tracing.OTLPInsecure,
		SampleRatio:  cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		return nil, err
	}
	app.TracingShutdown = shutdown

	return app, nil
}

// BuildProfile assembles the signing profile from config, reading PEM key
// material from disk when file paths are given.
func BuildProfile(cfg *config.Config) (*token.Profile, error) {
	pc := token.ProfileConfig{
		Algorithm: cfg.TokenAlgorithm,
		JWKSURL:   cfg.TokenJwksURL,
		KeyID:     cfg.TokenKeyID,
		Audience:  cfg.Audiences(),
		Issuer:    cfg.TokenIssuer,
		Leeway:    cfg.Leeway(),
	}
	if cfg.TokenSecret != "" {
		pc.SigningKey = []byte(cfg.TokenSecret)
	}
	if cfg.TokenSigningKeyFile != "" {
		pem, err := os.ReadFile(cfg.TokenSigningKeyFile)
		if err != nil {
			return nil, err
		}
		pc.SigningKey = pem
	}
	if cfg.TokenVerifyKeyFile != "" {
		pem, err := os.ReadFile(cfg.TokenVerifyKeyFile)
		if err != nil {
			return nil, err
		}
		pc.VerificationKey = pem
	}
	return token.NewProfile(pc)
}
