package middleware

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth0/go-jwt-middleware/v2/jwks"
	jwtvalidator "github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/roomly/booking-service/pkg/auth"
	"github.com/roomly/booking-service/pkg/logger"
)

const (
	AuthorizationHeader = "Authorization"
	bearer              = "Bearer "
)

// CustomClaims carries the profile attributes the identity provider embeds
// into access tokens.
type CustomClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (c CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// JwtAuthentication validates the bearer token and stores the caller identity
// on the request context. Validation backend is chosen by cfg.Mode.
func JwtAuthentication(cfg auth.Config) echo.MiddlewareFunc {
	if cfg.Mode == "jwks" {
		return jwksAuthentication(cfg)
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := bearerToken(c)
			if err != nil {
				return err
			}
			ident, err := auth.ParseHS256(tokenStr, cfg.Secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "JwtAccessDenied")
			}
			req := c.Request()
			c.SetRequest(req.WithContext(auth.SetAuthContext(req.Context(), ident)))
			return next(c)
		}
	}
}

func jwksAuthentication(cfg auth.Config) echo.MiddlewareFunc {
	issuerURL, err := url.Parse("https://" + cfg.Issuer + "/")
	if err != nil {
		log.Fatalf("Failed to parse the issuer url: %v", err)
	}
	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	validator, err := jwtvalidator.New(
		provider.KeyFunc,
		jwtvalidator.RS256,
		issuerURL.String(),
		[]string{cfg.Audience},
		jwtvalidator.WithCustomClaims(func() jwtvalidator.CustomClaims { return &CustomClaims{} }),
		jwtvalidator.WithAllowedClockSkew(time.Minute),
	)
	if err != nil {
		log.Fatalf("Failed to set up the jwt validator")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := bearerToken(c)
			if err != nil {
				return err
			}
			claims, err := validator.ValidateToken(c.Request().Context(), tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Token")
			}
			validated := claims.(*jwtvalidator.ValidatedClaims)
			custom, _ := validated.CustomClaims.(*CustomClaims)
			if custom == nil {
				custom = &CustomClaims{}
			}
			role := custom.Role
			if role == "" {
				role = auth.RoleUser
			}
			ident := auth.Identity{
				Subject: validated.RegisteredClaims.Subject,
				Email:   custom.Email,
				Name:    custom.Name,
				Role:    role,
			}
			req := c.Request()
			c.SetRequest(req.WithContext(auth.SetAuthContext(req.Context(), ident)))
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authorization := c.Request().Header.Get(AuthorizationHeader)
	if authorization == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "No Authorization Header")
	}
	if !strings.HasPrefix(authorization, bearer) {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Invalid Authorization Header")
	}
	return strings.TrimPrefix(authorization, bearer), nil
}

// AdminOnly requires an authenticated identity with the admin role.
func AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ident, err := auth.FromContext(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
		}
		if !ident.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "admin role required")
		}
		return next(c)
	}
}

func NewRateLimiter(rps rate.Limit) echo.MiddlewareFunc {
	return middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rps))
}

func RequestLoggerConfig() middleware.RequestLoggerConfig {
	cfg := logger.Log{LogLevel: zapcore.DebugLevel, Sink: ""}
	log := logger.NewLogger(cfg, "echo")
	c := middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		HandleError:  true,
		LogError:     true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := zapcore.InfoLevel
			if v.Error != nil {
				level = zapcore.ErrorLevel
			}
			log.Log(level, "request",
				zap.String("URI", v.URI),
				zap.String("Method", v.Method),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	}
	return c
}
