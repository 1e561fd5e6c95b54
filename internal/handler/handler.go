package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/roomly/booking-service/internal/errs"
	"github.com/roomly/booking-service/pkg/auth"
	md "github.com/roomly/booking-service/pkg/middleware"
	"github.com/roomly/booking-service/pkg/validate"
)

type Handler struct {
	bookingSvc BookingService
	catalogSvc CatalogService
	profileSvc ProfileService
	storageSvc StorageService
	authCfg    auth.Config
	log        *zap.Logger
}

func New(bookingSvc BookingService, catalogSvc CatalogService, profileSvc ProfileService, storageSvc StorageService, authCfg auth.Config, log *zap.Logger) *Handler {
	return &Handler{
		bookingSvc: bookingSvc,
		catalogSvc: catalogSvc,
		profileSvc: profileSvc,
		storageSvc: storageSvc,
		authCfg:    authCfg,
		log:        log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))
	e.HTTPErrorHandler = errorHandler

	base := e.Group("", md.NewRateLimiter(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(md.RequestLoggerConfig()),
		middleware.RequestID(),
		md.NewRateLimiter(apiRPS),
		md.JwtAuthentication(h.authCfg),
	)

	api.GET("/rooms", h.GetRooms)
	api.GET("/rooms/:roomId", h.GetRoom)
	api.GET("/tours", h.GetTours)

	api.GET("/bookings", h.GetBookings)
	api.POST("/bookings", h.CreateBooking)
	api.PATCH("/bookings/:bookingId/status", h.UpdateBookingStatus, md.AdminOnly)
	api.POST("/bookings/:bookingId/cancel", h.CancelBooking)

	api.GET("/profile", h.GetProfile)
	api.PUT("/upload", h.Upload)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// errorHandler renders every error as the {success:false, error} envelope.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			msg = m
		case error:
			msg = m.Error()
		}
	}
	_ = c.JSON(code, echo.Map{"success": false, "error": msg})
}

// httpError maps the domain taxonomy onto status codes. Internal and
// upstream failures surface as a generic 500 so store detail never leaks.
func (h *Handler) httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrInvalidCursor):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrIllegalTransition),
		errors.Is(err, errs.ErrVersionConflict),
		errors.Is(err, errs.ErrSlotTaken):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		h.log.Error("internal", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func identity(c echo.Context) (auth.Identity, error) {
	ident, err := auth.FromContext(c.Request().Context())
	if err != nil {
		return auth.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	}
	return ident, nil
}
