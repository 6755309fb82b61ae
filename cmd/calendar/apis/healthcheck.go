package apis

import (
	"calendar-backend/cmd/calendar/model"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type HealthCheckAPI struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewHealthCheckAPI(db *gorm.DB, logger *zap.Logger) *HealthCheckAPI {
	return &HealthCheckAPI{
		db:     db,
		logger: logger,
	}
}

func (a *HealthCheckAPI) Setup(g *echo.Group) {
	g.GET("/healthz", a.healthCheck)
}

// healthCheck reports whether the database answers a ping.
func (a *HealthCheckAPI) healthCheck(c echo.Context) error {

	db, err := a.db.DB()
	if err == nil {
		err = db.PingContext(c.Request().Context())
	}
	if err != nil {
		a.logger.Warn("health check failed", zap.Error(err))
		return c.JSON(
			http.StatusServiceUnavailable,
			model.BaseResponse{
				Message: "database unavailable",
			},
		)
	}

	return c.JSON(
		http.StatusOK,
		model.BaseResponse{
			Success: true,
			Message: "healthy",
		},
	)
}
