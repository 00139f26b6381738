package alerts

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the alert intake. Publishing is restricted to
// admin callers; patients and doctors receive alerts over the realtime
// channel, they never post them.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/alerts", auth.RequireRole("admin"))
	g.POST("", h.Publish)
	g.GET("", h.Recent)
}

func (h *Handler) Publish(c echo.Context) error {
	var req PublishRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	alert, err := h.svc.Publish(c.Request().Context(), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, alert)
}

func (h *Handler) Recent(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Recent(c.Request().Context()))
}
