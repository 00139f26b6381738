package chat

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole("patient", "doctor", "admin"))
	g.GET("/chat/contacts", h.ListContacts)
	g.GET("/chat/messages/:partnerID", h.GetConversation)
	g.POST("/chat/messages", h.SendMessage)
	g.PATCH("/chat/messages/:partnerID/read", h.MarkRead)
}

func (h *Handler) SendMessage(c echo.Context) error {
	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.SendMessage(c.Request().Context(), auth.UserID(c), &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) GetConversation(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.GetConversation(c.Request().Context(), auth.UserID(c), c.Param("partnerID"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) MarkRead(c echo.Context) error {
	if err := h.svc.MarkConversationRead(c.Request().Context(), auth.UserID(c), c.Param("partnerID")); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ListContacts(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListContacts(c.Request().Context(), auth.UserID(c), c.QueryParam("search"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}
