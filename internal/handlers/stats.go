package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bobbytablesbot/bobbytables/internal/store"
)

// StatsHandler exposes the reference statistics.
type StatsHandler struct {
	stats  store.Statistics
	logger *slog.Logger
}

// TotalResponse is the body of GET /stats.
type TotalResponse struct {
	Total int `json:"total"`
}

func NewStatsHandler(log *slog.Logger, stats store.Statistics) *StatsHandler {
	return &StatsHandler{stats: stats, logger: log.With(slog.String("handler", "stats"))}
}

// Register mounts GET /stats and GET /stats/:id.
func (h *StatsHandler) Register(e *echo.Echo) {
	e.GET("/stats", h.Total)
	e.GET("/stats/:id", h.Comic)
}

// Total returns the number of references recorded.
func (h *StatsHandler) Total(c echo.Context) error {
	total, err := h.stats.TotalReferences(c.Request().Context())
	if err != nil {
		h.logger.Error("total references failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "statistics unavailable")
	}
	return c.JSON(http.StatusOK, TotalResponse{Total: total})
}

// Comic returns count, total and percent for one comic id.
func (h *StatsHandler) Comic(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if n, err := strconv.Atoi(id); err != nil || n < 1 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "comic id must be a positive integer"})
	}
	id = strings.TrimLeft(id, "0")
	out, err := store.Stats(c.Request().Context(), h.stats, id)
	if err != nil {
		h.logger.Error("comic statistics failed", slog.String("comic", id), slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "statistics unavailable")
	}
	return c.JSON(http.StatusOK, out)
}
