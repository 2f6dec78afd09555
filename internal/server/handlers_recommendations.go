package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// handleRecommendations is the pull path for offline customers: active
// recommendations first, ordered by priority score.
func (s *Server) handleRecommendations(c echo.Context) error {
	customerID, err := parseIDParam(c, "customer_id")
	if err != nil {
		return err
	}

	recs, err := s.app.Recommendations(c.Request().Context(), customerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recs)
}

func (s *Server) handleMarkViewed(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.MarkRecommendationViewed(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
