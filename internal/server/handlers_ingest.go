package server

import (
	"net/http"
	"time"

	"github.com/AntoDono/suscart/internal/domain"
	apperrors "github.com/AntoDono/suscart/internal/errors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type freshnessUpdateRequest struct {
	ItemID         string    `json:"item_id"`
	FreshnessScore float64   `json:"freshness_score"`
	ObservedAt     time.Time `json:"observed_at"`
	Confidence     float64   `json:"confidence"`
	EvidenceRef    string    `json:"evidence_ref"`
}

type freshnessUpdateResponse struct {
	ItemID          uuid.UUID              `json:"item_id"`
	FreshnessScore  float64                `json:"freshness_score"`
	DiscountPercent float64                `json:"discount_percent"`
	CurrentPrice    float64                `json:"current_price"`
	Status          domain.FreshnessStatus `json:"status"`
	Created         int                    `json:"recommendations_created"`
	Superseded      int                    `json:"recommendations_superseded"`
}

// handleFreshnessUpdate is the ingestion entry point. A successful response
// means the observation was priced, persisted and fanned out.
func (s *Server) handleFreshnessUpdate(c echo.Context) error {
	var req freshnessUpdateRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return apperrors.ValidationError("invalid item_id").WithField("item_id", req.ItemID)
	}

	result, err := s.app.IngestFreshness(c.Request().Context(), domain.FreshnessObservation{
		ItemID:      itemID,
		Score:       req.FreshnessScore,
		ObservedAt:  req.ObservedAt,
		Confidence:  req.Confidence,
		EvidenceRef: req.EvidenceRef,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, freshnessUpdateResponse{
		ItemID:          result.Item.ID,
		FreshnessScore:  result.Item.FreshnessScore,
		DiscountPercent: result.Item.DiscountPercent,
		CurrentPrice:    result.Item.CurrentPrice,
		Status:          result.Item.Status,
		Created:         result.Created,
		Superseded:      result.Superseded,
	})
}
