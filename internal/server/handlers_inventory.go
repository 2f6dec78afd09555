package server

import (
	"net/http"
	"strconv"

	"github.com/AntoDono/suscart/internal/domain"
	apperrors "github.com/AntoDono/suscart/internal/errors"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func parseIDParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid "+name).WithField(name, c.Param(name))
	}
	return id, nil
}

func (s *Server) handleListItems(c echo.Context) error {
	filter := domain.ItemFilter{
		Category: c.QueryParam("category"),
		Status:   domain.FreshnessStatus(c.QueryParam("status")),
	}
	if raw := c.QueryParam("min_discount"); raw != "" {
		minDiscount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return apperrors.ValidationError("invalid min_discount").WithField("min_discount", raw)
		}
		filter.MinDiscount = minDiscount
	}

	items, err := s.app.ListItems(c.Request().Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) handleGetItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	item, err := s.app.GetItem(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (s *Server) handleAddItem(c echo.Context) error {
	var item domain.CatalogItem
	if err := c.Bind(&item); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.app.AddItem(c.Request().Context(), &item); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

func (s *Server) handleUpdateItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	// Bind on top of the stored item, so omitted fields keep their values.
	item, err := s.app.GetItem(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if err := c.Bind(item); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	item.ID = id

	if err := s.app.UpdateItem(c.Request().Context(), item); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (s *Server) handleRemoveItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.RemoveItem(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
