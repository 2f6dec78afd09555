package server

import (
	"net/http"

	"github.com/AntoDono/suscart/internal/domain"
	apperrors "github.com/AntoDono/suscart/internal/errors"
	"github.com/labstack/echo/v4"
)

func (s *Server) handleListCustomers(c echo.Context) error {
	customers, err := s.app.ListCustomers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customers)
}

func (s *Server) handleGetCustomer(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	customer, err := s.app.GetCustomer(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, customer)
}

func (s *Server) handleCreateCustomer(c echo.Context) error {
	var customer domain.CustomerProfile
	if err := c.Bind(&customer); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	if err := s.app.CreateCustomer(c.Request().Context(), &customer); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, customer)
}
