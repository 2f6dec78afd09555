package domain

import "errors"

var (
	ErrItemNotFound           = errors.New("catalog item not found")
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrRecommendationNotFound = errors.New("recommendation not found")
)
