package domain

import "errors"

var (
	ErrInvalidFranchise = errors.New("invalid_franchise")
	ErrInvalidProduct   = errors.New("invalid_product")
	ErrInvalidQuantity  = errors.New("invalid_quantity")
	ErrInvalidUnitPrice = errors.New("invalid_unit_price")
	ErrInvalidWindow    = errors.New("invalid_window")
)
