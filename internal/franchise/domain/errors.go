package domain

import "errors"

var (
	ErrInvalidFranchise = errors.New("invalid_franchise")
	ErrNotFound         = errors.New("franchise_not_found")
)
