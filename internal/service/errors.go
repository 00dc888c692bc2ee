package service

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrOrderLocked       = errors.New("work order status forbids mutation")
	ErrEmptyCut          = errors.New("cut has no allocations")
	ErrInvalidPeriod     = errors.New("period_end must not precede period_start")
	ErrOverCut           = errors.New("allocation exceeds executable remaining")
	ErrInvalidTransition = errors.New("cut status transition not allowed")
	ErrConflict          = errors.New("concurrent modification, retry")
)
