package domain

import "errors"

var (
	ErrInvalidZoneGeometry = errors.New("invalid zone geometry")
	ErrInvalidPosition     = errors.New("invalid position")
	ErrAlertNotFound       = errors.New("alert not found")
	ErrEmergencyNotFound   = errors.New("emergency not found")
	ErrSubjectNotFound     = errors.New("subject not found")
)
