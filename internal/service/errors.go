package service

import "errors"

var (
	ErrInvalidEmail         = errors.New("invalid email address")
	ErrInvalidRole          = errors.New("role cannot be granted by invite")
	ErrRoleNotGrantable     = errors.New("caller may not grant this role")
	ErrInvalidExpiry        = errors.New("invite expiry out of range")
	ErrInviteAlreadyPending = errors.New("a pending invite already exists for this email")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrBootstrapDisabled    = errors.New("bootstrap login is disabled")
	ErrAuditDisabled        = errors.New("invite audit trail is disabled")
	ErrBackendUnavailable   = errors.New("identity backend unavailable")
)
