package constants

import "time"

// Cookie and context keys
const (
	TokenCookieName   = "token"
	ContextKeyClaims  = "claims"
	ContextKeyUserID  = "user_id"
	RequestIDHeader   = "X-Request-ID"
	ContextKeyRequest = "request_id"
)

// Pagination
const (
	MinPage         = 1
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores anything longer
	DefaultTokenTTL   = 24 * time.Hour
	DefaultIssuer     = "tenant-task-api"
)
