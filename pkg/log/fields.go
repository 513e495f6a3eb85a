package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldRoute     = "route"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor (matches pkg/middleware/identity.go keys)
	FieldUsername = "username"

	// Chat entities
	FieldParticipant = "participant"
	FieldMessageID   = "message_id"
	FieldMessageType = "message_type"

	// Background jobs
	FieldComponent = "component"

	// Service
	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
