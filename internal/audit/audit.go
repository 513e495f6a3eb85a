package audit

import (
	"context"

	"github.com/weiawesome/wes-io-live/chatroom-service/pkg/log"
)

// Audit actions for chatroom-service.
const (
	ActionRegister      = "participant.register"
	ActionEvict         = "participant.evict"
	ActionPostMessage   = "message.post"
	ActionEditMessage   = "message.edit"
	ActionDeleteMessage = "message.delete"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, username string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUsername, username).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, username string, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUsername, username).
		Str(FieldDetail, detail).
		Msg(msg)
}
