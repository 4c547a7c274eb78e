package domain

import (
	"context"
	"time"
)

// Audit event tags. login-fail entries double as the substrate for the
// brute-force counters; everything else is observability only.
const (
	EvRegister   = "register"
	EvLoginOK    = "login-ok"
	EvLoginNo    = "login-no"
	EvLoginFail  = "login-fail"
	EvLogout     = "logout"
	EvChangeUser = "change_user"
	EvRemoveUser = "remove_user"
	EvResetPwd   = "reset_pwd"
	EvChangePwd  = "change_pwd"
	EvGetUsers   = "get_users"
)

// AuditLog is an append-only event row. Context is free text, conventionally
// "email: name" or a comma-joined change list. Entries are never mutated; the
// only delete path is the rate limiter forgiving stale login-fail rows.
type AuditLog struct {
	ID         string    `gorm:"primaryKey;size:32" json:"id"`
	Type       string    `gorm:"size:32;index:idx_log_window,priority:1" json:"type"`
	Context    string    `gorm:"size:255;index:idx_log_window,priority:2" json:"context"`
	CreateTime time.Time `gorm:"index:idx_log_window,priority:3" json:"create_time"`
}

func (AuditLog) TableName() string { return "audit_logs" }

type AuditLogRepository interface {
	Append(ctx context.Context, e *AuditLog) error

	// CountSince counts entries of the given type and context newer than since.
	CountSince(ctx context.Context, typ, context string, since time.Time) (int64, error)

	// DeleteSince removes entries of the given type and context newer than
	// since; returns the deleted-row count.
	DeleteSince(ctx context.Context, typ, context string, since time.Time) (int64, error)

	// Recent returns up to limit newest entries, optionally filtered by type.
	Recent(ctx context.Context, typ string, limit int) ([]AuditLog, error)
}
