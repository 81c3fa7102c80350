package enums

// AuditStatus classifies the outcome recorded by an audit entry.
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusWarning AuditStatus = "warning"
	AuditStatusError   AuditStatus = "error"
)
