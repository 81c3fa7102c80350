package enums

// QueueStatus tracks the lifecycle of a queued remote-API operation.
type QueueStatus string

const (
	QueueStatusPending    QueueStatus = "pending"
	QueueStatusProcessing QueueStatus = "processing"
	QueueStatusSuccess    QueueStatus = "success"
	QueueStatusFailed     QueueStatus = "failed"
)
