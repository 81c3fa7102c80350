package enums

// ConsignmentState is one step in the consignment lifecycle. CANCELLED and
// ARCHIVED are terminal.
type ConsignmentState string

const (
	ConsignmentDraft     ConsignmentState = "DRAFT"
	ConsignmentOpen      ConsignmentState = "OPEN"
	ConsignmentPacking   ConsignmentState = "PACKING"
	ConsignmentPackaged  ConsignmentState = "PACKAGED"
	ConsignmentSent      ConsignmentState = "SENT"
	ConsignmentReceiving ConsignmentState = "RECEIVING"
	ConsignmentPartial   ConsignmentState = "PARTIAL"
	ConsignmentReceived  ConsignmentState = "RECEIVED"
	ConsignmentClosed    ConsignmentState = "CLOSED"
	ConsignmentCancelled ConsignmentState = "CANCELLED"
	ConsignmentArchived  ConsignmentState = "ARCHIVED"
)

// ConsignmentStates lists every known state.
func ConsignmentStates() []ConsignmentState {
	return []ConsignmentState{
		ConsignmentDraft,
		ConsignmentOpen,
		ConsignmentPacking,
		ConsignmentPackaged,
		ConsignmentSent,
		ConsignmentReceiving,
		ConsignmentPartial,
		ConsignmentReceived,
		ConsignmentClosed,
		ConsignmentCancelled,
		ConsignmentArchived,
	}
}
