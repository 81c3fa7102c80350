package enums

// WebhookEvent is a remote change notification name in entity.action form.
type WebhookEvent string

const (
	WebhookProductCreated      WebhookEvent = "product.created"
	WebhookProductUpdated      WebhookEvent = "product.updated"
	WebhookProductDeleted      WebhookEvent = "product.deleted"
	WebhookSaleCreated         WebhookEvent = "sale.created"
	WebhookSaleUpdated         WebhookEvent = "sale.updated"
	WebhookCustomerCreated     WebhookEvent = "customer.created"
	WebhookCustomerUpdated     WebhookEvent = "customer.updated"
	WebhookConsignmentCreated  WebhookEvent = "consignment.created"
	WebhookConsignmentUpdated  WebhookEvent = "consignment.updated"
	WebhookConsignmentSent     WebhookEvent = "consignment.sent"
	WebhookConsignmentReceived WebhookEvent = "consignment.received"
	WebhookInventoryUpdated    WebhookEvent = "inventory.updated"
)

// SupportedWebhookEvents is the allow-list checked before any side effect.
func SupportedWebhookEvents() map[WebhookEvent]struct{} {
	return map[WebhookEvent]struct{}{
		WebhookProductCreated:      {},
		WebhookProductUpdated:      {},
		WebhookProductDeleted:      {},
		WebhookSaleCreated:         {},
		WebhookSaleUpdated:         {},
		WebhookCustomerCreated:     {},
		WebhookCustomerUpdated:     {},
		WebhookConsignmentCreated:  {},
		WebhookConsignmentUpdated:  {},
		WebhookConsignmentSent:     {},
		WebhookConsignmentReceived: {},
		WebhookInventoryUpdated:    {},
	}
}
