package dto

// WebhookAck is returned to the payment gateway on successful processing.
// Duplicate deliveries of an already-settled event also ack (idempotent).
type WebhookAck struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// SweeperRunResponse reports one sweeper invocation
type SweeperRunResponse struct {
	PromotedCount int `json:"promoted_count"`
}
