// Package queue defines message payloads exchanged over the message broker.
package queue

// TicketPurchasedQueue is the broker queue for purchase confirmations.
const TicketPurchasedQueue = "ticket.purchased"

// TicketPurchasedEvent is published when a payment is confirmed and the
// buyer takes ownership of the tickets. It contains enough information
// for downstream consumers to log, notify, or trigger analytics without
// querying the primary database.
type TicketPurchasedEvent struct {
	TransactionID    uint64 `json:"transaction_id"`
	BuyerID          uint64 `json:"buyer_id"`
	EventID          uint64 `json:"event_id"`
	SectorID         uint64 `json:"sector_id"`
	Quantity         uint32 `json:"quantity"`
	TotalAmountCents uint64 `json:"total_amount_cents"`
	PaymentRef       string `json:"payment_ref"`
	PaidAt           string `json:"paid_at"`
}
