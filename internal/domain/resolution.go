package domain

import "time"

// ResolutionConfirmation records the requester's sign-off on a resolved
// ticket. At most one exists per ticket.
type ResolutionConfirmation struct {
	ID           string
	TicketID     string
	ConfirmedBy  string
	Satisfaction int
	Comment      string
	CreatedAt    time.Time
}
