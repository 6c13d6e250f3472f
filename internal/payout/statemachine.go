// Package payout enforces the payout approval lifecycle. All call sites go
// through Transition so the state table lives in exactly one place.
package payout

import (
	"fmt"
	"time"

	"github.com/partnerhub/attribution-service/internal/models"
)

// Event is a requested payout lifecycle transition
type Event string

const (
	EventApprove        Event = "approve"
	EventReject         Event = "reject"
	EventMarkProcessing Event = "mark_processing"
	EventMarkPaid       Event = "mark_paid"
	EventMarkFailed     Event = "mark_failed"

	// EventReapprove is the explicit manual path out of failed; failed payouts
	// never return to approved automatically.
	EventReapprove Event = "reapprove"
)

// transitions is the full state table. Absence means the transition is
// rejected. processing is optional: approved payouts may be paid directly.
var transitions = map[models.PayoutStatus]map[Event]models.PayoutStatus{
	models.PayoutPendingApproval: {
		EventApprove: models.PayoutApproved,
		EventReject:  models.PayoutRejected,
	},
	models.PayoutApproved: {
		EventMarkProcessing: models.PayoutProcessing,
		EventMarkPaid:       models.PayoutPaid,
	},
	models.PayoutProcessing: {
		EventMarkPaid:   models.PayoutPaid,
		EventMarkFailed: models.PayoutFailed,
	},
	models.PayoutFailed: {
		EventReapprove: models.PayoutApproved,
	},
}

// InvalidTransitionError describes a rejected lifecycle transition. The payout
// is left unmodified when this is returned.
type InvalidTransitionError struct {
	From  models.PayoutStatus
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s a payout in status %q", e.Event, e.From)
}

// Next returns the target status for an event from the given status
func Next(from models.PayoutStatus, event Event) (models.PayoutStatus, error) {
	if to, ok := transitions[from][event]; ok {
		return to, nil
	}
	return from, &InvalidTransitionError{From: from, Event: event}
}

// Transition applies an event to the payout, setting the status and any
// event-specific fields (approval stamp, paid time). On guard failure the
// payout is untouched and an *InvalidTransitionError is returned. The caller
// is responsible for re-checking this guard inside the same transaction that
// persists the change.
func Transition(p *models.Payout, event Event, actor string, now time.Time) error {
	next, err := Next(p.Status, event)
	if err != nil {
		return err
	}

	p.Status = next

	switch event {
	case EventApprove, EventReapprove:
		p.ApprovedBy = &actor
		t := now
		p.ApprovedAt = &t
	case EventMarkPaid:
		t := now
		p.PaidAt = &t
	}

	return nil
}

// AuditAction maps a lifecycle event to its audit-log action
func AuditAction(event Event) models.AuditAction {
	switch event {
	case EventApprove:
		return models.ActionApprove
	case EventReject:
		return models.ActionReject
	case EventMarkProcessing:
		return models.ActionMarkProcessing
	case EventMarkPaid:
		return models.ActionMarkPaid
	case EventMarkFailed:
		return models.ActionMarkFailed
	case EventReapprove:
		return models.ActionReapprove
	}
	return models.ActionUpdate
}
