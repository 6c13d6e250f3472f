package payout

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/partnerhub/attribution-service/internal/models"
)

func pendingPayout() *models.Payout {
	return &models.Payout{
		ID:        uuid.New(),
		PartnerID: uuid.New(),
		Amount:    2500,
		Status:    models.PayoutPendingApproval,
	}
}

func TestTransition_HappyPath(t *testing.T) {
	p := pendingPayout()
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

	if err := Transition(p, EventApprove, "finance@corp", now); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if p.Status != models.PayoutApproved {
		t.Errorf("expected approved, got %s", p.Status)
	}
	if p.ApprovedBy == nil || *p.ApprovedBy != "finance@corp" {
		t.Error("approve must stamp ApprovedBy")
	}
	if p.ApprovedAt == nil || !p.ApprovedAt.Equal(now) {
		t.Error("approve must stamp ApprovedAt")
	}

	paidAt := now.Add(48 * time.Hour)
	if err := Transition(p, EventMarkPaid, "finance@corp", paidAt); err != nil {
		t.Fatalf("mark paid failed: %v", err)
	}
	if p.Status != models.PayoutPaid {
		t.Errorf("expected paid, got %s", p.Status)
	}
	if p.PaidAt == nil || !p.PaidAt.Equal(paidAt) {
		t.Error("mark paid must stamp PaidAt")
	}
}

func TestTransition_ProcessingPath(t *testing.T) {
	p := pendingPayout()
	now := time.Now()

	steps := []Event{EventApprove, EventMarkProcessing, EventMarkPaid}
	for _, ev := range steps {
		if err := Transition(p, ev, "ops", now); err != nil {
			t.Fatalf("%s failed: %v", ev, err)
		}
	}
	if p.Status != models.PayoutPaid {
		t.Errorf("expected paid, got %s", p.Status)
	}
}

func TestTransition_FailureAndReapproval(t *testing.T) {
	p := pendingPayout()
	now := time.Now()

	for _, ev := range []Event{EventApprove, EventMarkProcessing, EventMarkFailed} {
		if err := Transition(p, ev, "ops", now); err != nil {
			t.Fatalf("%s failed: %v", ev, err)
		}
	}
	if p.Status != models.PayoutFailed {
		t.Fatalf("expected failed, got %s", p.Status)
	}

	// only the explicit reapproval path leaves failed
	if err := Transition(p, EventMarkPaid, "ops", now); err == nil {
		t.Error("paying a failed payout must be rejected")
	}
	if err := Transition(p, EventReapprove, "finance@corp", now); err != nil {
		t.Fatalf("reapprove failed: %v", err)
	}
	if p.Status != models.PayoutApproved {
		t.Errorf("expected approved after reapproval, got %s", p.Status)
	}
}

func TestTransition_InvalidTransitionsRejected(t *testing.T) {
	cases := []struct {
		from  models.PayoutStatus
		event Event
	}{
		{models.PayoutPendingApproval, EventMarkPaid},
		{models.PayoutPendingApproval, EventMarkProcessing},
		{models.PayoutRejected, EventApprove},
		{models.PayoutPaid, EventApprove},
		{models.PayoutPaid, EventMarkFailed},
		{models.PayoutApproved, EventApprove},
		{models.PayoutApproved, EventReject},
		{models.PayoutProcessing, EventReject},
	}

	for _, tc := range cases {
		p := pendingPayout()
		p.Status = tc.from

		err := Transition(p, tc.event, "ops", time.Now())
		if err == nil {
			t.Errorf("expected %s from %s to be rejected", tc.event, tc.from)
			continue
		}

		var invalid *InvalidTransitionError
		if !errors.As(err, &invalid) {
			t.Errorf("expected InvalidTransitionError, got %T", err)
			continue
		}
		if invalid.From != tc.from || invalid.Event != tc.event {
			t.Errorf("error must carry the rejected pair, got %+v", invalid)
		}
		if p.Status != tc.from {
			t.Errorf("payout must be untouched on rejection, status became %s", p.Status)
		}
	}
}

func TestNext_TerminalStatesHaveNoExits(t *testing.T) {
	for _, status := range []models.PayoutStatus{models.PayoutPaid, models.PayoutRejected} {
		for _, ev := range []Event{EventApprove, EventReject, EventMarkProcessing, EventMarkPaid, EventMarkFailed, EventReapprove} {
			if _, err := Next(status, ev); err == nil {
				t.Errorf("%s must be terminal, but %s was accepted", status, ev)
			}
		}
	}
}

func TestAuditAction_CoversAllEvents(t *testing.T) {
	want := map[Event]models.AuditAction{
		EventApprove:        models.ActionApprove,
		EventReject:         models.ActionReject,
		EventMarkProcessing: models.ActionMarkProcessing,
		EventMarkPaid:       models.ActionMarkPaid,
		EventMarkFailed:     models.ActionMarkFailed,
		EventReapprove:      models.ActionReapprove,
	}
	for ev, action := range want {
		if got := AuditAction(ev); got != action {
			t.Errorf("AuditAction(%s) = %s, want %s", ev, got, action)
		}
	}
}
