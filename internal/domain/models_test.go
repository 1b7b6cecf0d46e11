package domain_test

import (
	"testing"

	"github.com/salesdesk/crm-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"spaces stripped", "+47 987 65 432", "+4798765432"},
		{"already normalized", "+4798765432", "+4798765432"},
		{"no leading plus", "98765432", "98765432"},
		{"plus only leads", "98+765432", "98765432"},
		{"non-leading plus dropped", "(+47) 987-65-432", "4798765432"},
		{"letters dropped", "call 98765432", "98765432"},
		{"empty", "", ""},
		{"no digits", "---", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.NormalizePhone(tt.input))
		})
	}
}

func TestLeadStatusTransitions(t *testing.T) {
	tests := []struct {
		from    domain.LeadStatus
		to      domain.LeadStatus
		allowed bool
	}{
		{domain.LeadStatusNew, domain.LeadStatusAssigned, true},
		{domain.LeadStatusNew, domain.LeadStatusContacted, true},
		{domain.LeadStatusNew, domain.LeadStatusLost, true},
		{domain.LeadStatusNew, domain.LeadStatusQualified, false},
		{domain.LeadStatusAssigned, domain.LeadStatusContacted, true},
		{domain.LeadStatusAssigned, domain.LeadStatusQualified, false},
		{domain.LeadStatusContacted, domain.LeadStatusQualified, true},
		{domain.LeadStatusContacted, domain.LeadStatusLost, true},
		{domain.LeadStatusContacted, domain.LeadStatusNew, false},
		{domain.LeadStatusQualified, domain.LeadStatusLost, false},
		{domain.LeadStatusLost, domain.LeadStatusNew, false},
		// Same-status moves are no-ops and allowed.
		{domain.LeadStatusContacted, domain.LeadStatusContacted, true},
		{domain.LeadStatusLost, domain.LeadStatusLost, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestDealStageTransitions(t *testing.T) {
	tests := []struct {
		from    domain.DealStage
		to      domain.DealStage
		allowed bool
	}{
		{domain.DealStageProspect, domain.DealStageNegotiation, true},
		{domain.DealStageProspect, domain.DealStageWon, true},
		{domain.DealStageProspect, domain.DealStageLost, true},
		{domain.DealStageNegotiation, domain.DealStageProspect, true},
		{domain.DealStageNegotiation, domain.DealStageWon, true},
		{domain.DealStageWon, domain.DealStageProspect, false},
		{domain.DealStageWon, domain.DealStageLost, false},
		{domain.DealStageLost, domain.DealStageNegotiation, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestDealStageIsOpen(t *testing.T) {
	assert.True(t, domain.DealStageProspect.IsOpen())
	assert.True(t, domain.DealStageNegotiation.IsOpen())
	assert.False(t, domain.DealStageWon.IsOpen())
	assert.False(t, domain.DealStageLost.IsOpen())
}

func TestFollowupStatusTransitions(t *testing.T) {
	assert.True(t, domain.FollowupStatusPending.CanTransitionTo(domain.FollowupStatusDone))
	assert.True(t, domain.FollowupStatusPending.CanTransitionTo(domain.FollowupStatusCancelled))
	assert.False(t, domain.FollowupStatusDone.CanTransitionTo(domain.FollowupStatusPending))
	assert.False(t, domain.FollowupStatusCancelled.CanTransitionTo(domain.FollowupStatusDone))
	assert.True(t, domain.FollowupStatusDone.CanTransitionTo(domain.FollowupStatusDone))
}

func TestQuotationStatusTransitions(t *testing.T) {
	tests := []struct {
		from    domain.QuotationStatus
		to      domain.QuotationStatus
		allowed bool
	}{
		{domain.QuotationStatusDraft, domain.QuotationStatusSent, true},
		{domain.QuotationStatusDraft, domain.QuotationStatusRejected, true},
		{domain.QuotationStatusDraft, domain.QuotationStatusAccepted, false},
		{domain.QuotationStatusSent, domain.QuotationStatusAccepted, true},
		{domain.QuotationStatusSent, domain.QuotationStatusRejected, true},
		{domain.QuotationStatusSent, domain.QuotationStatusDraft, false},
		{domain.QuotationStatusAccepted, domain.QuotationStatusRejected, false},
		{domain.QuotationStatusRejected, domain.QuotationStatusSent, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, domain.RoleAdmin.IsValid())
	assert.True(t, domain.RoleSales.IsValid())
	assert.False(t, domain.Role("superuser").IsValid())

	assert.True(t, domain.LeadStatusContacted.IsValid())
	assert.False(t, domain.LeadStatus("warm").IsValid())

	assert.True(t, domain.NoteEntityDeal.IsValid())
	assert.False(t, domain.NoteEntityType("invoice").IsValid())

	assert.True(t, domain.DiscountFlat.IsValid())
	assert.False(t, domain.DiscountType("bogo").IsValid())

	assert.True(t, domain.LeadSourceInactive.IsValid())
	assert.False(t, domain.LeadSourceStatus("paused").IsValid())
}
