package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/complaint-service/internal/domain"
)

func TestEditableFieldsByRole(t *testing.T) {
	open := newComplaint()
	costed := newComplaint()
	costed.ServiceCost = floatPtr(120)
	cash := newComplaint()
	cash.PaymentMethod = methodPtr(domain.PaymentMethodCash)

	cases := []struct {
		name    string
		role    domain.Role
		current domain.Complaint
		want    []string
	}{
		{"admin sees everything", domain.RoleAdmin, open, []string{
			"status", "assigned_engineer", "product_serial_number", "service_confirmation_photo",
			"service_cost", "payment_method", "payment_confirmation_photo", "mark_cash_paid",
		}},
		{"manager before cost", domain.RoleManager, open, []string{"assigned_engineer", "service_cost"}},
		{"manager after cost", domain.RoleManager, costed, []string{"assigned_engineer"}},
		{"accountant without cash", domain.RoleAccountant, open, []string{"service_cost", "payment_method", "payment_confirmation_photo"}},
		{"accountant with cash", domain.RoleAccountant, cash, []string{"service_cost", "payment_method", "payment_confirmation_photo", "mark_cash_paid"}},
		{"engineer", domain.RoleEngineer, open, []string{"product_serial_number", "service_confirmation_photo"}},
		{"tally", domain.RoleTally, open, []string{"status"}},
		{"customer", domain.RoleCustomer, open, []string{"status"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			current := tc.current
			assert.Equal(t, tc.want, EditableFields(tc.role, &current).Strings())
		})
	}
}

func TestEditableFieldsReturnsFreshSet(t *testing.T) {
	c := newComplaint()
	first := EditableFields(domain.RoleEngineer, &c)
	first[FieldStatus] = struct{}{}

	second := EditableFields(domain.RoleEngineer, &c)
	assert.False(t, second.Has(FieldStatus))
}

func TestRequiredFields(t *testing.T) {
	open := newComplaint()
	assert.True(t, RequiredFields(domain.RoleManager, &open).Has(FieldServiceCost))

	online := newComplaint()
	online.PaymentMethod = methodPtr(domain.PaymentMethodOnline)
	assert.True(t, RequiredFields(domain.RoleAccountant, &online).Has(FieldPaymentConfirmationPhoto))
	assert.Empty(t, RequiredFields(domain.RoleAccountant, &open))
	assert.Empty(t, RequiredFields(domain.RoleAdmin, &open))
}

func TestDerivationsFor(t *testing.T) {
	assert.Equal(t, Derivations{true, true, true}, DerivationsFor(domain.RoleAdmin))
	assert.Equal(t, Derivations{true, true, false}, DerivationsFor(domain.RoleManager))
	assert.Equal(t, Derivations{true, true, false}, DerivationsFor(domain.RoleEngineer))
	assert.Equal(t, Derivations{false, false, true}, DerivationsFor(domain.RoleAccountant))
	assert.Equal(t, Derivations{}, DerivationsFor(domain.RoleTally))
}
