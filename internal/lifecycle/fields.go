package lifecycle

import "github.com/spec-kit/complaint-service/internal/domain"

// Field names a complaint attribute that an edit may touch.
type Field string

const (
	FieldStatus                   Field = "status"
	FieldAssignedEngineer         Field = "assigned_engineer"
	FieldProductSerialNumber      Field = "product_serial_number"
	FieldServiceConfirmationPhoto Field = "service_confirmation_photo"
	FieldServiceCost              Field = "service_cost"
	FieldPaymentMethod            Field = "payment_method"
	FieldPaymentConfirmationPhoto Field = "payment_confirmation_photo"
	FieldMarkCashPaid             Field = "mark_cash_paid"
)

// fieldOrder is the canonical form order.
var fieldOrder = []Field{
	FieldStatus,
	FieldAssignedEngineer,
	FieldProductSerialNumber,
	FieldServiceConfirmationPhoto,
	FieldServiceCost,
	FieldPaymentMethod,
	FieldPaymentConfirmationPhoto,
	FieldMarkCashPaid,
}

// FieldSet is an immutable-by-convention set of fields.
type FieldSet map[Field]struct{}

func newFieldSet(fields ...Field) FieldSet {
	set := make(FieldSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s FieldSet) Has(f Field) bool {
	_, ok := s[f]
	return ok
}

// List returns the fields in canonical form order.
func (s FieldSet) List() []Field {
	out := make([]Field, 0, len(s))
	for _, f := range fieldOrder {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Strings is List as plain names, handy for JSON responses.
func (s FieldSet) Strings() []string {
	fields := s.List()
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

// EditableFields returns the fields the role may view and mutate on the given
// complaint. A fresh set is built on every call.
func EditableFields(role domain.Role, current *domain.Complaint) FieldSet {
	switch role {
	case domain.RoleAdmin:
		return newFieldSet(fieldOrder...)
	case domain.RoleManager:
		if ServiceCostLocked(current) {
			return newFieldSet(FieldAssignedEngineer)
		}
		return newFieldSet(FieldAssignedEngineer, FieldServiceCost)
	case domain.RoleAccountant:
		set := newFieldSet(FieldServiceCost, FieldPaymentMethod, FieldPaymentConfirmationPhoto)
		if current != nil && current.CurrentPaymentMethod() == domain.PaymentMethodCash {
			set[FieldMarkCashPaid] = struct{}{}
		}
		return set
	case domain.RoleEngineer:
		return newFieldSet(FieldProductSerialNumber, FieldServiceConfirmationPhoto)
	default:
		return newFieldSet(FieldStatus)
	}
}

// RequiredFields returns the editable fields that must hold a value after
// the edit is applied.
func RequiredFields(role domain.Role, current *domain.Complaint) FieldSet {
	switch role {
	case domain.RoleManager:
		if ServiceCostLocked(current) {
			return newFieldSet()
		}
		return newFieldSet(FieldServiceCost)
	case domain.RoleAccountant:
		if current != nil && current.CurrentPaymentMethod() == domain.PaymentMethodOnline {
			return newFieldSet(FieldPaymentConfirmationPhoto)
		}
		return newFieldSet()
	default:
		return newFieldSet()
	}
}

// ServiceCostLocked reports whether the manager's one-way cost lock applies.
func ServiceCostLocked(current *domain.Complaint) bool {
	return current != nil && current.ServiceCost != nil
}

// Derivations selects which derived transitions an edit runs.
type Derivations struct {
	Assignment bool
	Resolution bool
	Payment    bool
}

// DerivationsFor maps a role to the transitions its edits may trigger.
func DerivationsFor(role domain.Role) Derivations {
	switch role {
	case domain.RoleAdmin:
		return Derivations{Assignment: true, Resolution: true, Payment: true}
	case domain.RoleManager, domain.RoleEngineer:
		return Derivations{Assignment: true, Resolution: true}
	case domain.RoleAccountant:
		return Derivations{Payment: true}
	default:
		return Derivations{}
	}
}
