package lifecycle

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// Edit is a partial update against a complaint. Nil pointers keep the
// current value; fields listed in Clear are set to empty.
type Edit struct {
	Status                   *domain.ComplaintStatus
	AssignedEngineerID       *string
	ProductSerialNumber      *string
	ServiceConfirmationPhoto *string
	ServiceCost              *float64
	PaymentMethod            *domain.PaymentMethod
	PaymentConfirmationPhoto *string
	MarkCashPaid             bool
	Clear                    []Field
}

func (e Edit) clears(f Field) bool {
	for _, c := range e.Clear {
		if c == f {
			return true
		}
	}
	return false
}

// ValidationError lists per-field problems. A complaint is never modified
// when Apply returns one.
type ValidationError struct {
	Fields map[Field]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[Field(k)])
	}
	return "invalid complaint edit: " + strings.Join(parts, "; ")
}

// Details flattens the error for API responses.
func (e *ValidationError) Details() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for f, msg := range e.Fields {
		out[string(f)] = msg
	}
	return out
}

// Apply validates and applies the edit for the given role, then runs the
// derived transitions enabled for that role. Fields outside the role's
// editable set are ignored. The input complaint is not mutated.
func Apply(current domain.Complaint, edit Edit, role domain.Role, now time.Time) (domain.Complaint, error) {
	editable := EditableFields(role, &current)
	if err := validate(current, edit, role, editable); err != nil {
		return current, err
	}

	next := current
	derive := DerivationsFor(role)

	if editable.Has(FieldStatus) && edit.Status != nil {
		next.Status = *edit.Status
	}
	if editable.Has(FieldAssignedEngineer) {
		next.AssignedEngineerID = pickString(current.AssignedEngineerID, edit.AssignedEngineerID, edit.clears(FieldAssignedEngineer))
	}
	if editable.Has(FieldProductSerialNumber) {
		next.ProductSerialNumber = pickString(current.ProductSerialNumber, edit.ProductSerialNumber, edit.clears(FieldProductSerialNumber))
	}
	if editable.Has(FieldServiceConfirmationPhoto) {
		next.ServiceConfirmationPhoto = pickString(current.ServiceConfirmationPhoto, edit.ServiceConfirmationPhoto, edit.clears(FieldServiceConfirmationPhoto))
	}
	if editable.Has(FieldServiceCost) {
		switch {
		case edit.clears(FieldServiceCost):
			next.ServiceCost = nil
		case edit.ServiceCost != nil:
			cost := *edit.ServiceCost
			next.ServiceCost = &cost
		}
	}
	if editable.Has(FieldPaymentMethod) {
		switch {
		case edit.clears(FieldPaymentMethod):
			next.PaymentMethod = nil
		case edit.PaymentMethod != nil:
			method := *edit.PaymentMethod
			next.PaymentMethod = &method
		}
	}
	if editable.Has(FieldPaymentConfirmationPhoto) {
		next.PaymentConfirmationPhoto = pickString(current.PaymentConfirmationPhoto, edit.PaymentConfirmationPhoto, edit.clears(FieldPaymentConfirmationPhoto))
	}

	markCashPaid := editable.Has(FieldMarkCashPaid) && edit.MarkCashPaid
	Derive(&next, derive, markCashPaid, now)
	return next, nil
}

// Derive runs the enabled transition rules against c in place.
//
// Assignment: an assigned engineer moves the complaint to in_progress and
// stamps AssignedDate once. Without an engineer it is open and undated.
//
// Resolution: serial number plus service photo resolve the complaint and
// stamp ResolvedDate once. Losing either clears ResolvedDate so the
// assignment state governs again.
//
// Payment: cash marked as paid, or online with a confirmation photo, moves
// the payment to paid. It never moves back.
func Derive(c *domain.Complaint, d Derivations, markCashPaid bool, now time.Time) {
	if d.Assignment {
		if c.IsAssigned() {
			c.Status = domain.ComplaintStatusInProgress
			if c.AssignedDate == nil {
				stamp := now
				c.AssignedDate = &stamp
			}
		} else {
			c.Status = domain.ComplaintStatusOpen
			c.AssignedDate = nil
		}
	}

	if d.Resolution {
		if c.HasResolutionEvidence() {
			c.Status = domain.ComplaintStatusResolved
			if c.ResolvedDate == nil {
				stamp := now
				c.ResolvedDate = &stamp
			}
		} else {
			c.ResolvedDate = nil
		}
	}

	if d.Payment {
		switch c.CurrentPaymentMethod() {
		case domain.PaymentMethodCash:
			if markCashPaid {
				c.PaymentStatus = domain.PaymentStatusPaid
			}
		case domain.PaymentMethodOnline:
			if c.PaymentConfirmationPhoto != nil && strings.TrimSpace(*c.PaymentConfirmationPhoto) != "" {
				c.PaymentStatus = domain.PaymentStatusPaid
			}
		}
	}
}

func validate(current domain.Complaint, edit Edit, role domain.Role, editable FieldSet) error {
	problems := map[Field]string{}

	if editable.Has(FieldStatus) && edit.Status != nil && !edit.Status.Valid() {
		problems[FieldStatus] = fmt.Sprintf("unknown status %q", *edit.Status)
	}
	if editable.Has(FieldServiceCost) && edit.ServiceCost != nil && *edit.ServiceCost < 0 {
		problems[FieldServiceCost] = "service cost cannot be negative"
	}
	if editable.Has(FieldPaymentMethod) && edit.PaymentMethod != nil && !edit.PaymentMethod.Valid() {
		problems[FieldPaymentMethod] = fmt.Sprintf("unknown payment method %q", *edit.PaymentMethod)
	}

	required := RequiredFields(role, &current)
	if required.Has(FieldServiceCost) {
		if edit.clears(FieldServiceCost) || (edit.ServiceCost == nil && current.ServiceCost == nil) {
			if _, exists := problems[FieldServiceCost]; !exists {
				problems[FieldServiceCost] = "service cost is required"
			}
		}
	}
	if required.Has(FieldPaymentConfirmationPhoto) {
		photo := pickString(current.PaymentConfirmationPhoto, edit.PaymentConfirmationPhoto, edit.clears(FieldPaymentConfirmationPhoto))
		if photo == nil || strings.TrimSpace(*photo) == "" {
			problems[FieldPaymentConfirmationPhoto] = "payment confirmation photo is required for online payments"
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Fields: problems}
	}
	return nil
}

// pickString resolves the next value of an optional text field. Blank input
// counts as clearing the field.
func pickString(current, incoming *string, clear bool) *string {
	if clear {
		return nil
	}
	if incoming == nil {
		return current
	}
	value := strings.TrimSpace(*incoming)
	if value == "" {
		return nil
	}
	return &value
}
