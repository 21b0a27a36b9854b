package dto

import (
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

// CreateComplaintRequest payload for public and staff submissions.
type CreateComplaintRequest struct {
	CustomerName string  `json:"customer_name" validate:"required,max=100"`
	MobileNumber string  `json:"mobile_number" validate:"required,len=10,numeric"`
	Email        *string `json:"email" validate:"required,email"`
	Pincode      string  `json:"pincode" validate:"required,max=6"`
	City         string  `json:"city" validate:"required,max=100"`
	State        string  `json:"state" validate:"required,max=100"`
	Area         string  `json:"area" validate:"required,max=100"`
	Street       string  `json:"street" validate:"required,max=200"`
	Landmark     string  `json:"landmark" validate:"omitempty,max=200"`
	ProductID    *string `json:"product_id" validate:"omitempty,uuid"`
	IssueType    string  `json:"issue_type" validate:"omitempty,max=30"`
	Description  string  `json:"description" validate:"max=2000"`
}

// ComplaintEditRequest is a partial edit. Omitted fields keep their value;
// fields named in Clear, or sent as blank strings, are emptied.
type ComplaintEditRequest struct {
	Status                   *string  `json:"status" validate:"omitempty,oneof=open in_progress pending resolved"`
	AssignedEngineerID       *string  `json:"assigned_engineer_id" validate:"omitempty,uuid"`
	ProductSerialNumber      *string  `json:"product_serial_number" validate:"omitempty,max=100"`
	ServiceConfirmationPhoto *string  `json:"service_confirmation_photo" validate:"omitempty,max=255"`
	ServiceCost              *float64 `json:"service_cost" validate:"omitempty,gte=0,lte=99999999.99"`
	PaymentMethod            *string  `json:"payment_method" validate:"omitempty,oneof=cash online"`
	PaymentConfirmationPhoto *string  `json:"payment_confirmation_photo" validate:"omitempty,max=255"`
	MarkCashPaid             bool     `json:"mark_cash_paid"`
	Clear                    []string `json:"clear" validate:"dive,oneof=assigned_engineer product_serial_number service_confirmation_photo service_cost payment_method payment_confirmation_photo"`
}

// ComplaintResponse is the complaint as shown to staff.
type ComplaintResponse struct {
	ID                       string                 `json:"id"`
	TicketNumber             string                 `json:"ticket_number"`
	CustomerName             string                 `json:"customer_name"`
	MobileNumber             string                 `json:"mobile_number"`
	Email                    *string                `json:"email"`
	Address                  AddressResponse        `json:"address"`
	FullAddress              string                 `json:"full_address"`
	ProductID                *string                `json:"product_id"`
	ProductName              *string                `json:"product_name"`
	IssueType                domain.IssueType       `json:"issue_type"`
	Description              string                 `json:"description"`
	Status                   domain.ComplaintStatus `json:"status"`
	StatusLabel              string                 `json:"status_label"`
	AssignedEngineerID       *string                `json:"assigned_engineer_id"`
	EngineerUsername         *string                `json:"engineer_username"`
	ProductSerialNumber      *string                `json:"product_serial_number"`
	ServiceConfirmationPhoto *string                `json:"service_confirmation_photo"`
	ServiceCost              *float64               `json:"service_cost,omitempty"`
	PaymentMethod            *domain.PaymentMethod  `json:"payment_method,omitempty"`
	PaymentStatus            domain.PaymentStatus   `json:"payment_status"`
	PaymentConfirmationPhoto *string                `json:"payment_confirmation_photo,omitempty"`
	SMSLog                   *string                `json:"sms_log"`
	CreatedAt                time.Time              `json:"created_at"`
	UpdatedAt                time.Time              `json:"updated_at"`
	AssignedDate             *time.Time             `json:"assigned_date"`
	ResolvedDate             *time.Time             `json:"resolved_date"`
}

// AddressResponse mirrors the customer's address.
type AddressResponse struct {
	Pincode  string `json:"pincode"`
	City     string `json:"city"`
	State    string `json:"state"`
	Area     string `json:"area"`
	Street   string `json:"street"`
	Landmark string `json:"landmark"`
}

// ComplaintSubmittedResponse is returned to anonymous submitters.
type ComplaintSubmittedResponse struct {
	ID           string    `json:"id"`
	TicketNumber string    `json:"ticket_number"`
	CreatedAt    time.Time `json:"created_at"`
}

// ComplaintDetailResponse adds the audit trail and the caller's field set.
type ComplaintDetailResponse struct {
	Complaint      ComplaintResponse          `json:"complaint"`
	History        []ComplaintHistoryResponse `json:"history"`
	EditableFields []string                   `json:"editable_fields"`
}

// ComplaintHistoryResponse is one audit entry.
type ComplaintHistoryResponse struct {
	ID          string                     `json:"id"`
	ChangeType  domain.ComplaintChangeType `json:"change_type"`
	ChangedByID *string                    `json:"changed_by_id"`
	OldValue    map[string]any             `json:"old_value"`
	NewValue    map[string]any             `json:"new_value"`
	CreatedAt   time.Time                  `json:"created_at"`
}

// ListResponse wraps a page of items.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
