package domain

import (
	"strings"
	"time"
)

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	ComplaintStatusOpen       ComplaintStatus = "open"
	ComplaintStatusInProgress ComplaintStatus = "in_progress"
	ComplaintStatusPending    ComplaintStatus = "pending"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
)

var complaintStatusLabels = map[ComplaintStatus]string{
	ComplaintStatusOpen:       "Open",
	ComplaintStatusInProgress: "In Progress",
	ComplaintStatusPending:    "Pending",
	ComplaintStatusResolved:   "Resolved",
}

// Valid reports whether the status is one of the known values.
func (s ComplaintStatus) Valid() bool {
	_, ok := complaintStatusLabels[s]
	return ok
}

// Label returns the human readable status.
func (s ComplaintStatus) Label() string {
	if label, ok := complaintStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// PaymentStatus tracks whether the service has been billed and settled.
type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "unpaid"
	PaymentStatusPaid   PaymentStatus = "paid"
)

// PaymentMethod is how the customer settles the service cost.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodOnline PaymentMethod = "online"
)

// Valid reports whether the method is one of the known values.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodOnline
}

// IssueType classifies the reported problem.
type IssueType string

const (
	IssueScreenBlank   IssueType = "Screen-blank"
	IssueTotalDead     IssueType = "Total-Dead"
	IssueInstallation  IssueType = "Installation"
	IssueAppIssue      IssueType = "App-Issue"
	IssueBreak         IssueType = "Break"
	IssueSoundProblem  IssueType = "Sound-Problem"
	IssueTouchIssue    IssueType = "Touch-Issue"
	IssueOPSNotWorking IssueType = "OPS-not-working"
	IssueSoftwareIssue IssueType = "Software-Issue"
	IssueOther         IssueType = "Other"
)

// IssueTypes lists every accepted issue type in display order.
var IssueTypes = []IssueType{
	IssueScreenBlank,
	IssueTotalDead,
	IssueInstallation,
	IssueAppIssue,
	IssueBreak,
	IssueSoundProblem,
	IssueTouchIssue,
	IssueOPSNotWorking,
	IssueSoftwareIssue,
	IssueOther,
}

// Valid reports whether the issue type is accepted.
func (i IssueType) Valid() bool {
	for _, candidate := range IssueTypes {
		if candidate == i {
			return true
		}
	}
	return false
}

// Address is the customer's service location.
type Address struct {
	Pincode  string
	City     string
	State    string
	Area     string
	Street   string
	Landmark string
}

// Complaint is the aggregate for a customer-reported issue against a product.
type Complaint struct {
	ID           string
	TicketNumber string

	CustomerName string
	MobileNumber string
	Email        *string
	Address      Address

	ProductID   *string
	IssueType   IssueType
	Description string

	Status             ComplaintStatus
	AssignedEngineerID *string

	ProductSerialNumber      *string
	ServiceConfirmationPhoto *string

	ServiceCost              *float64
	PaymentMethod            *PaymentMethod
	PaymentStatus            PaymentStatus
	PaymentConfirmationPhoto *string

	SMSLog *string

	CreatedAt    time.Time
	UpdatedAt    time.Time
	AssignedDate *time.Time
	ResolvedDate *time.Time

	// Filled by read queries only.
	ProductName      *string
	EngineerUsername *string
}

// FullAddress joins the non-empty address parts.
func (c *Complaint) FullAddress() string {
	parts := []string{
		c.Address.Street,
		c.Address.Area,
		c.Address.Landmark,
		c.Address.City,
		c.Address.State,
		c.Address.Pincode,
	}
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, ", ")
}

// IsAssigned reports whether an engineer currently holds the complaint.
func (c *Complaint) IsAssigned() bool {
	return c.AssignedEngineerID != nil && *c.AssignedEngineerID != ""
}

// HasResolutionEvidence reports whether both the serial number and the
// service confirmation photo are recorded.
func (c *Complaint) HasResolutionEvidence() bool {
	return nonEmpty(c.ProductSerialNumber) && nonEmpty(c.ServiceConfirmationPhoto)
}

// CurrentPaymentMethod returns the payment method or an empty value.
func (c *Complaint) CurrentPaymentMethod() PaymentMethod {
	if c.PaymentMethod == nil {
		return ""
	}
	return *c.PaymentMethod
}

func nonEmpty(v *string) bool {
	return v != nil && strings.TrimSpace(*v) != ""
}
