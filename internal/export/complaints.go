package export

import (
	"fmt"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

var (
	complaintHeaders = []string{
		"Ticket No", "Customer Name", "Email", "Mobile Number", "Product",
		"Issue Type", "Status", "Engineer", "Created At",
	}
	accountantComplaintHeaders = []string{
		"Ticket No", "Customer Name", "Email", "Mobile Number", "Product",
		"Issue Type", "Status", "Engineer", "Service Cost", "Payment Mode", "Created At",
	}
)

// ComplaintHeaders returns the column set for the role. Accountants also see
// billing columns.
func ComplaintHeaders(role domain.Role) []string {
	src := complaintHeaders
	if role == domain.RoleAccountant {
		src = accountantComplaintHeaders
	}
	return append([]string(nil), src...)
}

// Complaints renders complaints in the given order.
func Complaints(complaints []domain.Complaint, role domain.Role, username string, now time.Time) (*Workbook, error) {
	billing := role == domain.RoleAccountant
	rows := make([][]any, 0, len(complaints))
	for i := range complaints {
		c := &complaints[i]
		row := []any{
			c.TicketNumber,
			c.CustomerName,
			stringOr(c.Email, ""),
			c.MobileNumber,
			stringOr(c.ProductName, "Other"),
			string(c.IssueType),
			c.Status.Label(),
			stringOr(c.EngineerUsername, "Not Assigned"),
		}
		if billing {
			var cost any = ""
			if c.ServiceCost != nil {
				cost = *c.ServiceCost
			}
			row = append(row, cost, string(c.CurrentPaymentMethod()))
		}
		row = append(row, c.CreatedAt.Format("2006-01-02 15:04"))
		rows = append(rows, row)
	}

	data, err := render("Complaints", ComplaintHeaders(role), rows)
	if err != nil {
		return nil, err
	}
	return &Workbook{Filename: ComplaintsFilename(role, username, now), Data: data}, nil
}

// ComplaintsFilename builds "<role>_export_<username>_<YYYYMMDD_HHMM>.xlsx".
func ComplaintsFilename(role domain.Role, username string, now time.Time) string {
	prefix := string(role)
	if prefix == "" {
		prefix = "complaints"
	}
	if username == "" {
		username = "user"
	}
	return fmt.Sprintf("%s_export_%s_%s.xlsx", prefix, username, now.Format(timestampLayout))
}

func stringOr(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
