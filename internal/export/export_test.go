package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/complaint-service/internal/domain"
)

var exportTime = time.Date(2026, 4, 2, 15, 7, 0, 0, time.UTC)

func readRows(t *testing.T, wb *Workbook, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(wb.Data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func sampleComplaints() []domain.Complaint {
	cost := 750.0
	cash := domain.PaymentMethodCash
	product := "LED Panel 65"
	engineer := "kiran"
	email := "asha@example.com"
	return []domain.Complaint{
		{
			TicketNumber:     "TCKT-000000B2",
			CustomerName:     "Asha",
			Email:            &email,
			MobileNumber:     "9876543210",
			ProductName:      &product,
			IssueType:        domain.IssueTouchIssue,
			Status:           domain.ComplaintStatusInProgress,
			EngineerUsername: &engineer,
			ServiceCost:      &cost,
			PaymentMethod:    &cash,
			CreatedAt:        time.Date(2026, 4, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			TicketNumber: "TCKT-000000A1",
			CustomerName: "Bala",
			MobileNumber: "9123456780",
			IssueType:    domain.IssueOther,
			Status:       domain.ComplaintStatusOpen,
			CreatedAt:    time.Date(2026, 3, 30, 8, 0, 0, 0, time.UTC),
		},
	}
}

func TestComplaintsForAccountant(t *testing.T) {
	wb, err := Complaints(sampleComplaints(), domain.RoleAccountant, "priya", exportTime)
	require.NoError(t, err)
	assert.Equal(t, "accountant_export_priya_20260402_1507.xlsx", wb.Filename)
	assert.Equal(t, "attachment; filename=accountant_export_priya_20260402_1507.xlsx", wb.ContentDisposition())

	rows := readRows(t, wb, "Complaints")
	require.Len(t, rows, 3)
	assert.Equal(t, accountantComplaintHeaders, rows[0])
	assert.Equal(t, []string{
		"TCKT-000000B2", "Asha", "asha@example.com", "9876543210", "LED Panel 65",
		"Touch-Issue", "In Progress", "kiran", "750", "cash", "2026-04-01 10:30",
	}, rows[1])
	assert.Equal(t, "TCKT-000000A1", rows[2][0])
	assert.Equal(t, "Other", rows[2][4])
	assert.Equal(t, "Not Assigned", rows[2][7])
}

func TestComplaintsForOtherRolesHideBilling(t *testing.T) {
	wb, err := Complaints(sampleComplaints(), domain.RoleManager, "ravi", exportTime)
	require.NoError(t, err)

	rows := readRows(t, wb, "Complaints")
	assert.Equal(t, complaintHeaders, rows[0])
	assert.Len(t, rows[1], len(complaintHeaders))
	assert.Equal(t, "2026-04-01 10:30", rows[1][8])
}

func TestComplaintsEmpty(t *testing.T) {
	wb, err := Complaints(nil, "", "", exportTime)
	require.NoError(t, err)
	assert.Equal(t, "complaints_export_user_20260402_1507.xlsx", wb.Filename)
	assert.Len(t, readRows(t, wb, "Complaints"), 1)
}

func TestComplaintHeadersReturnsCopy(t *testing.T) {
	h := ComplaintHeaders(domain.RoleAdmin)
	h[0] = "changed"
	assert.Equal(t, "Ticket No", ComplaintHeaders(domain.RoleAdmin)[0])
}

func TestProducts(t *testing.T) {
	end := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	engineer := "kiran"
	wb, err := Products([]domain.Product{{
		SerialNumber:     "SN-1",
		ModelName:        "LED Panel 65",
		SoldTo:           "City School",
		SoldDate:         time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		EngineerUsername: &engineer,
		WarrantyEnd:      &end,
	}}, exportTime)
	require.NoError(t, err)
	assert.Equal(t, "products_20260402_1507.xlsx", wb.Filename)

	rows := readRows(t, wb, "Products")
	assert.Equal(t, productHeaders, rows[0])
	assert.Equal(t, []string{"SN-1", "LED Panel 65", "City School", "2025-06-01", "", "kiran", "", "2027-01-01"}, rows[1])
}

func TestStaff(t *testing.T) {
	wb, err := Staff([]domain.StaffAccount{
		{Username: "ravi", Email: "ravi@example.com", Role: domain.RoleManager},
		{Username: "nobody", Email: "n@example.com"},
	}, exportTime)
	require.NoError(t, err)
	assert.Equal(t, "staff_list_20260402_1507.xlsx", wb.Filename)

	rows := readRows(t, wb, "Staff List")
	assert.Equal(t, []string{"Name", "Email", "Role"}, rows[0])
	assert.Equal(t, []string{"ravi", "ravi@example.com", "Service Manager"}, rows[1])
	assert.Equal(t, "Not Assigned", rows[2][2])
}
