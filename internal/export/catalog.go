package export

import (
	"fmt"
	"time"

	"github.com/spec-kit/complaint-service/internal/domain"
)

var productHeaders = []string{
	"Serial Number", "Model Name", "Sold To", "Sold Date", "Installation Date",
	"Assigned Engineer", "Warranty Start", "Warranty End",
}

var staffHeaders = []string{"Name", "Email", "Role"}

// Products renders the product catalogue.
func Products(products []domain.Product, now time.Time) (*Workbook, error) {
	rows := make([][]any, 0, len(products))
	for i := range products {
		p := &products[i]
		rows = append(rows, []any{
			p.SerialNumber,
			p.ModelName,
			p.SoldTo,
			formatDate(&p.SoldDate),
			formatDate(p.InstallationDate),
			stringOr(p.EngineerUsername, ""),
			formatDate(p.WarrantyStart),
			formatDate(p.WarrantyEnd),
		})
	}
	data, err := render("Products", productHeaders, rows)
	if err != nil {
		return nil, err
	}
	return &Workbook{Filename: fmt.Sprintf("products_%s.xlsx", now.Format(timestampLayout)), Data: data}, nil
}

// Staff renders the staff directory.
func Staff(accounts []domain.StaffAccount, now time.Time) (*Workbook, error) {
	rows := make([][]any, 0, len(accounts))
	for i := range accounts {
		a := &accounts[i]
		role := "Not Assigned"
		if a.Role != "" {
			role = a.Role.Label()
		}
		rows = append(rows, []any{a.Username, a.Email, role})
	}
	data, err := render("Staff List", staffHeaders, rows)
	if err != nil {
		return nil, err
	}
	return &Workbook{Filename: fmt.Sprintf("staff_list_%s.xlsx", now.Format(timestampLayout)), Data: data}, nil
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
