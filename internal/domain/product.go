package domain

import "time"

const (
	WarrantyActive  = "Active"
	WarrantyExpired = "Expired"
)

// Product is a sold or installed unit covered by warranty.
type Product struct {
	ID                 string
	SerialNumber       string
	ModelName          string
	SoldTo             string
	SoldDate           time.Time
	InstallationDate   *time.Time
	AssignedEngineerID *string
	InvoiceRef         *string
	WarrantyStart      *time.Time
	WarrantyEnd        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Filled by read queries only.
	EngineerUsername *string
}

// WarrantyStatus reports whether the warranty still covers the given day.
func (p *Product) WarrantyStatus(today time.Time) string {
	if p.WarrantyEnd == nil {
		return WarrantyExpired
	}
	y, m, d := today.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	ey, em, ed := p.WarrantyEnd.Date()
	end := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	if !end.Before(day) {
		return WarrantyActive
	}
	return WarrantyExpired
}
