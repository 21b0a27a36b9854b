package dto

import "time"

// ProductRequest payload for create and update. Dates use YYYY-MM-DD.
type ProductRequest struct {
	SerialNumber       string  `json:"serial_number" validate:"required,max=100"`
	ModelName          string  `json:"model_name" validate:"required,max=100"`
	SoldTo             string  `json:"sold_to" validate:"max=200"`
	SoldDate           string  `json:"sold_date" validate:"required,datetime=2006-01-02"`
	InstallationDate   *string `json:"installation_date" validate:"omitempty,datetime=2006-01-02"`
	AssignedEngineerID *string `json:"assigned_engineer_id" validate:"omitempty,uuid"`
	InvoiceRef         *string `json:"invoice_ref" validate:"omitempty,max=255"`
	WarrantyStart      *string `json:"warranty_start" validate:"omitempty,datetime=2006-01-02"`
	WarrantyEnd        *string `json:"warranty_end" validate:"omitempty,datetime=2006-01-02"`
}

// ProductResponse describes a catalog entry.
type ProductResponse struct {
	ID                 string     `json:"id"`
	SerialNumber       string     `json:"serial_number"`
	ModelName          string     `json:"model_name"`
	SoldTo             string     `json:"sold_to"`
	SoldDate           time.Time  `json:"sold_date"`
	InstallationDate   *time.Time `json:"installation_date"`
	AssignedEngineerID *string    `json:"assigned_engineer_id"`
	EngineerUsername   *string    `json:"engineer_username"`
	InvoiceRef         *string    `json:"invoice_ref"`
	WarrantyStart      *time.Time `json:"warranty_start"`
	WarrantyEnd        *time.Time `json:"warranty_end"`
	WarrantyStatus     string     `json:"warranty_status"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
