package models

import "github.com/shopspring/decimal"

// Person mirrors the people table.
type Person struct {
	PersonID      string          `db:"person_id"`
	UserID        string          `db:"user_id"`
	Name          string          `db:"name"`
	Email         string          `db:"email"`
	Phone         string          `db:"phone"`
	CreditBalance decimal.Decimal `db:"credit_balance"`
	YouTubeSlots  int             `db:"youtube_slots"`
	ICloudSlots   int             `db:"icloud_slots"`
	IsGroup       bool            `db:"is_group"`
	GroupID       string          `db:"group_id"`
	IsActive      bool            `db:"is_active"`
	Version       int64           `db:"version"`
	AuditFields
}
