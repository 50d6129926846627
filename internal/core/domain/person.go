package domain

import "github.com/shopspring/decimal"

// Person is someone (or a named group of people) the tenant user tracks debts
// against. CreditBalance is the materialized net owed amount: positive means the
// person owes the user. It is mutated only by the debt ledger write-back.
type Person struct {
	PersonID      string          `json:"personID"` // Primary Key (UUID)
	UserID        string          `json:"userID"`   // Owning tenant (NON-NULL)
	Name          string          `json:"name"`
	Email         string          `json:"email"` // Nullable
	Phone         string          `json:"phone"` // Nullable
	CreditBalance decimal.Decimal `json:"creditBalance"`
	YouTubeSlots  int             `json:"youtubeSlots"` // Shared subscription seats held
	ICloudSlots   int             `json:"icloudSlots"`
	IsGroup       bool            `json:"isGroup"` // Aggregates multiple underlying people
	GroupID       string          `json:"groupID"` // Nullable FK -> people.person_id; set on members of a group
	IsActive      bool            `json:"isActive"`
	Version       int64           `json:"version"` // Optimistic concurrency token
	AuditFields
}
