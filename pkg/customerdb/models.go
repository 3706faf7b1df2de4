package customerdb

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"

	TicketOpen       = "open"
	TicketInProgress = "in_progress"
	TicketResolved   = "resolved"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Customer struct {
	bun.BaseModel `bun:"table:customers,alias:c"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,nullzero" json:"email"`
	Phone     string    `bun:"phone,nullzero" json:"phone"`
	Status    string    `bun:"status,notnull,default:'active'" json:"status"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

type Ticket struct {
	bun.BaseModel `bun:"table:tickets,alias:t"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	CustomerID int64     `bun:"customer_id,notnull" json:"customer_id"`
	Issue      string    `bun:"issue,notnull" json:"issue"`
	Status     string    `bun:"status,notnull,default:'open'" json:"status"`
	Priority   string    `bun:"priority,notnull,default:'medium'" json:"priority"`
	CreatedAt  time.Time `bun:"created_at,notnull" json:"created_at"`
}

// OpenTicket is a ticket joined with the owning customer's contact fields.
type OpenTicket struct {
	Ticket `bun:",extend"`

	CustomerName  string `bun:"customer_name,scanonly" json:"customer_name"`
	CustomerEmail string `bun:"customer_email,scanonly" json:"customer_email"`
}

type History struct {
	Customer Customer `json:"customer"`
	Tickets  []Ticket `json:"tickets"`
}

// CustomerUpdate holds the fields to change; nil fields are left untouched.
type CustomerUpdate struct {
	Name   *string
	Email  *string
	Phone  *string
	Status *string
}

func (u CustomerUpdate) empty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil && u.Status == nil
}
