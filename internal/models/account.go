package models

import (
	"strings"
	"time"
)

// Plan is the account plan tag stored on every account.
type Plan string

const (
	PlanBasic      Plan = "basic"
	PlanPremium    Plan = "premium"
	PlanEnterprise Plan = "enterprise"
	PlanAdmin      Plan = "admin"
)

// Valid reports whether p is one of the four known plan tags.
func (p Plan) Valid() bool {
	switch p {
	case PlanBasic, PlanPremium, PlanEnterprise, PlanAdmin:
		return true
	}
	return false
}

type Account struct {
	ID           string
	Email        string
	PasswordHash []byte
	Name         string
	Plan         Plan
	IsStaff      bool
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NormalizeEmail lower-cases the domain part and leaves the local part as is.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
