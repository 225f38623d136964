package models

import "time"

type Tier struct {
	ID           string
	OwnerID      string
	Title        string
	Description  string
	CustomImages []CustomImageRef
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CustomImageRef is the {id, name} shape of a custom image nested in a tier.
type CustomImageRef struct {
	ID   string
	Name string
}
