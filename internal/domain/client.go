package domain

import "time"

// PlaceholderName fills the mandatory name fields of auto-provisioned clients.
const PlaceholderName = "N/A"

// Client is the identity record that owns balances.
type Client struct {
	ID             int64
	Identification string
	Name           string
	Lastname       string
	Birthday       *time.Time
	Phone          string
	Email          string
	Address        string
	CreatedAt      time.Time
}

// NewPlaceholderClient builds a client for an identification seen for the first time.
func NewPlaceholderClient(identification string, now time.Time) *Client {
	return &Client{
		Identification: identification,
		Name:           PlaceholderName,
		Lastname:       PlaceholderName,
		CreatedAt:      now,
	}
}

// Provisioning tells whether a find-or-create lookup hit an existing row or inserted one.
type Provisioning int

const (
	// Found means the record already existed.
	Found Provisioning = iota
	// Created means the record was inserted by this lookup.
	Created
)

func (p Provisioning) String() string {
	if p == Created {
		return "created"
	}
	return "found"
}
