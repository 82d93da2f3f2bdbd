package models

import "time"

// Credential is an API key stored for one provider
type Credential struct {
	Provider  string    `json:"provider" db:"provider"`
	Secret    string    `json:"-" db:"secret"` // Never expose in JSON
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Credential model
func (Credential) TableName() string {
	return "credentials"
}

// Masked returns the secret with all but the last four characters hidden
func (c *Credential) Masked() string {
	if len(c.Secret) <= 4 {
		return "****"
	}
	return "****" + c.Secret[len(c.Secret)-4:]
}
