package entity

import (
	"time"

	"github.com/google/uuid"
)

// Customer is an anonymous-but-identifiable visitor of a domain. A customer is
// created on first contact and only enriched afterwards; the sweeper is the
// only thing that deletes one.
type Customer struct {
	UUID        string    `json:"uuid" bson:"_id"`
	DomainID    string    `json:"domain_id" bson:"domain_id"`
	IPAddress   string    `json:"ip_address" bson:"ip_address"`
	Name        string    `json:"name" bson:"name" validate:"omitempty"`
	Email       string    `json:"email" bson:"email" validate:"omitempty,email"`
	Phone       string    `json:"phone" bson:"phone" validate:"omitempty"`
	CountryCode string    `json:"country_code" bson:"country_code" validate:"omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Profile carries the optional contact fields collected by the widget's form
// before a customer record is created, or later to enrich an existing one.
type Profile struct {
	Name        string `json:"name" validate:"omitempty"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone" validate:"omitempty"`
	CountryCode string `json:"country_code" validate:"omitempty"`
}

// Empty reports whether no contact field was supplied.
func (p Profile) Empty() bool {
	return p.Name == "" && p.Email == "" && p.Phone == "" && p.CountryCode == ""
}

func NewCustomer(domainID, ip string, profile Profile) *Customer {
	return &Customer{
		UUID:        uuid.NewString(),
		DomainID:    domainID,
		IPAddress:   ip,
		Name:        profile.Name,
		Email:       profile.Email,
		Phone:       profile.Phone,
		CountryCode: profile.CountryCode,
		CreatedAt:   time.Now(),
	}
}
