package entity

import (
	"time"
)

// ResponseMode controls whether the assistant answers customer messages
// automatically or the operator handles every message by hand.
type ResponseMode string

const (
	ResponseModeAuto   ResponseMode = "auto"
	ResponseModeManual ResponseMode = "manual"
)

// Domain is a business account using the chat widget. Domains are created and
// managed outside this service; the core only reads them.
type Domain struct {
	ID               string       `json:"id" bson:"_id"`
	Name             string       `json:"name" bson:"name"`
	ResponseMode     ResponseMode `json:"response_mode" bson:"response_mode"`
	IPIdentification bool         `json:"ip_identification" bson:"ip_identification"`
	RequireProfile   bool         `json:"require_profile" bson:"require_profile"`
	RetentionDays    int          `json:"retention_days" bson:"retention_days"`
	CreatedAt        time.Time    `json:"created_at" bson:"created_at"`
}

// Retention returns the domain's retention window, falling back to the given
// default when the domain carries no override.
func (d *Domain) Retention(def time.Duration) time.Duration {
	if d.RetentionDays <= 0 {
		return def
	}
	return time.Duration(d.RetentionDays) * 24 * time.Hour
}

// AutoRespond reports whether the assistant should answer customer messages
// for this domain.
func (d *Domain) AutoRespond() bool {
	return d.ResponseMode != ResponseModeManual
}
