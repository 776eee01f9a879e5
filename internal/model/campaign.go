// internal/model/campaign.go
package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Operator is a comparison applied by a single rule.
type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "notEquals"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
	OpContains    Operator = "contains"
)

// Conjunction combines all rules of a rule set uniformly.
type Conjunction string

const (
	ConjunctionAnd Conjunction = "AND"
	ConjunctionOr  Conjunction = "OR"
)

// Rule is one field/operator/value predicate. Immutable once embedded in a campaign.
type Rule struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// RuleList is stored as a JSONB column on campaigns.
type RuleList []Rule

func (r RuleList) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *RuleList) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	case nil:
		*r = nil
		return nil
	}
	return fmt.Errorf("cannot scan %T into RuleList", src)
}

type Campaign struct {
	ID           int         `db:"id" json:"id"`
	Name         string      `db:"name" json:"name"`
	Channel      string      `db:"channel" json:"channel"`
	Message      string      `db:"message" json:"message"`
	Rules        RuleList    `db:"rules" json:"rules"`
	Conjunction  Conjunction `db:"conjunction" json:"conjunction"`
	AudienceSize int         `db:"audience_size" json:"audience_size"`
	ScheduledAt  *time.Time  `db:"scheduled_at" json:"scheduled_at,omitempty"`
	DispatchedAt *time.Time  `db:"dispatched_at" json:"dispatched_at,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// CampaignStats is derived from the communication log on read, never stored.
type CampaignStats struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// CampaignWithStats is the history view: a campaign plus its delivery counts.
type CampaignWithStats struct {
	Campaign
	Stats CampaignStats `json:"stats"`
}
