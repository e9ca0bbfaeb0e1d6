package domain

import (
	"errors"
	"strings"
	"time"
)

// Rule is an organization's alert rule. Only the fields the neglected-rule table refers to are modeled.
type Rule struct {
	ID        string
	OrgID     string
	Label     string
	Status    RuleStatus
	CreatedAt time.Time
}

type RuleStatus string

const (
	RuleStatusActive   RuleStatus = "active"
	RuleStatusDisabled RuleStatus = "disabled"
)

// Validate validates the rule for persistence.
func (r *Rule) Validate() error {
	r.Label = strings.TrimSpace(r.Label)
	if r.OrgID == "" {
		return errors.New("org_id is required")
	}
	if r.Label == "" {
		return errors.New("label is required")
	}
	if r.Status == "" {
		r.Status = RuleStatusActive
	}
	return nil
}

// NeglectedRule tracks a rule whose alerts nobody acts on, and the emails warning that it will be disabled.
type NeglectedRule struct {
	ID                   int64
	OrgID                string
	RuleID               string
	DisableDate          time.Time
	OptedOut             bool
	SentInitialEmailDate time.Time
	SentFinalEmailDate   time.Time
}

// Validate validates the neglected rule for persistence.
func (n *NeglectedRule) Validate() error {
	switch {
	case n.OrgID == "":
		return errors.New("org_id is required")
	case n.RuleID == "":
		return errors.New("rule_id is required")
	case n.DisableDate.IsZero():
		return errors.New("disable_date is required")
	case n.SentInitialEmailDate.IsZero() || n.SentFinalEmailDate.IsZero():
		return errors.New("email dates are required")
	}
	return nil
}
