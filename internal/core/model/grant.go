package model

import (
	"time"
)

const DailyPeriodLayout = "2006-01-02"

// DailyPeriod returns the period key of the calendar day of t, in t's location.
func DailyPeriod(t time.Time) string {
	return t.Format(DailyPeriodLayout)
}

// AccessGrant records that a gated resource has been charged for a period.
type AccessGrant interface {
	Subject() SubjectID
	GateKey() string
	PeriodKey() string
	CreatedAt() time.Time
}

type BaseAccessGrant struct {
	subject   SubjectID
	gateKey   string
	periodKey string
	createdAt time.Time
}

// CreatedAt implements AccessGrant.
func (g *BaseAccessGrant) CreatedAt() time.Time {
	return g.createdAt
}

// GateKey implements AccessGrant.
func (g *BaseAccessGrant) GateKey() string {
	return g.gateKey
}

// PeriodKey implements AccessGrant.
func (g *BaseAccessGrant) PeriodKey() string {
	return g.periodKey
}

// Subject implements AccessGrant.
func (g *BaseAccessGrant) Subject() SubjectID {
	return g.subject
}

var _ AccessGrant = &BaseAccessGrant{}

func NewAccessGrant(subject SubjectID, gateKey, periodKey string) *BaseAccessGrant {
	return &BaseAccessGrant{
		subject:   subject,
		gateKey:   gateKey,
		periodKey: periodKey,
		createdAt: time.Now().UTC(),
	}
}

type Decision string

const (
	DecisionAuthorized        Decision = "authorized"
	DecisionAlreadyAuthorized Decision = "already_authorized"
	DecisionDenied            Decision = "denied"
)

// Authorization is the outcome of a gated access request. Reason is only set
// when the decision is DecisionDenied.
type Authorization struct {
	Decision Decision
	Reason   error
}

func (a Authorization) Granted() bool {
	return a.Decision == DecisionAuthorized || a.Decision == DecisionAlreadyAuthorized
}
