package models

import (
	"fmt"
	"time"
)

// TitleLevel is a consultant's seniority rank, 1 (junior) to 6 (senior).
type TitleLevel int

const (
	MinTitleLevel TitleLevel = 1
	MaxTitleLevel TitleLevel = 6
)

// Valid reports whether l is inside the title ladder.
func (l TitleLevel) Valid() bool {
	return l >= MinTitleLevel && l <= MaxTitleLevel
}

// TitleLevels returns every level from junior to senior.
func TitleLevels() []TitleLevel {
	levels := make([]TitleLevel, 0, int(MaxTitleLevel))
	for l := MinTitleLevel; l <= MaxTitleLevel; l++ {
		levels = append(levels, l)
	}
	return levels
}

// TitleNames maps each level to its display title.
var TitleNames = map[TitleLevel]string{
	1: "Junior Consultant",
	2: "Consultant",
	3: "Senior Consultant",
	4: "Manager",
	5: "Senior Manager",
	6: "Partner",
}

// Name returns the display title for l.
func (l TitleLevel) Name() string {
	if name, ok := TitleNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level %d", int(l))
}

// PerformanceTier is fixed at hire and governs promotion speed.
type PerformanceTier string

const (
	PerformanceHigh    PerformanceTier = "High"
	PerformanceAverage PerformanceTier = "Average"
	PerformanceLow     PerformanceTier = "Low"
)

// HiringSeason selects the window a hire date is drawn from.
type HiringSeason string

const (
	SeasonSpring HiringSeason = "Spring"
	SeasonFall   HiringSeason = "Fall"
	SeasonOther  HiringSeason = "Other"
)

// EventKind labels the transition that opened a title history record.
type EventKind string

const (
	EventHire      EventKind = "Hire"
	EventPromotion EventKind = "Promotion"
	EventAttrition EventKind = "Attrition"
)

// Consultant is an employee of the simulated firm.
type Consultant struct {
	ID              string          `json:"_id" bson:"_id"`
	BusinessUnitID  string          `json:"businessUnitId,omitempty" bson:"businessUnitId,omitempty"`
	FirstName       string          `json:"firstName" bson:"firstName"`
	LastName        string          `json:"lastName" bson:"lastName"`
	Email           string          `json:"email" bson:"email"`
	Phone           string          `json:"phone" bson:"phone"`
	PerformanceTier PerformanceTier `json:"performanceTier" bson:"performanceTier"`
}

// FullName joins first and last name.
func (c Consultant) FullName() string {
	return c.FirstName + " " + c.LastName
}

// TitleHistoryRecord is one tenure window at a single title level.
// EndDate is nil while the record is current.
type TitleHistoryRecord struct {
	ID           string     `json:"_id" bson:"_id"`
	ConsultantID string     `json:"consultantId" bson:"consultantId"`
	Title        TitleLevel `json:"title" bson:"title"`
	StartDate    time.Time  `json:"startDate" bson:"startDate"`
	EndDate      *time.Time `json:"endDate,omitempty" bson:"endDate,omitempty"`
	EventKind    EventKind  `json:"eventKind" bson:"eventKind"`
	Salary       int        `json:"salary" bson:"salary"`
}

// IsCurrent reports whether the record is still open.
func (r TitleHistoryRecord) IsCurrent() bool {
	return r.EndDate == nil
}

// Covers reports whether day falls inside the record's window.
func (r TitleHistoryRecord) Covers(day time.Time) bool {
	if day.Before(r.StartDate) {
		return false
	}
	return r.EndDate == nil || !day.After(*r.EndDate)
}

// PayrollRecord is one monthly salary payment.
type PayrollRecord struct {
	ID            string    `json:"_id" bson:"_id"`
	ConsultantID  string    `json:"consultantId" bson:"consultantId"`
	Amount        float64   `json:"amount" bson:"amount"`
	EffectiveDate time.Time `json:"effectiveDate" bson:"effectiveDate"`
}

// ConsultantDetail is a consultant with their full career and payroll record.
type ConsultantDetail struct {
	Consultant   Consultant              `json:"consultant"`
	TitleHistory []TitleHistoryRecord    `json:"titleHistory"`
	Payroll      []PayrollRecord         `json:"payroll"`
	Projects     []ProjectTeamMembership `json:"projects"`
}
