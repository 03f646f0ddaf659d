package models

import "time"

// ConsultantStaffingState is the per-consultant working state of one staffing pass.
// It is derived from title history and memberships and never persisted.
type ConsultantStaffingState struct {
	ConsultantID       string
	Title              TitleLevel
	BusinessUnitID     string
	HireDate           time.Time
	LastProjectDate    time.Time
	ActiveProjectCount int
}

// ProjectStaffingState is the staffing engine's view of one project team.
type ProjectStaffingState struct {
	ProjectID      string
	TargetTeamSize int
	Roster         []string
	RemainingSlots int
}

// Has reports whether consultantID is on the roster.
func (s *ProjectStaffingState) Has(consultantID string) bool {
	for _, id := range s.Roster {
		if id == consultantID {
			return true
		}
	}
	return false
}
