package models

import "time"

// TeamRole is a consultant's role on a project team.
type TeamRole string

const (
	RoleProjectManager TeamRole = "Project Manager"
	RoleTeamLead       TeamRole = "Team Lead"
	RoleTeamMember     TeamRole = "Team Member"
)

// MaxTeamLeads caps the number of Team Lead memberships per project.
const MaxTeamLeads = 3

// ProjectTeamMembership links a consultant to a project.
type ProjectTeamMembership struct {
	ID           string     `json:"_id" bson:"_id"`
	ProjectID    string     `json:"projectId" bson:"projectId"`
	ConsultantID string     `json:"consultantId" bson:"consultantId"`
	Role         TeamRole   `json:"role" bson:"role"`
	StartDate    time.Time  `json:"startDate" bson:"startDate"`
	EndDate      *time.Time `json:"endDate,omitempty" bson:"endDate,omitempty"`
}

// ActiveOn reports whether the membership covers day.
func (m ProjectTeamMembership) ActiveOn(day time.Time) bool {
	if day.Before(m.StartDate) {
		return false
	}
	return m.EndDate == nil || !day.After(*m.EndDate)
}

// TeamMember is a staffed consultant as seen by the finance engine.
type TeamMember struct {
	Consultant Consultant `json:"consultant"`
	Title      TitleLevel `json:"title"`
	HireDate   time.Time  `json:"hireDate"`
	Role       TeamRole   `json:"role"`
}
