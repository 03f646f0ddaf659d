package models

import "time"

// ContractType decides whether a project is priced up front or billed by the hour.
type ContractType string

const (
	ContractFixed            ContractType = "Fixed"
	ContractTimeAndMaterials ContractType = "Time and Material"
)

// ProjectStatus tracks the delivery lifecycle.
type ProjectStatus string

const (
	StatusNotStarted ProjectStatus = "Not Started"
	StatusInProgress ProjectStatus = "In Progress"
	StatusCompleted  ProjectStatus = "Completed"
)

// Project is a client engagement.
type Project struct {
	ID               string        `json:"_id" bson:"_id"`
	ClientID         string        `json:"clientId" bson:"clientId"`
	BusinessUnitID   string        `json:"businessUnitId" bson:"businessUnitId"`
	Name             string        `json:"name" bson:"name"`
	ContractType     ContractType  `json:"contractType" bson:"contractType"`
	Status           ProjectStatus `json:"status" bson:"status"`
	DurationMonths   int           `json:"durationMonths" bson:"durationMonths"`
	PlannedStartDate *time.Time    `json:"plannedStartDate,omitempty" bson:"plannedStartDate,omitempty"`
	PlannedEndDate   *time.Time    `json:"plannedEndDate,omitempty" bson:"plannedEndDate,omitempty"`
	ActualStartDate  *time.Time    `json:"actualStartDate,omitempty" bson:"actualStartDate,omitempty"`
	ActualEndDate    *time.Time    `json:"actualEndDate,omitempty" bson:"actualEndDate,omitempty"`
	PlannedHours     float64       `json:"plannedHours" bson:"plannedHours"`
	TargetHours      float64       `json:"targetHours" bson:"targetHours"`
	ActualHours      float64       `json:"actualHours" bson:"actualHours"`
	Progress         int           `json:"progress" bson:"progress"`
	Price            *float64      `json:"price,omitempty" bson:"price,omitempty"`
	EstimatedBudget  *float64      `json:"estimatedBudget,omitempty" bson:"estimatedBudget,omitempty"`
}

// Scheduled reports whether planned and actual start dates are set.
func (p *Project) Scheduled() bool {
	return p.PlannedStartDate != nil && p.PlannedEndDate != nil && p.ActualStartDate != nil
}

// StartYear is the year of the planned start, or 0 when unscheduled.
func (p *Project) StartYear() int {
	if p.PlannedStartDate == nil {
		return 0
	}
	return p.PlannedStartDate.Year()
}

// Deliverable is a sequenced unit of work inside a project.
type Deliverable struct {
	ID               string        `json:"_id" bson:"_id"`
	ProjectID        string        `json:"projectId" bson:"projectId"`
	Sequence         int           `json:"sequence" bson:"sequence"`
	Name             string        `json:"name" bson:"name"`
	PlannedStartDate time.Time     `json:"plannedStartDate" bson:"plannedStartDate"`
	ActualStartDate  *time.Time    `json:"actualStartDate,omitempty" bson:"actualStartDate,omitempty"`
	DueDate          time.Time     `json:"dueDate" bson:"dueDate"`
	SubmissionDate   *time.Time    `json:"submissionDate,omitempty" bson:"submissionDate,omitempty"`
	Status           ProjectStatus `json:"status" bson:"status"`
	PlannedHours     float64       `json:"plannedHours" bson:"plannedHours"`
	TargetHours      float64       `json:"targetHours" bson:"targetHours"`
	ActualHours      float64       `json:"actualHours" bson:"actualHours"`
	Price            *float64      `json:"price,omitempty" bson:"price,omitempty"`
	Progress         int           `json:"progress" bson:"progress"`
}

// ProjectDetail bundles a project with everything generated for it.
type ProjectDetail struct {
	Project      Project                 `json:"project"`
	Team         []ProjectTeamMembership `json:"team"`
	Deliverables []Deliverable           `json:"deliverables"`
	BillingRates []ProjectBillingRate    `json:"billingRates"`
	Expenses     []ExpenseEntry          `json:"expenses"`
}
