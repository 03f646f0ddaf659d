package models

import "time"

// BusinessUnit is a regional division of the firm.
type BusinessUnit struct {
	ID   string `bson:"_id" json:"_id"`
	Name string `bson:"name" json:"name"`
}

// Client is a customer that commissions projects.
type Client struct {
	ID      string `bson:"_id" json:"_id"`
	Name    string `bson:"name" json:"name"`
	Region  string `bson:"region" json:"region"`
	City    string `bson:"city" json:"city"`
	Country string `bson:"country" json:"country"`
	Phone   string `bson:"phone" json:"phone"`
	Email   string `bson:"email" json:"email"`
}

// RunStatus is the state of a generation run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunSummary counts what a generation run produced.
type RunSummary struct {
	Consultants  int `bson:"consultants" json:"consultants"`
	Hires        int `bson:"hires" json:"hires"`
	Promotions   int `bson:"promotions" json:"promotions"`
	Attritions   int `bson:"attritions" json:"attritions"`
	Projects     int `bson:"projects" json:"projects"`
	Completed    int `bson:"completed" json:"completed"`
	Memberships  int `bson:"memberships" json:"memberships"`
	Expenses     int `bson:"expenses" json:"expenses"`
	PayrollRows  int `bson:"payrollRows" json:"payrollRows"`
	Unstaffed    int `bson:"unstaffed" json:"unstaffed"`
	ClientsAdded int `bson:"clientsAdded" json:"clientsAdded"`
}

// GenerationRun records one invocation of the simulation.
type GenerationRun struct {
	ID         string     `bson:"_id" json:"_id"`
	Seed       int64      `bson:"seed" json:"seed"`
	StartYear  int        `bson:"startYear" json:"startYear"`
	EndYear    int        `bson:"endYear" json:"endYear"`
	SlotCount  int        `bson:"slotCount" json:"slotCount"`
	Status     RunStatus  `bson:"status" json:"status"`
	StartedAt  time.Time  `bson:"startedAt" json:"startedAt"`
	FinishedAt *time.Time `bson:"finishedAt,omitempty" json:"finishedAt,omitempty"`
	Error      string     `bson:"error,omitempty" json:"error,omitempty"`
	Retryable  bool       `bson:"retryable" json:"retryable"`
	Summary    RunSummary `bson:"summary" json:"summary"`
}
