package models

import "time"

// ProjectBillingRate is the hourly rate charged for one title on one project.
type ProjectBillingRate struct {
	ID        string     `json:"_id" bson:"_id"`
	ProjectID string     `json:"projectId" bson:"projectId"`
	Title     TitleLevel `json:"title" bson:"title"`
	Rate      float64    `json:"rate" bson:"rate"`
}

// ExpenseEntry is a dated expense charged against a deliverable.
type ExpenseEntry struct {
	ID            string    `json:"_id" bson:"_id"`
	ProjectID     string    `json:"projectId" bson:"projectId"`
	DeliverableID string    `json:"deliverableId" bson:"deliverableId"`
	Date          time.Time `json:"date" bson:"date"`
	Amount        float64   `json:"amount" bson:"amount"`
	Category      string    `json:"category" bson:"category"`
	Description   string    `json:"description" bson:"description"`
	Billable      bool      `json:"billable" bson:"billable"`
}

// PricingResult summarises one financial calculation.
type PricingResult struct {
	TotalCost    float64                `json:"totalCost"`
	TotalRevenue float64                `json:"totalRevenue"`
	Expenses     []ExpenseEntry         `json:"expenses"`
	BillingRates map[TitleLevel]float64 `json:"billingRates"`
}
