package repository

import (
	"context"
	"errors"
	"time"

	"github.com/BerniceZTT/consultsim/models"
)

// Collection names, shared by both backends.
const (
	BusinessUnitsCollection = "businessUnits"
	ClientsCollection       = "clients"
	ConsultantsCollection   = "consultants"
	TitleHistoryCollection  = "titleHistory"
	ProjectsCollection      = "projects"
	DeliverablesCollection  = "deliverables"
	MembershipsCollection   = "projectTeam"
	BillingRatesCollection  = "billingRates"
	ExpensesCollection      = "expenses"
	PayrollCollection       = "payroll"
	RunsCollection          = "generationRuns"
)

// Collections lists every collection in dependency order.
var Collections = []string{
	BusinessUnitsCollection,
	ClientsCollection,
	ConsultantsCollection,
	TitleHistoryCollection,
	ProjectsCollection,
	DeliverablesCollection,
	MembershipsCollection,
	BillingRatesCollection,
	ExpensesCollection,
	PayrollCollection,
	RunsCollection,
}

// ErrNotFound is returned when a keyed lookup matches nothing.
var ErrNotFound = errors.New("record not found")

// Page limits a listing. The zero value returns everything.
type Page struct {
	Limit  int64
	Offset int64
}

// TitleHistoryQuery filters title history. Results are ordered by consultant
// ID, then start date.
type TitleHistoryQuery struct {
	ConsultantID      string
	StartedOnOrBefore *time.Time
}

// MembershipQuery filters team memberships. Results are ordered by project ID,
// start date, then ID.
type MembershipQuery struct {
	ProjectID    string
	ConsultantID string
	OpenOnly     bool
}

// ProjectQuery filters projects. Results are ordered by ID.
type ProjectQuery struct {
	Status    models.ProjectStatus
	StartYear int
	Open      bool
	Page      Page
}

// ExpenseQuery filters expense entries. Results are ordered by date, then ID.
type ExpenseQuery struct {
	ProjectID     string
	DeliverableID string
}

// Store is the persistence contract the engines and the API depend on.
type Store interface {
	ListBusinessUnits(ctx context.Context) ([]models.BusinessUnit, error)
	ListClients(ctx context.Context) ([]models.Client, error)

	ListConsultants(ctx context.Context, page Page) ([]models.Consultant, error)
	GetConsultant(ctx context.Context, id string) (*models.Consultant, error)
	ListTitleHistory(ctx context.Context, q TitleHistoryQuery) ([]models.TitleHistoryRecord, error)
	ListPayroll(ctx context.Context, consultantID string) ([]models.PayrollRecord, error)

	ListProjects(ctx context.Context, q ProjectQuery) ([]models.Project, error)
	CountProjects(ctx context.Context, q ProjectQuery) (int64, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	// CountProjectsByUnit groups projects planned to start in year by business unit.
	CountProjectsByUnit(ctx context.Context, year int) (map[string]int, error)
	ListDeliverables(ctx context.Context, projectID string) ([]models.Deliverable, error)
	ListMemberships(ctx context.Context, q MembershipQuery) ([]models.ProjectTeamMembership, error)
	ListBillingRates(ctx context.Context, projectID string) ([]models.ProjectBillingRate, error)
	ListExpenses(ctx context.Context, q ExpenseQuery) ([]models.ExpenseEntry, error)

	ListRuns(ctx context.Context) ([]models.GenerationRun, error)
	GetRun(ctx context.Context, id string) (*models.GenerationRun, error)

	// Count returns the number of documents in a collection.
	Count(ctx context.Context, collection string) (int64, error)
	// RunBatch stages writes through fn and commits them as one unit. Nothing
	// is written when fn or any write fails.
	RunBatch(ctx context.Context, fn func(b *Batch) error) error
	Close(ctx context.Context) error
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MongoStore)(nil)
)
