package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/repository/migrations"
	"github.com/BerniceZTT/consultsim/utils"
	_ "modernc.org/sqlite"
)

var sqliteTables = map[string]string{
	BusinessUnitsCollection: "business_units",
	ClientsCollection:       "clients",
	ConsultantsCollection:   "consultants",
	TitleHistoryCollection:  "title_history",
	ProjectsCollection:      "projects",
	DeliverablesCollection:  "deliverables",
	MembershipsCollection:   "project_team",
	BillingRatesCollection:  "billing_rates",
	ExpensesCollection:      "expenses",
	PayrollCollection:       "payroll",
	RunsCollection:          "generation_runs",
}

// SQLiteStore is the file-backed Store.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and applies pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Writes are serialized through one connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	utils.Logger.Info().Str("path", path).Msg("sqlite store ready")
	return &SQLiteStore{db: db}, nil
}

// Close releases the connection.
func (s *SQLiteStore) Close(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RunBatch applies every staged write inside one transaction.
func (s *SQLiteStore) RunBatch(ctx context.Context, fn func(b *Batch) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b := &Batch{}
	if err := fn(b); err != nil {
		return err
	}
	if b.Len() == 0 {
		b.committed()
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	for _, op := range b.Operations() {
		if err := applySQLite(ctx, tx, op); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("write %s %s: %w", op.Collection, op.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	utils.LogDbOperation("batch", "sqlite", b.Len())
	b.committed()
	return nil
}

func applySQLite(ctx context.Context, tx *sql.Tx, op Operation) error {
	var (
		query string
		args  []interface{}
	)
	switch doc := op.Doc.(type) {
	case models.BusinessUnit:
		query = `INSERT OR REPLACE INTO business_units (id, name) VALUES (?, ?)`
		args = []interface{}{doc.ID, doc.Name}
	case models.Client:
		query = `INSERT OR REPLACE INTO clients (id, name, region, city, country, phone, email) VALUES (?, ?, ?, ?, ?, ?, ?)`
		args = []interface{}{doc.ID, doc.Name, doc.Region, doc.City, doc.Country, doc.Phone, doc.Email}
	case models.Consultant:
		query = `INSERT OR REPLACE INTO consultants (id, business_unit_id, first_name, last_name, email, phone, performance_tier) VALUES (?, ?, ?, ?, ?, ?, ?)`
		args = []interface{}{doc.ID, doc.BusinessUnitID, doc.FirstName, doc.LastName, doc.Email, doc.Phone, string(doc.PerformanceTier)}
	case models.TitleHistoryRecord:
		query = `INSERT OR REPLACE INTO title_history (id, consultant_id, title, start_date, end_date, event_kind, salary) VALUES (?, ?, ?, ?, ?, ?, ?)`
		args = []interface{}{doc.ID, doc.ConsultantID, int(doc.Title), dateText(doc.StartDate), nullDate(doc.EndDate), string(doc.EventKind), doc.Salary}
	case models.Project:
		query = `INSERT OR REPLACE INTO projects (id, client_id, business_unit_id, name, contract_type, status, duration_months,
planned_start_date, planned_end_date, actual_start_date, actual_end_date, planned_hours, target_hours, actual_hours,
progress, price, estimated_budget) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		args = []interface{}{doc.ID, doc.ClientID, doc.BusinessUnitID, doc.Name, string(doc.ContractType), string(doc.Status),
			doc.DurationMonths, nullDate(doc.PlannedStartDate), nullDate(doc.PlannedEndDate), nullDate(doc.ActualStartDate),
			nullDate(doc.ActualEndDate), doc.PlannedHours, doc.TargetHours, doc.ActualHours, doc.Progress,
			nullFloat(doc.Price), nullFloat(doc.EstimatedBudget)}
	case models.Deliverable:
		query = `INSERT OR REPLACE INTO deliverables (id, project_id, sequence, name, planned_start_date, actual_start_date,
due_date, submission_date, status, planned_hours, target_hours, actual_hours, price, progress)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		args = []interface{}{doc.ID, doc.ProjectID, doc.Sequence, doc.Name, dateText(doc.PlannedStartDate),
			nullDate(doc.ActualStartDate), dateText(doc.DueDate), nullDate(doc.SubmissionDate), string(doc.Status),
			doc.PlannedHours, doc.TargetHours, doc.ActualHours, nullFloat(doc.Price), doc.Progress}
	case models.ProjectTeamMembership:
		query = `INSERT OR REPLACE INTO project_team (id, project_id, consultant_id, role, start_date, end_date) VALUES (?, ?, ?, ?, ?, ?)`
		args = []interface{}{doc.ID, doc.ProjectID, doc.ConsultantID, string(doc.Role), dateText(doc.StartDate), nullDate(doc.EndDate)}
	case models.ProjectBillingRate:
		query = `INSERT OR REPLACE INTO billing_rates (id, project_id, title, rate) VALUES (?, ?, ?, ?)`
		args = []interface{}{doc.ID, doc.ProjectID, int(doc.Title), doc.Rate}
	case models.ExpenseEntry:
		query = `INSERT OR REPLACE INTO expenses (id, project_id, deliverable_id, date, amount, category, description, billable) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
		args = []interface{}{doc.ID, doc.ProjectID, doc.DeliverableID, dateText(doc.Date), doc.Amount, doc.Category, doc.Description, doc.Billable}
	case models.PayrollRecord:
		query = `INSERT OR REPLACE INTO payroll (id, consultant_id, amount, effective_date) VALUES (?, ?, ?, ?)`
		args = []interface{}{doc.ID, doc.ConsultantID, doc.Amount, dateText(doc.EffectiveDate)}
	case models.GenerationRun:
		summary, err := json.Marshal(doc.Summary)
		if err != nil {
			return fmt.Errorf("encode run summary: %w", err)
		}
		var finished interface{}
		if doc.FinishedAt != nil {
			finished = doc.FinishedAt.UTC().Format(time.RFC3339Nano)
		}
		query = `INSERT OR REPLACE INTO generation_runs (id, seed, start_year, end_year, slot_count, status, started_at,
finished_at, error, retryable, summary) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		args = []interface{}{doc.ID, doc.Seed, doc.StartYear, doc.EndYear, doc.SlotCount, string(doc.Status),
			doc.StartedAt.UTC().Format(time.RFC3339Nano), finished, doc.Error, doc.Retryable, string(summary)}
	default:
		return fmt.Errorf("unsupported document type %T", op.Doc)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// Count returns the row count of a collection.
func (s *SQLiteStore) Count(ctx context.Context, collection string) (int64, error) {
	table, ok := sqliteTables[collection]
	if !ok {
		return 0, fmt.Errorf("unknown collection %q", collection)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func (s *SQLiteStore) ListBusinessUnits(ctx context.Context) ([]models.BusinessUnit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM business_units ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list business units: %w", err)
	}
	defer rows.Close()

	var out []models.BusinessUnit
	for rows.Next() {
		var u models.BusinessUnit
		if err := rows.Scan(&u.ID, &u.Name); err != nil {
			return nil, fmt.Errorf("scan business unit: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListClients(ctx context.Context) ([]models.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, region, city, country, phone, email FROM clients ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Region, &c.City, &c.Country, &c.Phone, &c.Email); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

const consultantColumns = `id, business_unit_id, first_name, last_name, email, phone, performance_tier`

func scanConsultant(sc scanner) (models.Consultant, error) {
	var (
		c    models.Consultant
		tier string
	)
	err := sc.Scan(&c.ID, &c.BusinessUnitID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &tier)
	c.PerformanceTier = models.PerformanceTier(tier)
	return c, err
}

func (s *SQLiteStore) ListConsultants(ctx context.Context, page Page) ([]models.Consultant, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+consultantColumns+` FROM consultants ORDER BY id`+limitClause(page))
	if err != nil {
		return nil, fmt.Errorf("list consultants: %w", err)
	}
	defer rows.Close()

	var out []models.Consultant
	for rows.Next() {
		c, err := scanConsultant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan consultant: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetConsultant(ctx context.Context, id string) (*models.Consultant, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+consultantColumns+` FROM consultants WHERE id = ?`, id)
	c, err := scanConsultant(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get consultant %s: %w", id, err)
	}
	return &c, nil
}

func (s *SQLiteStore) ListTitleHistory(ctx context.Context, q TitleHistoryQuery) ([]models.TitleHistoryRecord, error) {
	var w where
	if q.ConsultantID != "" {
		w.add("consultant_id = ?", q.ConsultantID)
	}
	if q.StartedOnOrBefore != nil {
		w.add("start_date <= ?", dateText(*q.StartedOnOrBefore))
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, consultant_id, title, start_date, end_date, event_kind, salary
FROM title_history`+w.String()+` ORDER BY consultant_id, start_date, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list title history: %w", err)
	}
	defer rows.Close()

	var out []models.TitleHistoryRecord
	for rows.Next() {
		var (
			r           models.TitleHistoryRecord
			title       int
			start, kind string
			end         sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.ConsultantID, &title, &start, &end, &kind, &r.Salary); err != nil {
			return nil, fmt.Errorf("scan title record: %w", err)
		}
		r.Title = models.TitleLevel(title)
		r.EventKind = models.EventKind(kind)
		if r.StartDate, err = parseDate(start); err != nil {
			return nil, err
		}
		if r.EndDate, err = parseNullDate(end); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListPayroll(ctx context.Context, consultantID string) ([]models.PayrollRecord, error) {
	var w where
	if consultantID != "" {
		w.add("consultant_id = ?", consultantID)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, consultant_id, amount, effective_date FROM payroll`+w.String()+
		` ORDER BY consultant_id, effective_date, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list payroll: %w", err)
	}
	defer rows.Close()

	var out []models.PayrollRecord
	for rows.Next() {
		var (
			r   models.PayrollRecord
			day string
		)
		if err := rows.Scan(&r.ID, &r.ConsultantID, &r.Amount, &day); err != nil {
			return nil, fmt.Errorf("scan payroll: %w", err)
		}
		if r.EffectiveDate, err = parseDate(day); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const projectColumns = `id, client_id, business_unit_id, name, contract_type, status, duration_months,
planned_start_date, planned_end_date, actual_start_date, actual_end_date, planned_hours, target_hours,
actual_hours, progress, price, estimated_budget`

func scanProject(sc scanner) (models.Project, error) {
	var (
		p                        models.Project
		contract, status         string
		plannedStart, plannedEnd sql.NullString
		actualStart, actualEnd   sql.NullString
		price, budget            sql.NullFloat64
	)
	if err := sc.Scan(&p.ID, &p.ClientID, &p.BusinessUnitID, &p.Name, &contract, &status, &p.DurationMonths,
		&plannedStart, &plannedEnd, &actualStart, &actualEnd, &p.PlannedHours, &p.TargetHours,
		&p.ActualHours, &p.Progress, &price, &budget); err != nil {
		return p, err
	}
	p.ContractType = models.ContractType(contract)
	p.Status = models.ProjectStatus(status)
	var err error
	for _, f := range []struct {
		dst **time.Time
		src sql.NullString
	}{
		{&p.PlannedStartDate, plannedStart},
		{&p.PlannedEndDate, plannedEnd},
		{&p.ActualStartDate, actualStart},
		{&p.ActualEndDate, actualEnd},
	} {
		if *f.dst, err = parseNullDate(f.src); err != nil {
			return p, err
		}
	}
	p.Price = floatPtr(price)
	p.EstimatedBudget = floatPtr(budget)
	return p, nil
}

func projectWhere(q ProjectQuery) where {
	var w where
	if q.Status != "" {
		w.add("status = ?", string(q.Status))
	}
	if q.Open {
		w.add("status <> ?", string(models.StatusCompleted))
	}
	if q.StartYear != 0 {
		w.add("planned_start_date >= ? AND planned_start_date < ?",
			dateText(utils.Date(q.StartYear, time.January, 1)),
			dateText(utils.Date(q.StartYear+1, time.January, 1)))
	}
	return w
}

func (s *SQLiteStore) ListProjects(ctx context.Context, q ProjectQuery) ([]models.Project, error) {
	w := projectWhere(q)
	rows, err := s.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects`+w.String()+` ORDER BY id`+limitClause(q.Page), w.args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CountProjects(ctx context.Context, q ProjectQuery) (int64, error) {
	w := projectWhere(q)
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	p, err := scanProject(s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return &p, nil
}

func (s *SQLiteStore) CountProjectsByUnit(ctx context.Context, year int) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT business_unit_id, COUNT(*) FROM projects
WHERE planned_start_date >= ? AND planned_start_date < ? GROUP BY business_unit_id`,
		dateText(utils.Date(year, time.January, 1)), dateText(utils.Date(year+1, time.January, 1)))
	if err != nil {
		return nil, fmt.Errorf("count projects by unit: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			unit string
			n    int
		)
		if err := rows.Scan(&unit, &n); err != nil {
			return nil, fmt.Errorf("scan unit count: %w", err)
		}
		counts[unit] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) ListDeliverables(ctx context.Context, projectID string) ([]models.Deliverable, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, project_id, sequence, name, planned_start_date, actual_start_date,
due_date, submission_date, status, planned_hours, target_hours, actual_hours, price, progress
FROM deliverables WHERE project_id = ? ORDER BY sequence, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list deliverables: %w", err)
	}
	defer rows.Close()

	var out []models.Deliverable
	for rows.Next() {
		var (
			d                         models.Deliverable
			plannedStart, due, status string
			actualStart, submitted    sql.NullString
			price                     sql.NullFloat64
		)
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Sequence, &d.Name, &plannedStart, &actualStart, &due,
			&submitted, &status, &d.PlannedHours, &d.TargetHours, &d.ActualHours, &price, &d.Progress); err != nil {
			return nil, fmt.Errorf("scan deliverable: %w", err)
		}
		d.Status = models.ProjectStatus(status)
		d.Price = floatPtr(price)
		if d.PlannedStartDate, err = parseDate(plannedStart); err != nil {
			return nil, err
		}
		if d.DueDate, err = parseDate(due); err != nil {
			return nil, err
		}
		if d.ActualStartDate, err = parseNullDate(actualStart); err != nil {
			return nil, err
		}
		if d.SubmissionDate, err = parseNullDate(submitted); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListMemberships(ctx context.Context, q MembershipQuery) ([]models.ProjectTeamMembership, error) {
	var w where
	if q.ProjectID != "" {
		w.add("project_id = ?", q.ProjectID)
	}
	if q.ConsultantID != "" {
		w.add("consultant_id = ?", q.ConsultantID)
	}
	if q.OpenOnly {
		w.add("end_date IS NULL")
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, project_id, consultant_id, role, start_date, end_date
FROM project_team`+w.String()+` ORDER BY project_id, start_date, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var out []models.ProjectTeamMembership
	for rows.Next() {
		var (
			m           models.ProjectTeamMembership
			role, start string
			end         sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.ConsultantID, &role, &start, &end); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		m.Role = models.TeamRole(role)
		if m.StartDate, err = parseDate(start); err != nil {
			return nil, err
		}
		if m.EndDate, err = parseNullDate(end); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListBillingRates(ctx context.Context, projectID string) ([]models.ProjectBillingRate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, project_id, title, rate FROM billing_rates WHERE project_id = ? ORDER BY title`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list billing rates: %w", err)
	}
	defer rows.Close()

	var out []models.ProjectBillingRate
	for rows.Next() {
		var (
			r     models.ProjectBillingRate
			title int
		)
		if err := rows.Scan(&r.ID, &r.ProjectID, &title, &r.Rate); err != nil {
			return nil, fmt.Errorf("scan billing rate: %w", err)
		}
		r.Title = models.TitleLevel(title)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListExpenses(ctx context.Context, q ExpenseQuery) ([]models.ExpenseEntry, error) {
	var w where
	if q.ProjectID != "" {
		w.add("project_id = ?", q.ProjectID)
	}
	if q.DeliverableID != "" {
		w.add("deliverable_id = ?", q.DeliverableID)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, project_id, deliverable_id, date, amount, category, description, billable
FROM expenses`+w.String()+` ORDER BY date, id`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []models.ExpenseEntry
	for rows.Next() {
		var (
			e   models.ExpenseEntry
			day string
		)
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.DeliverableID, &day, &e.Amount, &e.Category, &e.Description, &e.Billable); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		if e.Date, err = parseDate(day); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

const runColumns = `id, seed, start_year, end_year, slot_count, status, started_at, finished_at, error, retryable, summary`

func scanRun(sc scanner) (models.GenerationRun, error) {
	var (
		r                        models.GenerationRun
		status, started, summary string
		finished                 sql.NullString
	)
	if err := sc.Scan(&r.ID, &r.Seed, &r.StartYear, &r.EndYear, &r.SlotCount, &status, &started, &finished,
		&r.Error, &r.Retryable, &summary); err != nil {
		return r, err
	}
	r.Status = models.RunStatus(status)
	var err error
	if r.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
		return r, fmt.Errorf("parse started_at: %w", err)
	}
	if finished.Valid {
		t, err := time.Parse(time.RFC3339Nano, finished.String)
		if err != nil {
			return r, fmt.Errorf("parse finished_at: %w", err)
		}
		r.FinishedAt = &t
	}
	if err := json.Unmarshal([]byte(summary), &r.Summary); err != nil {
		return r, fmt.Errorf("decode run summary: %w", err)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context) ([]models.GenerationRun, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM generation_runs ORDER BY started_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []models.GenerationRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*models.GenerationRun, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM generation_runs WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	return &r, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

type where struct {
	clauses []string
	args    []interface{}
}

func (w *where) add(clause string, args ...interface{}) {
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, args...)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func limitClause(p Page) string {
	if p.Limit <= 0 && p.Offset <= 0 {
		return ""
	}
	limit := p.Limit
	if limit <= 0 {
		limit = -1
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, p.Offset)
}

func dateText(t time.Time) string {
	return t.UTC().Format(utils.DateLayout)
}

func nullDate(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return dateText(*t)
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(utils.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func parseNullDate(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}
