package repository

import "github.com/BerniceZTT/consultsim/models"

// Operation is one staged upsert.
type Operation struct {
	Collection string
	ID         string
	Doc        interface{}
}

// Batch collects upserts for a single commit. Later writes to the same key
// replace earlier ones when the batch is applied.
type Batch struct {
	ops   []Operation
	hooks []func()
}

// AfterCommit registers fn to run once every staged write is stored. Hooks
// never run for a batch that fails.
func (b *Batch) AfterCommit(fn func()) {
	b.hooks = append(b.hooks, fn)
}

func (b *Batch) committed() {
	for _, fn := range b.hooks {
		fn()
	}
}

// Operations returns the staged writes in order.
func (b *Batch) Operations() []Operation {
	return b.ops
}

// Len is the number of staged writes.
func (b *Batch) Len() int {
	return len(b.ops)
}

func (b *Batch) put(collection, id string, doc interface{}) {
	b.ops = append(b.ops, Operation{Collection: collection, ID: id, Doc: doc})
}

func (b *Batch) SaveBusinessUnit(u models.BusinessUnit) { b.put(BusinessUnitsCollection, u.ID, u) }
func (b *Batch) SaveClient(c models.Client)             { b.put(ClientsCollection, c.ID, c) }
func (b *Batch) SaveConsultant(c models.Consultant)     { b.put(ConsultantsCollection, c.ID, c) }

func (b *Batch) SaveTitleRecord(r models.TitleHistoryRecord) {
	b.put(TitleHistoryCollection, r.ID, r)
}

func (b *Batch) SavePayroll(r models.PayrollRecord) { b.put(PayrollCollection, r.ID, r) }

// SaveProject stages a copy of p.
func (b *Batch) SaveProject(p *models.Project) { b.put(ProjectsCollection, p.ID, *p) }

func (b *Batch) SaveDeliverable(d models.Deliverable) { b.put(DeliverablesCollection, d.ID, d) }

func (b *Batch) SaveMembership(m models.ProjectTeamMembership) {
	b.put(MembershipsCollection, m.ID, m)
}

func (b *Batch) SaveBillingRate(r models.ProjectBillingRate) {
	b.put(BillingRatesCollection, r.ID, r)
}

func (b *Batch) SaveExpense(e models.ExpenseEntry) { b.put(ExpensesCollection, e.ID, e) }

func (b *Batch) SaveRun(r models.GenerationRun) { b.put(RunsCollection, r.ID, r) }
