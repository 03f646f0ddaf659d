package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BerniceZTT/consultsim/models"
	"github.com/BerniceZTT/consultsim/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore is the MongoDB-backed Store.
type MongoStore struct {
	client       *mongo.Client
	db           *mongo.Database
	transactions bool
}

// OpenMongo connects to uri, selects dbName and ensures every collection exists.
// With transactions enabled each batch runs in a multi-document transaction,
// which needs a replica set.
func OpenMongo(ctx context.Context, uri, dbName string, transactions bool) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(dbName), transactions: transactions}
	if err := s.initializeCollections(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	utils.Logger.Info().Str("database", dbName).Bool("transactions", transactions).Msg("connected to mongodb")
	return s, nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		utils.Logger.Error().Err(err).Msg("mongodb disconnect failed")
		return err
	}
	utils.Logger.Info().Msg("mongodb disconnected")
	return nil
}

func (s *MongoStore) initializeCollections(ctx context.Context) error {
	existing, err := s.db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}
	for _, name := range Collections {
		if have[name] {
			continue
		}
		if err := s.db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
		utils.Logger.Info().Str("collection", name).Msg("collection created")
	}
	return nil
}

// RunBatch upserts every staged document. Writes share one transaction when
// transactions are enabled; otherwise they are applied in order and the first
// failure stops the batch.
func (s *MongoStore) RunBatch(ctx context.Context, fn func(b *Batch) error) error {
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

	write := func(wctx context.Context) error {
		for _, op := range b.Operations() {
			_, err := s.db.Collection(op.Collection).ReplaceOne(wctx,
				bson.M{"_id": op.ID}, op.Doc, options.Replace().SetUpsert(true))
			if err != nil {
				return fmt.Errorf("write %s %s: %w", op.Collection, op.ID, err)
			}
		}
		return nil
	}

	if !s.transactions {
		if err := write(ctx); err != nil {
			return err
		}
		utils.LogDbOperation("batch", "mongodb", b.Len())
		b.committed()
		return nil
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	if _, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, write(sc)
	}); err != nil {
		return fmt.Errorf("batch transaction: %w", err)
	}
	utils.LogDbOperation("batch", "mongodb", b.Len())
	b.committed()
	return nil
}

// Count returns the number of documents in a collection.
func (s *MongoStore) Count(ctx context.Context, collection string) (int64, error) {
	n, err := s.db.Collection(collection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var out []T
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return out, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, id string) (*T, error) {
	var doc T
	err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", coll.Name(), id, err)
	}
	return &doc, nil
}

func sortBy(keys ...string) *options.FindOptions {
	sort := bson.D{}
	for _, k := range keys {
		sort = append(sort, bson.E{Key: k, Value: 1})
	}
	return options.Find().SetSort(sort)
}

func withPage(opts *options.FindOptions, p Page) *options.FindOptions {
	if p.Offset > 0 {
		opts.SetSkip(p.Offset)
	}
	if p.Limit > 0 {
		opts.SetLimit(p.Limit)
	}
	return opts
}

func (s *MongoStore) ListBusinessUnits(ctx context.Context) ([]models.BusinessUnit, error) {
	return findAll[models.BusinessUnit](ctx, s.db.Collection(BusinessUnitsCollection), bson.M{}, sortBy("_id"))
}

func (s *MongoStore) ListClients(ctx context.Context) ([]models.Client, error) {
	return findAll[models.Client](ctx, s.db.Collection(ClientsCollection), bson.M{}, sortBy("_id"))
}

func (s *MongoStore) ListConsultants(ctx context.Context, page Page) ([]models.Consultant, error) {
	return findAll[models.Consultant](ctx, s.db.Collection(ConsultantsCollection), bson.M{}, withPage(sortBy("_id"), page))
}

func (s *MongoStore) GetConsultant(ctx context.Context, id string) (*models.Consultant, error) {
	return findOne[models.Consultant](ctx, s.db.Collection(ConsultantsCollection), id)
}

func (s *MongoStore) ListTitleHistory(ctx context.Context, q TitleHistoryQuery) ([]models.TitleHistoryRecord, error) {
	filter := bson.M{}
	if q.ConsultantID != "" {
		filter["consultantId"] = q.ConsultantID
	}
	if q.StartedOnOrBefore != nil {
		filter["startDate"] = bson.M{"$lte": *q.StartedOnOrBefore}
	}
	return findAll[models.TitleHistoryRecord](ctx, s.db.Collection(TitleHistoryCollection), filter,
		sortBy("consultantId", "startDate", "_id"))
}

func (s *MongoStore) ListPayroll(ctx context.Context, consultantID string) ([]models.PayrollRecord, error) {
	filter := bson.M{}
	if consultantID != "" {
		filter["consultantId"] = consultantID
	}
	return findAll[models.PayrollRecord](ctx, s.db.Collection(PayrollCollection), filter,
		sortBy("consultantId", "effectiveDate", "_id"))
}

func projectFilter(q ProjectQuery) bson.M {
	filter := bson.M{}
	status := bson.M{}
	if q.Status != "" {
		status["$eq"] = q.Status
	}
	if q.Open {
		status["$ne"] = models.StatusCompleted
	}
	if len(status) > 0 {
		filter["status"] = status
	}
	if q.StartYear != 0 {
		filter["plannedStartDate"] = bson.M{
			"$gte": utils.Date(q.StartYear, time.January, 1),
			"$lt":  utils.Date(q.StartYear+1, time.January, 1),
		}
	}
	return filter
}

func (s *MongoStore) ListProjects(ctx context.Context, q ProjectQuery) ([]models.Project, error) {
	return findAll[models.Project](ctx, s.db.Collection(ProjectsCollection), projectFilter(q), withPage(sortBy("_id"), q.Page))
}

func (s *MongoStore) CountProjects(ctx context.Context, q ProjectQuery) (int64, error) {
	n, err := s.db.Collection(ProjectsCollection).CountDocuments(ctx, projectFilter(q))
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}

func (s *MongoStore) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return findOne[models.Project](ctx, s.db.Collection(ProjectsCollection), id)
}

// CountProjectsByUnit groups the year's projects by business unit with an
// aggregation pipeline.
func (s *MongoStore) CountProjectsByUnit(ctx context.Context, year int) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"plannedStartDate": bson.M{
			"$gte": utils.Date(year, time.January, 1),
			"$lt":  utils.Date(year+1, time.January, 1),
		}}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$businessUnitId",
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := s.db.Collection(ProjectsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate projects by unit: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []struct {
		ID    string `bson:"_id"`
		Count int    `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode unit counts: %w", err)
	}
	counts := make(map[string]int, len(groups))
	for _, g := range groups {
		counts[g.ID] = g.Count
	}
	return counts, nil
}

func (s *MongoStore) ListDeliverables(ctx context.Context, projectID string) ([]models.Deliverable, error) {
	return findAll[models.Deliverable](ctx, s.db.Collection(DeliverablesCollection),
		bson.M{"projectId": projectID}, sortBy("sequence", "_id"))
}

func (s *MongoStore) ListMemberships(ctx context.Context, q MembershipQuery) ([]models.ProjectTeamMembership, error) {
	filter := bson.M{}
	if q.ProjectID != "" {
		filter["projectId"] = q.ProjectID
	}
	if q.ConsultantID != "" {
		filter["consultantId"] = q.ConsultantID
	}
	if q.OpenOnly {
		filter["endDate"] = nil
	}
	return findAll[models.ProjectTeamMembership](ctx, s.db.Collection(MembershipsCollection), filter,
		sortBy("projectId", "startDate", "_id"))
}

func (s *MongoStore) ListBillingRates(ctx context.Context, projectID string) ([]models.ProjectBillingRate, error) {
	return findAll[models.ProjectBillingRate](ctx, s.db.Collection(BillingRatesCollection),
		bson.M{"projectId": projectID}, sortBy("title"))
}

func (s *MongoStore) ListExpenses(ctx context.Context, q ExpenseQuery) ([]models.ExpenseEntry, error) {
	filter := bson.M{}
	if q.ProjectID != "" {
		filter["projectId"] = q.ProjectID
	}
	if q.DeliverableID != "" {
		filter["deliverableId"] = q.DeliverableID
	}
	return findAll[models.ExpenseEntry](ctx, s.db.Collection(ExpensesCollection), filter, sortBy("date", "_id"))
}

func (s *MongoStore) ListRuns(ctx context.Context) ([]models.GenerationRun, error) {
	opts := options.Find().SetSort(bson.D{{Key: "startedAt", Value: -1}, {Key: "_id", Value: 1}})
	return findAll[models.GenerationRun](ctx, s.db.Collection(RunsCollection), bson.M{}, opts)
}

func (s *MongoStore) GetRun(ctx context.Context, id string) (*models.GenerationRun, error) {
	return findOne[models.GenerationRun](ctx, s.db.Collection(RunsCollection), id)
}

// retryableCodes are server error codes that signal a transient condition.
var retryableCodes = map[int32]bool{
	6:     true, // HostUnreachable
	7:     true, // HostNotFound
	89:    true, // NetworkTimeout
	91:    true, // ShutdownInProgress
	189:   true, // PrimarySteppedDown
	10107: true, // NotWritablePrimary
	13436: true, // NotPrimaryNoSecondaryOk
	11600: true, // InterruptedAtShutdown
	11602: true, // InterruptedDueToReplStateChange
}

var networkErrorFragments = []string{
	"connection refused",
	"connection reset",
	"connection closed",
	"no reachable servers",
	"server selection error",
	"i/o timeout",
}

// IsTransientError reports whether err looks like a storage hiccup that a
// caller might retry. Batches are never retried here.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		if retryableCodes[cmdErr.Code] || cmdErr.HasErrorLabel("TransientTransactionError") {
			return true
		}
	}
	if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range networkErrorFragments {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return strings.Contains(msg, "database is locked")
}
