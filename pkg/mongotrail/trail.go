package mongotrail

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/flagkit/pkg/audit"
	"github.com/dmitrymomot/flagkit/pkg/repository"
)

// DefaultCollection is the collection name used by the command wiring.
const DefaultCollection = "audit_events"

// Trail stores audit events in a MongoDB collection. It implements
// audit.BatchTrail. Insertion order follows the generated ObjectIDs.
type Trail struct {
	coll *mongo.Collection
}

func New(coll *mongo.Collection) *Trail {
	return &Trail{coll: coll}
}

// document is the stored shape of an event.
type document struct {
	ID         bson.ObjectID     `bson:"_id"`
	UID        string            `bson:"uid"`
	Timestamp  int64             `bson:"ts"`
	Action     string            `bson:"action"`
	Scope      string            `bson:"scope"`
	Source     string            `bson:"source"`
	TargetUID  string            `bson:"target_uid"`
	Owner      string            `bson:"owner,omitempty"`
	Hostname   string            `bson:"hostname,omitempty"`
	Duration   int64             `bson:"duration,omitempty"`
	Value      string            `bson:"value,omitempty"`
	Attributes map[string]string `bson:"attributes,omitempty"`
}

func toDocument(e audit.Event) document {
	return document{
		ID:         bson.NewObjectID(),
		UID:        e.UID,
		Timestamp:  e.Timestamp,
		Action:     string(e.Action),
		Scope:      string(e.Scope),
		Source:     string(e.Source),
		TargetUID:  e.TargetUID,
		Owner:      e.Owner,
		Hostname:   e.Hostname,
		Duration:   e.Duration,
		Value:      e.Value,
		Attributes: e.Attributes,
	}
}

func (d document) event() audit.Event {
	return audit.Event{
		UID:        d.UID,
		Timestamp:  d.Timestamp,
		Action:     audit.Action(d.Action),
		Scope:      audit.Scope(d.Scope),
		Source:     audit.Source(d.Source),
		TargetUID:  d.TargetUID,
		Owner:      d.Owner,
		Hostname:   d.Hostname,
		Duration:   d.Duration,
		Value:      d.Value,
		Attributes: d.Attributes,
	}
}

func (t *Trail) Log(ctx context.Context, e audit.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if _, err := t.coll.InsertOne(ctx, toDocument(e)); err != nil {
		return t.fail("insert", err)
	}
	return nil
}

// LogBatch inserts the events in order. MongoDB does not roll back an
// interrupted InsertMany, so a failure may leave a prefix stored.
func (t *Trail) LogBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}
	docs := make([]any, 0, len(events))
	for _, e := range events {
		if err := e.Validate(); err != nil {
			return err
		}
		docs = append(docs, toDocument(e))
	}
	if _, err := t.coll.InsertMany(ctx, docs); err != nil {
		return t.fail("insert many", err)
	}
	return nil
}

func (t *Trail) Search(ctx context.Context, q audit.Query) ([]audit.Event, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	docs, err := t.find(ctx, q)
	if err != nil {
		return nil, err
	}
	events := make([]audit.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.event())
	}
	return q.Filter(events), nil
}

func (t *Trail) Count(ctx context.Context, q audit.Query) (int64, error) {
	if err := q.Validate(); err != nil {
		return 0, err
	}
	docs, err := t.find(ctx, q)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, d := range docs {
		if q.Match(d.event()) {
			n++
		}
	}
	return n, nil
}

func (t *Trail) Purge(ctx context.Context, q audit.Query) error {
	if err := q.Validate(); err != nil {
		return err
	}
	docs, err := t.find(ctx, q)
	if err != nil {
		return err
	}
	var ids []bson.ObjectID
	for _, d := range docs {
		if q.Match(d.event()) {
			ids = append(ids, d.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	if _, err := t.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return t.fail("delete many", err)
	}
	return nil
}

// CreateSchema creates the indexes used by the trail. It is idempotent.
func (t *Trail) CreateSchema(ctx context.Context) error {
	_, err := t.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "uid", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "ts", Value: 1}}},
	})
	if err != nil {
		return t.fail("create indexes", err)
	}
	return nil
}

// find loads the events inside the query window. Scope, target and action
// are matched in process so comparisons use Unicode folding.
func (t *Trail) find(ctx context.Context, q audit.Query) ([]document, error) {
	cur, err := t.coll.Find(ctx, windowFilter(q), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, t.fail("find", err)
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, t.fail("decode", err)
	}
	return docs, nil
}

func (t *Trail) fail(op string, err error) error {
	return repository.Unavailable(fmt.Errorf("mongotrail: %s %s: %w", op, t.coll.Name(), err))
}

func windowFilter(q audit.Query) bson.M {
	ts := bson.M{}
	if q.From != nil {
		ts["$gte"] = *q.From
	}
	if q.To != nil {
		ts["$lte"] = *q.To
	}
	if len(ts) == 0 {
		return bson.M{}
	}
	return bson.M{"ts": ts}
}
