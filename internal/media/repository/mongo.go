package repository

import (
	"context"
	"errors"
	"sort"

	"github.com/mediashelf/mediashelf/internal/media"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo stores masters and revisions in two collections. Ids are
// ObjectID hex strings kept in _id so they sort by creation order.
type MongoRepo struct {
	masters   *mongo.Collection
	revisions *mongo.Collection
}

func NewMongoRepo(masters, revisions *mongo.Collection) *MongoRepo {
	ctx := context.Background()
	masters.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "isPublic", Value: 1}, {Key: "date", Value: -1}}},
		{Keys: bson.D{{Key: "authorId", Value: 1}}},
	})
	// revision listings are always scoped to one master and ordered by capture time
	revisions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "forMediaDocument", Value: 1}, {Key: "date", Value: 1}},
	})
	return &MongoRepo{masters: masters, revisions: revisions}
}

var (
	_ MediaRepository    = (*MongoRepo)(nil)
	_ RevisionRepository = (*MongoRepo)(nil)
)

func (m *MongoRepo) ListMasters(ctx context.Context, publicOnly bool) ([]*media.Document, error) {
	filter := bson.M{"kind": media.KindMaster}
	if publicOnly {
		filter["isPublic"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := m.masters.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*media.Document{}
	for cur.Next(ctx) {
		var d media.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) GetMaster(ctx context.Context, id string) (*media.Document, error) {
	var d media.Document
	err := m.masters.FindOne(ctx, bson.M{"_id": id, "kind": media.KindMaster}).Decode(&d)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) CreateMaster(ctx context.Context, d *media.Document) (string, error) {
	if d.ID == "" {
		d.ID = primitive.NewObjectID().Hex()
	}
	d.Kind = media.KindMaster
	d.Version = 1
	if d.Tags == nil {
		d.Tags = []string{}
	}
	if _, err := m.masters.InsertOne(ctx, d); err != nil {
		return "", err
	}
	return d.ID, nil
}

func (m *MongoRepo) UpdateMaster(ctx context.Context, d *media.Document, expectedVersion int64) error {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	set := bson.M{
		"title":       d.Title,
		"author":      d.Author,
		"uri":         d.URI,
		"tags":        tags,
		"description": d.Description,
		"isPublic":    d.IsPublic,
		"version":     expectedVersion + 1,
	}
	filter := bson.M{"_id": d.ID, "kind": media.KindMaster, "version": expectedVersion}
	res, err := m.masters.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := m.masters.CountDocuments(ctx, bson.M{"_id": d.ID, "kind": media.KindMaster})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	d.Version = expectedVersion + 1
	return nil
}

func (m *MongoRepo) DeleteMaster(ctx context.Context, id string) error {
	res, err := m.masters.DeleteOne(ctx, bson.M{"_id": id, "kind": media.KindMaster})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepo) ListRevisions(ctx context.Context, masterID string) ([]*media.Revision, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.revisions.Find(ctx, bson.M{"forMediaDocument": masterID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*media.Revision{}
	for cur.Next(ctx) {
		var r media.Revision
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, cur.Err()
}

func (m *MongoRepo) GetRevision(ctx context.Context, id string) (*media.Revision, error) {
	var r media.Revision
	err := m.revisions.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (m *MongoRepo) CreateRevision(ctx context.Context, r *media.Revision) (string, error) {
	if r.ForMediaDocument == "" {
		return "", ErrMissingMaster
	}
	if r.ID == "" {
		r.ID = primitive.NewObjectID().Hex()
	}
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if _, err := m.revisions.InsertOne(ctx, r); err != nil {
		return "", err
	}
	return r.ID, nil
}

func (m *MongoRepo) DeleteRevisions(ctx context.Context, masterID string) (int64, error) {
	res, err := m.revisions.DeleteMany(ctx, bson.M{"forMediaDocument": masterID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *MongoRepo) RevisionMasterIDs(ctx context.Context) ([]string, error) {
	vals, err := m.revisions.Distinct(ctx, "forMediaDocument", bson.M{})
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		if id, ok := v.(string); ok {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}
