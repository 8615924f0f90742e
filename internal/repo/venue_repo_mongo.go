package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"wedding-venues-api/internal/domain"
)

type VenueMongoRepo struct{ col *mongo.Collection }

func NewVenueMongoRepo(db *mongo.Database) *VenueMongoRepo {
	return &VenueMongoRepo{col: db.Collection("venues")}
}

var _ domain.VenueRepository = (*VenueMongoRepo)(nil)

func (r *VenueMongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *VenueMongoRepo) Create(ctx context.Context, v *domain.Venue) error {
	now := time.Now()
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	_, err := r.col.InsertOne(ctx, v)
	return err
}

func (r *VenueMongoRepo) FindByID(ctx context.Context, id string) (*domain.Venue, error) {
	var v domain.Venue
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *VenueMongoRepo) List(ctx context.Context) ([]domain.Venue, error) {
	return r.find(ctx, bson.M{})
}

func (r *VenueMongoRepo) ListByAuthor(ctx context.Context, authorID string) ([]domain.Venue, error) {
	return r.find(ctx, bson.M{"author_id": authorID})
}

func (r *VenueMongoRepo) find(ctx context.Context, filter bson.M) ([]domain.Venue, error) {
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	vs := []domain.Venue{}
	if err := cur.All(ctx, &vs); err != nil {
		return nil, err
	}
	return vs, nil
}

func (r *VenueMongoRepo) Update(ctx context.Context, v *domain.Venue) error {
	v.UpdatedAt = time.Now()
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": v.ID}, v)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *VenueMongoRepo) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *VenueMongoRepo) DeleteByAuthor(ctx context.Context, authorID string) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"author_id": authorID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
