package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"wedding-venues-api/internal/domain"
)

func userDoc(id, email string, created time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "first_name", Value: "Ada"},
		{Key: "email", Value: email},
		{Key: "is_verified", Value: false},
		{Key: "email_token", Value: "tok-" + id},
		{Key: "created_at", Value: primitive.NewDateTimeFromTime(created)},
	}
}

func venueDoc(id, author string, created time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "name", Value: "Venue " + id},
		{Key: "services", Value: bson.A{"catering", "music"}},
		{Key: "author_id", Value: author},
		{Key: "cover_img", Value: bson.D{{Key: "public_id", Value: "pid-" + id}, {Key: "url", Value: "http://img/" + id}}},
		{Key: "created_at", Value: primitive.NewDateTimeFromTime(created)},
	}
}

// sortOf 取最近一次 find 命令的 created_at 排序方向
func sortOf(mt *mtest.T) int64 {
	mt.Helper()
	ev := mt.GetStartedEvent()
	require.NotNil(mt, ev)
	require.Equal(mt, "find", ev.CommandName)
	return ev.Command.Lookup("sort", "created_at").AsInt64()
}

func TestUserMongoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)

	mt.Run("create and find", func(mt *mtest.T) {
		r := NewUserMongoRepo(mt.DB)
		ns := mt.DB.Name() + ".users"
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, userDoc("u1", "ada@example.com", base)),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, userDoc("u1", "ada@example.com", base)),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		u := &domain.User{ID: "u1", Email: "ada@example.com"}
		require.NoError(mt, r.Create(ctx, u))
		assert.False(mt, u.CreatedAt.IsZero())

		got, err := r.FindByEmail(ctx, "ada@example.com")
		require.NoError(mt, err)
		require.NotNil(mt, got)
		assert.Equal(mt, "u1", got.ID)

		got, err = r.FindByEmailToken(ctx, "tok-u1")
		require.NoError(mt, err)
		require.NotNil(mt, got)
		assert.Equal(mt, "tok-u1", got.EmailToken)

		missing, err := r.FindByID(ctx, "nope")
		require.NoError(mt, err)
		assert.Nil(mt, missing)

		// 空 token 不查库
		got, err = r.FindByEmailToken(ctx, "")
		require.NoError(mt, err)
		assert.Nil(mt, got)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		r := NewUserMongoRepo(mt.DB)
		dup := mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error collection: users index: email_1"}
		mt.AddMockResponses(
			mtest.CreateWriteErrorsResponse(dup),
			mtest.CreateWriteErrorsResponse(dup),
		)
		err := r.Create(ctx, &domain.User{ID: "b", Email: "same@example.com"})
		assert.ErrorIs(mt, err, domain.ErrDuplicateEmail)

		err = r.Update(ctx, &domain.User{ID: "b", Email: "same@example.com"})
		assert.ErrorIs(mt, err, domain.ErrDuplicateEmail)
	})

	mt.Run("list newest first", func(mt *mtest.T) {
		r := NewUserMongoRepo(mt.DB)
		ns := mt.DB.Name() + ".users"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			userDoc("new", "new@example.com", base.Add(2*time.Minute)),
			userDoc("old", "old@example.com", base),
		))
		mt.ClearEvents()

		us, err := r.List(ctx)
		require.NoError(mt, err)
		require.Len(mt, us, 2)
		assert.Equal(mt, []string{"new", "old"}, []string{us[0].ID, us[1].ID})
		assert.Equal(mt, int64(-1), sortOf(mt))
	})

	mt.Run("update and delete not found", func(mt *mtest.T) {
		r := NewUserMongoRepo(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)
		u := &domain.User{ID: "u1", Email: "ada@example.com", IsVerified: true}
		require.NoError(mt, r.Update(ctx, u))
		assert.False(mt, u.UpdatedAt.IsZero())

		assert.ErrorIs(mt, r.Update(ctx, &domain.User{ID: "ghost"}), domain.ErrNotFound)
		require.NoError(mt, r.Delete(ctx, "u1"))
		assert.ErrorIs(mt, r.Delete(ctx, "u1"), domain.ErrNotFound)
	})

	mt.Run("ensure indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		require.NoError(mt, NewUserMongoRepo(mt.DB).EnsureIndexes(ctx))
	})
}

func TestVenueMongoRepo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	base := time.Now().Add(-time.Hour).Truncate(time.Millisecond)

	mt.Run("create and find", func(mt *mtest.T) {
		r := NewVenueMongoRepo(mt.DB)
		ns := mt.DB.Name() + ".venues"
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, venueDoc("v1", "a", base)),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)
		require.NoError(mt, r.Create(ctx, &domain.Venue{ID: "v1", AuthorID: "a"}))

		v, err := r.FindByID(ctx, "v1")
		require.NoError(mt, err)
		require.NotNil(mt, v)
		assert.Equal(mt, []string{"catering", "music"}, v.Services)
		require.NotNil(mt, v.CoverImg)
		assert.Equal(mt, "pid-v1", v.CoverImg.PublicID)

		v, err = r.FindByID(ctx, "v2")
		require.NoError(mt, err)
		assert.Nil(mt, v)
	})

	mt.Run("list and list by author", func(mt *mtest.T) {
		r := NewVenueMongoRepo(mt.DB)
		ns := mt.DB.Name() + ".venues"
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				venueDoc("v3", "a", base.Add(2*time.Minute)),
				venueDoc("v2", "b", base.Add(time.Minute)),
				venueDoc("v1", "a", base),
			),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				venueDoc("v3", "a", base.Add(2*time.Minute)),
				venueDoc("v1", "a", base),
			),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)

		mt.ClearEvents()
		all, err := r.List(ctx)
		require.NoError(mt, err)
		require.Len(mt, all, 3)
		assert.Equal(mt, "v3", all[0].ID)
		assert.Equal(mt, int64(-1), sortOf(mt))

		mine, err := r.ListByAuthor(ctx, "a")
		require.NoError(mt, err)
		assert.Len(mt, mine, 2)
		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		assert.Equal(mt, "a", ev.Command.Lookup("filter", "author_id").StringValue())

		// 空结果是空切片而不是 nil
		none, err := r.ListByAuthor(ctx, "nobody")
		require.NoError(mt, err)
		assert.NotNil(mt, none)
		assert.Empty(mt, none)
	})

	mt.Run("update delete and delete by author", func(mt *mtest.T) {
		r := NewVenueMongoRepo(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 2}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)
		require.NoError(mt, r.Update(ctx, &domain.Venue{ID: "v1", Name: "Renamed"}))
		assert.ErrorIs(mt, r.Update(ctx, &domain.Venue{ID: "ghost"}), domain.ErrNotFound)

		n, err := r.DeleteByAuthor(ctx, "a")
		require.NoError(mt, err)
		assert.Equal(mt, int64(2), n)

		require.NoError(mt, r.Delete(ctx, "v2"))
		assert.ErrorIs(mt, r.Delete(ctx, "v2"), domain.ErrNotFound)
	})
}
