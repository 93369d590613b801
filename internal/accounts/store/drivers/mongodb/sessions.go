package mongodb

import (
	"context"
	"time"

	"github.com/clipfeedhq/clipfeed/internal/accounts/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type sessionsRepo struct {
	col *mongo.Collection
}

func (r *sessionsRepo) SetRefreshToken(ctx context.Context, userID, token string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"refresh_token": token, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *sessionsRepo) GetRefreshToken(ctx context.Context, userID string) (string, error) {
	var doc struct {
		RefreshToken string `bson:"refresh_token"`
	}
	err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if err != nil {
		return "", mapFindErr(err)
	}
	return doc.RefreshToken, nil
}

func (r *sessionsRepo) ClearRefreshToken(ctx context.Context, userID string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$unset": bson.M{"refresh_token": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RotateRefreshToken is a single conditional update: the filter matches on
// both the id and the presented token, so two concurrent rotations can never
// both win. MongoDB applies each UpdateOne atomically.
func (r *sessionsRepo) RotateRefreshToken(ctx context.Context, userID, presented, next string) (bool, error) {
	if presented == "" {
		return false, nil
	}

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID, "refresh_token": presented},
		bson.M{"$set": bson.M{"refresh_token": next, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}
