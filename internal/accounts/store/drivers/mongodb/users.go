package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/clipfeedhq/clipfeed/internal/accounts/domain"
	"github.com/clipfeedhq/clipfeed/internal/accounts/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// userDoc is the persisted form of domain.User.
type userDoc struct {
	ID            string    `bson:"_id"`
	Username      string    `bson:"username"`
	Email         string    `bson:"email"`
	FullName      string    `bson:"full_name"`
	PasswordHash  string    `bson:"password_hash"`
	AvatarURL     string    `bson:"avatar_url"`
	CoverImageURL string    `bson:"cover_image_url,omitempty"`
	RefreshToken  string    `bson:"refresh_token,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toDoc(u domain.User) userDoc {
	return userDoc{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FullName:      u.FullName,
		PasswordHash:  u.PasswordHash,
		AvatarURL:     u.AvatarURL,
		CoverImageURL: u.CoverImageURL,
		RefreshToken:  u.RefreshToken,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

func (d userDoc) toDomain() domain.User {
	return domain.User{
		ID:            d.ID,
		Username:      d.Username,
		Email:         d.Email,
		FullName:      d.FullName,
		PasswordHash:  d.PasswordHash,
		AvatarURL:     d.AvatarURL,
		CoverImageURL: d.CoverImageURL,
		RefreshToken:  d.RefreshToken,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type usersRepo struct {
	col *mongo.Collection
}

func (r *usersRepo) GetByID(ctx context.Context, id string) (domain.User, error) {
	var doc userDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		return domain.User{}, mapFindErr(err)
	}
	return doc.toDomain(), nil
}

func (r *usersRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (domain.User, error) {
	var or []bson.M
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return domain.User{}, store.ErrNotFound
	}

	var doc userDoc
	err := r.col.FindOne(ctx, bson.M{"$or": or}).Decode(&doc)
	if err != nil {
		return domain.User{}, mapFindErr(err)
	}
	return doc.toDomain(), nil
}

func (r *usersRepo) Create(ctx context.Context, u domain.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := r.col.InsertOne(ctx, toDoc(u))
	if err != nil {
		// Unique indexes on username and email surface duplicates here.
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID, newHash string) error {
	return r.setField(ctx, userID, "password_hash", newHash)
}

func (r *usersRepo) UpdateAvatar(ctx context.Context, userID, url string) error {
	return r.setField(ctx, userID, "avatar_url", url)
}

func (r *usersRepo) UpdateCoverImage(ctx context.Context, userID, url string) error {
	return r.setField(ctx, userID, "cover_image_url", url)
}

func (r *usersRepo) setField(ctx context.Context, userID, field string, value any) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{field: value, "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapFindErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}
