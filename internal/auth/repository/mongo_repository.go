package repository

import (
	"context"
	"errors"
	"time"

	authdomain "playtube-backend/internal/auth/domain"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const usersCollection = "users"

// userRepository implements UserRepository on MongoDB
type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new instance of userRepository
func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{
		coll: db.Collection(usersCollection),
	}
}

// EnsureIndexes creates the unique indexes on username and email.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

func (r *userRepository) Create(ctx context.Context, user *authdomain.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	_, err := r.coll.InsertOne(ctx, user)
	return err
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*authdomain.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		// A malformed id cannot match any record.
		return nil, nil
	}

	var user authdomain.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*authdomain.User, error) {
	var or []bson.M
	if username != "" {
		or = append(or, bson.M{"username": username})
	}
	if email != "" {
		or = append(or, bson.M{"email": email})
	}
	if len(or) == 0 {
		return nil, nil
	}

	var user authdomain.User
	if err := r.coll.FindOne(ctx, bson.M{"$or": or}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) SetRefreshToken(ctx context.Context, id, token string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	// Single-field update: the rest of the record is left untouched.
	_, err = r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"refreshToken": token}})
	return err
}

func (r *userRepository) ClearRefreshToken(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.coll.UpdateByID(ctx, oid, bson.M{"$unset": bson.M{"refreshToken": 1}})
	return err
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.coll.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"password":  passwordHash,
		"updatedAt": time.Now(),
	}})
	return err
}
