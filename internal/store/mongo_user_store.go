package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	users "github.com/AdamBeresnev/funnyjoke/internal/user"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const usersCollection = "users"

// userDocument is the BSON shape of a user. Absent values are omitted so the
// partial and sparse indexes skip them.
type userDocument struct {
	ID           string    `bson:"_id"`
	Email        *string   `bson:"email,omitempty"`
	Username     *string   `bson:"username,omitempty"`
	Name         *string   `bson:"name,omitempty"`
	PasswordHash *string   `bson:"password_hash,omitempty"`
	AvatarURL    *string   `bson:"avatar_url,omitempty"`
	GoogleID     *string   `bson:"google_id,omitempty"`
	FacebookID   *string   `bson:"facebook_id,omitempty"`
	AppleID      *string   `bson:"apple_id,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
}

type MongoUserStore struct {
	col *mongo.Collection
}

// ConnectMongo opens a client for uri and verifies it with a ping.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

func NewMongoUserStore(db *mongo.Database) *MongoUserStore {
	return &MongoUserStore{col: db.Collection(usersCollection)}
}

// EnsureIndexes creates the email uniqueness index and the provider id lookups.
func (s *MongoUserStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName("uniq_email").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
	for _, p := range users.SocialProviders {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: p.IDColumn(), Value: 1}},
			Options: options.Index().SetSparse(true),
		})
	}

	if _, err := s.col.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}
	return nil
}

func (s *MongoUserStore) FindByID(ctx context.Context, id uuid.UUID) (*users.User, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()})
}

func (s *MongoUserStore) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoUserStore) FindByUsername(ctx context.Context, username string) (*users.User, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *MongoUserStore) FindByProviderID(ctx context.Context, provider users.Provider, providerID string) (*users.User, error) {
	field := provider.IDColumn()
	if field == "" {
		return nil, fmt.Errorf("store: provider %s has no id field", provider)
	}
	return s.findOne(ctx, bson.M{field: providerID})
}

func (s *MongoUserStore) Create(ctx context.Context, user *users.User) error {
	_, err := s.col.InsertOne(ctx, toDocument(user))
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	return err
}

func (s *MongoUserStore) Update(ctx context.Context, user *users.User) error {
	doc := toDocument(user)
	res, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoUserStore) DeleteByProviderID(ctx context.Context, provider users.Provider, providerID string) (int64, error) {
	field := provider.IDColumn()
	if field == "" {
		return 0, fmt.Errorf("store: provider %s has no id field", provider)
	}
	res, err := s.col.DeleteMany(ctx, bson.M{field: providerID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*users.User, error) {
	var doc userDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}})
	err := s.col.FindOne(ctx, filter, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toUser()
}

func toDocument(u *users.User) userDocument {
	return userDocument{
		ID:           u.ID.String(),
		Email:        u.Email,
		Username:     u.Username,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		AvatarURL:    u.AvatarURL,
		GoogleID:     u.GoogleID,
		FacebookID:   u.FacebookID,
		AppleID:      u.AppleID,
		CreatedAt:    u.CreatedAt,
	}
}

func (d userDocument) toUser() (*users.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("store: bad user id %q: %w", d.ID, err)
	}
	return &users.User{
		ID:           id,
		Email:        d.Email,
		Username:     d.Username,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		AvatarURL:    d.AvatarURL,
		GoogleID:     d.GoogleID,
		FacebookID:   d.FacebookID,
		AppleID:      d.AppleID,
		CreatedAt:    d.CreatedAt,
	}, nil
}
