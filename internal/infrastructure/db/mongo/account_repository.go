package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/piar/backoffice/internal/core/domain"
	"github.com/piar/backoffice/internal/core/ports"
)

const (
	accountsCollection = "accounts"

	accountCodeIndex = "uniq_account_code"
	emailIndex       = "uniq_email"
)

type MongoAccountRepository struct {
	coll *mongo.Collection
}

var _ ports.AccountRepository = (*MongoAccountRepository)(nil)

func NewAccountRepository(db *mongo.Database) *MongoAccountRepository {
	return &MongoAccountRepository{coll: db.Collection(accountsCollection)}
}

// EnsureIndexes creates the unique indexes the repository relies on for atomic
// insert-if-unique. Email uniqueness only applies to documents that have one.
func (r *MongoAccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "account_code", Value: 1}},
			Options: options.Index().SetName(accountCodeIndex).SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetName(emailIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"email": bson.M{"$type": "string"}}),
		},
	})
	if err != nil {
		return fmt.Errorf("create account indexes: %w", err)
	}
	return nil
}

type mongoAccount struct {
	ID           string    `bson:"_id"`
	AccountCode  string    `bson:"account_code"`
	Email        string    `bson:"email,omitempty"`
	PasswordHash string    `bson:"password_hash,omitempty"`
	Role         string    `bson:"role"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toMongoAccount(a *domain.Account) mongoAccount {
	return mongoAccount{
		ID:           a.ID,
		AccountCode:  a.AccountCode,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         string(a.Role),
		CreatedAt:    a.CreatedAt.UTC(),
		UpdatedAt:    a.UpdatedAt.UTC(),
	}
}

func (m mongoAccount) toDomain() *domain.Account {
	return &domain.Account{
		ID:           m.ID,
		AccountCode:  m.AccountCode,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func (r *MongoAccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if email == "" {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoAccountRepository) FindByAccountCode(ctx context.Context, code string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"account_code": code})
}

func (r *MongoAccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var doc mongoAccount
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *MongoAccountRepository) List(ctx context.Context) ([]*domain.Account, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoAccount
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode accounts: %w", err)
	}
	out := make([]*domain.Account, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

// Create relies on the unique indexes: the insert either lands or fails with a
// duplicate key, with no window between check and write.
func (r *MongoAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if _, err := r.coll.InsertOne(ctx, toMongoAccount(account)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return duplicateAccountError(err, account)
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (r *MongoAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": account.ID},
		bson.M{"$set": bson.M{
			"role":          string(account.Role),
			"password_hash": account.PasswordHash,
			"updated_at":    account.UpdatedAt.UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

func (r *MongoAccountRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// duplicateAccountError names the violated constraint from the index in the
// server message.
func duplicateAccountError(err error, account *domain.Account) *domain.Error {
	if strings.Contains(err.Error(), emailIndex) {
		return domain.NewResourceAlreadyExistsError("Account", account.Email).WithI18nKey("email_exists").WithCause(err)
	}
	if strings.Contains(err.Error(), accountCodeIndex) {
		return domain.NewResourceAlreadyExistsError("Account", account.AccountCode).WithI18nKey("account_code_exists").WithCause(err)
	}
	return domain.NewResourceAlreadyExistsError("Account", account.ID).WithCause(err)
}
