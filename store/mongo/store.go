package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/demurrage"
	"github.com/xraph/demurrage/account"
	"github.com/xraph/demurrage/id"
	"github.com/xraph/demurrage/journal"
	"github.com/xraph/demurrage/schedule"
	demurragestore "github.com/xraph/demurrage/store"
)

// Collection name constants.
const (
	colAccounts    = "demurrage_accounts"
	colCheckpoints = "demurrage_checkpoints"
	colJournal     = "demurrage_journal"
)

// compile-time interface check
var _ demurragestore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all demurrage collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("demurrage/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Account Store ====================

func (s *Store) GetAccount(ctx context.Context, holder string) (*account.Account, error) {
	var m accountModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": holder}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, demurrage.ErrAccountNotFound
		}
		return nil, fmt.Errorf("demurrage/mongo: get account: %w", err)
	}
	return fromAccountModel(&m)
}

func (s *Store) ListAccounts(ctx context.Context, opts account.ListOpts) ([]*account.Account, error) {
	var models []accountModel

	q := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("demurrage/mongo: list accounts: %w", err)
	}

	result := make([]*account.Account, len(models))
	for i := range models {
		a, err := fromAccountModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

// SaveAccounts upserts every account in one ordered bulk write. An existing
// document keeps its account_id and created_at.
func (s *Store) SaveAccounts(ctx context.Context, accounts ...*account.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	writes := make([]mongo.WriteModel, 0, len(accounts))
	for _, a := range accounts {
		m := toAccountModel(a)
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": m.Holder}).
			SetUpdate(bson.M{
				"$set": bson.M{
					"raw_balance":  m.RawBalance,
					"last_updated": m.LastUpdated,
					"updated_at":   m.UpdatedAt,
				},
				"$setOnInsert": bson.M{
					"account_id": m.ID,
					"created_at": m.CreatedAt,
				},
			}).
			SetUpsert(true))
	}

	if _, err := s.mdb.Collection(colAccounts).BulkWrite(ctx, writes); err != nil {
		return fmt.Errorf("demurrage/mongo: save accounts: %w", err)
	}
	return nil
}

// ==================== Checkpoint Store ====================

func (s *Store) AppendCheckpoint(ctx context.Context, c *schedule.Checkpoint) error {
	_, err := s.mdb.NewInsert(toCheckpointModel(c)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return demurrage.ErrCheckpointExists
		}
		return fmt.Errorf("demurrage/mongo: append checkpoint: %w", err)
	}
	return nil
}

func (s *Store) ListCheckpoints(ctx context.Context) ([]*schedule.Checkpoint, error) {
	var models []checkpointModel

	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "effective_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("demurrage/mongo: list checkpoints: %w", err)
	}

	result := make([]*schedule.Checkpoint, len(models))
	for i := range models {
		c, err := fromCheckpointModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

// ==================== Journal Store ====================

func (s *Store) AppendEntry(ctx context.Context, e *journal.Entry) error {
	_, err := s.mdb.NewInsert(toEntryModel(e)).Exec(ctx)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return demurrage.ErrEntryAlreadyExists
		}
		return fmt.Errorf("demurrage/mongo: append entry: %w", err)
	}
	return nil
}

func (s *Store) GetEntry(ctx context.Context, entryID id.EntryID) (*journal.Entry, error) {
	var m entryModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": entryID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, demurrage.ErrEntryNotFound
		}
		return nil, fmt.Errorf("demurrage/mongo: get entry: %w", err)
	}
	return fromEntryModel(&m)
}

func (s *Store) QueryEntries(ctx context.Context, opts journal.QueryOpts) ([]*journal.Entry, error) {
	var models []entryModel

	filter := bson.M{}
	if opts.Holder != "" {
		filter["$or"] = bson.A{
			bson.M{"holder": opts.Holder},
			bson.M{"counterparty": opts.Holder},
		}
	}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}
	if !opts.Since.IsZero() {
		filter["occurred_at"] = bson.M{"$gte": opts.Since.UTC()}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "occurred_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("demurrage/mongo: query entries: %w", err)
	}

	result := make([]*journal.Entry, len(models))
	for i := range models {
		e, err := fromEntryModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all demurrage collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colAccounts: {
			{
				Keys:    bson.D{{Key: "account_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colCheckpoints: {
			{
				Keys:    bson.D{{Key: "effective_at", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colJournal: {
			{Keys: bson.D{{Key: "holder", Value: 1}, {Key: "occurred_at", Value: 1}}},
			{Keys: bson.D{{Key: "counterparty", Value: 1}, {Key: "occurred_at", Value: 1}}},
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "occurred_at", Value: 1}}},
		},
	}
}
