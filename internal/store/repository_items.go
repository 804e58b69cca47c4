package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/airsyncd/airsyncd/internal/logger"
	"github.com/airsyncd/airsyncd/models"
	"github.com/google/uuid"
)

// itemRepository is the SQL-backed implementation of [ItemStore]. Items
// live in the "items" table with their property maps serialized as JSON;
// every mutation runs in a transaction that bumps the owning collection's
// sequence counter and appends a "change_log" row, so the log stays totally
// ordered per collection.
type itemRepository struct {
	*DB
	logger  *logger.Logger
	builder sq.StatementBuilderType
}

// NewItemRepository constructs an [ItemStore] backed by the provided
// database connection and logger.
func NewItemRepository(db *DB, logger *logger.Logger) ItemStore {
	return &itemRepository{
		DB:      db,
		logger:  logger,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Collection implements [ItemStore].
func (r *itemRepository) Collection(ctx context.Context, collectionID string) (models.Collection, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("id", "name", "class", "read_only").
		From("collections").
		Where(sq.Eq{"id": collectionID}).
		ToSql()
	if err != nil {
		return models.Collection{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var meta models.Collection
	err = r.DB.QueryRowContext(ctx, query, args...).Scan(&meta.ID, &meta.Name, &meta.Class, &meta.ReadOnly)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Collection{}, ErrCollectionNotFound
	}
	if err != nil {
		log.Err(err).
			Str("func", "itemRepository.Collection").
			Str("collection_id", collectionID).
			Msg("failed to query collection")
		return models.Collection{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return meta, nil
}

// Collections implements [ItemStore].
func (r *itemRepository) Collections(ctx context.Context) ([]models.Collection, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("id", "name", "class", "read_only").
		From("collections").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "itemRepository.Collections").Msg("failed to query collections")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var result []models.Collection
	for rows.Next() {
		var meta models.Collection
		if err := rows.Scan(&meta.ID, &meta.Name, &meta.Class, &meta.ReadOnly); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		result = append(result, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return result, nil
}

// Items implements [ItemStore]. Items are returned ordered by creation
// sequence so enumeration output is stable.
func (r *itemRepository) Items(ctx context.Context, collectionID string) ([]models.Item, error) {
	return r.selectItems(ctx, sq.Eq{"collection_id": collectionID}, true)
}

// Item implements [ItemStore].
func (r *itemRepository) Item(ctx context.Context, collectionID, serverID string) (models.Item, error) {
	items, err := r.selectItems(ctx, sq.Eq{"collection_id": collectionID, "server_id": serverID}, false)
	if err != nil {
		return models.Item{}, err
	}
	if len(items) == 0 {
		if _, err := r.Collection(ctx, collectionID); err != nil {
			return models.Item{}, err
		}
		return models.Item{}, ErrItemNotFound
	}
	return items[0], nil
}

// selectItems runs one dynamically built item query. The where argument
// narrows the scan; ordered selects by creation sequence.
func (r *itemRepository) selectItems(ctx context.Context, where sq.Eq, ordered bool) ([]models.Item, error) {
	log := logger.FromContext(ctx)

	b := r.builder.
		Select("collection_id", "server_id", "class", "conversation_id", "props",
			"version", "created_seq", "created_at", "updated_at").
		From("items").
		Where(where)
	if ordered {
		b = b.OrderBy("created_seq")
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "itemRepository.selectItems").Msg("failed to query items")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	items := make([]models.Item, 0, 50)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return items, nil
}

func scanItem(rows *sql.Rows) (models.Item, error) {
	var item models.Item
	var props []byte

	err := rows.Scan(
		&item.CollectionID,
		&item.ServerID,
		&item.Class,
		&item.ConversationID,
		&props,
		&item.Version,
		&item.CreatedSeq,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return models.Item{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if len(props) > 0 {
		if err := json.Unmarshal(props, &item.Props); err != nil {
			return models.Item{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
	}

	return item, nil
}

// ChangesSince implements [ItemStore].
func (r *itemRepository) ChangesSince(ctx context.Context, collectionID string, sinceSeq int64) ([]models.ChangeLogRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("seq", "op", "server_id").
		From("change_log").
		Where(sq.And{sq.Eq{"collection_id": collectionID}, sq.Gt{"seq": sinceSeq}}).
		OrderBy("seq").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "itemRepository.ChangesSince").
			Str("collection_id", collectionID).
			Int64("since_seq", sinceSeq).
			Msg("failed to query change log")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var records []models.ChangeLogRecord
	for rows.Next() {
		var rec models.ChangeLogRecord
		if err := rows.Scan(&rec.Seq, &rec.Op, &rec.ServerID); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return records, nil
}

// CurrentVersion implements [ItemStore].
func (r *itemRepository) CurrentVersion(ctx context.Context, collectionID string) (int64, error) {
	var seq int64
	err := r.DB.QueryRowContext(ctx, `SELECT seq FROM collections WHERE id = $1;`, collectionID).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCollectionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return seq, nil
}

// nextSeq atomically advances and returns the collection's change
// sequence inside the given transaction. The UPDATE also serializes
// concurrent writers of the same collection for the rest of the
// transaction.
func nextSeq(ctx context.Context, tx *sql.Tx, collectionID string) (int64, error) {
	var seq int64
	err := tx.QueryRowContext(ctx,
		`UPDATE collections SET seq = seq + 1 WHERE id = $1 RETURNING seq;`,
		collectionID,
	).Scan(&seq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrCollectionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return seq, nil
}

// ApplyAdd implements [ItemStore].
func (r *itemRepository) ApplyAdd(ctx context.Context, item models.Item) (models.Item, error) {
	log := logger.FromContext(ctx)

	meta, err := r.Collection(ctx, item.CollectionID)
	if err != nil {
		return models.Item{}, err
	}

	if item.ServerID == "" {
		item.ServerID = uuid.NewString()
	}
	if item.Class == "" {
		item.Class = meta.Class
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Item{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	seq, err := nextSeq(ctx, tx, item.CollectionID)
	if err != nil {
		return models.Item{}, err
	}

	now := time.Now()
	item.Version = seq
	item.CreatedSeq = seq
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	props, err := json.Marshal(item.Props)
	if err != nil {
		return models.Item{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO items (collection_id, server_id, class, conversation_id, props,
			version, created_seq, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`,
		item.CollectionID, item.ServerID, item.Class, item.ConversationID, props,
		item.Version, item.CreatedSeq, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Item{}, ErrItemAlreadyExists
		}
		log.Err(err).
			Str("func", "itemRepository.ApplyAdd").
			Str("collection_id", item.CollectionID).
			Str("server_id", item.ServerID).
			Msg("failed to insert item")
		return models.Item{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if err := appendLog(ctx, tx, item.CollectionID, seq, models.OpAdd, item.ServerID); err != nil {
		return models.Item{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Item{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return item, nil
}

// ApplyChange implements [ItemStore].
func (r *itemRepository) ApplyChange(ctx context.Context, item models.Item) (models.Item, error) {
	log := logger.FromContext(ctx)

	current, err := r.Item(ctx, item.CollectionID, item.ServerID)
	if err != nil {
		return models.Item{}, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Item{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	seq, err := nextSeq(ctx, tx, item.CollectionID)
	if err != nil {
		return models.Item{}, err
	}

	current.Props = item.Props
	current.Version = seq
	current.UpdatedAt = time.Now()

	props, err := json.Marshal(current.Props)
	if err != nil {
		return models.Item{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET props = $1, version = $2, updated_at = $3
		WHERE collection_id = $4 AND server_id = $5;`,
		props, current.Version, current.UpdatedAt, current.CollectionID, current.ServerID,
	)
	if err != nil {
		log.Err(err).
			Str("func", "itemRepository.ApplyChange").
			Str("collection_id", item.CollectionID).
			Str("server_id", item.ServerID).
			Msg("failed to update item")
		return models.Item{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return models.Item{}, ErrItemNotFound
	}

	if err := appendLog(ctx, tx, current.CollectionID, seq, models.OpChange, current.ServerID); err != nil {
		return models.Item{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Item{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return current, nil
}

// ApplyDelete implements [ItemStore].
func (r *itemRepository) ApplyDelete(ctx context.Context, collectionID, serverID string) error {
	log := logger.FromContext(ctx)

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	seq, err := nextSeq(ctx, tx, collectionID)
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM items WHERE collection_id = $1 AND server_id = $2;`,
		collectionID, serverID,
	)
	if err != nil {
		log.Err(err).
			Str("func", "itemRepository.ApplyDelete").
			Str("collection_id", collectionID).
			Str("server_id", serverID).
			Msg("failed to delete item")
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrItemNotFound
	}

	if err := appendLog(ctx, tx, collectionID, seq, models.OpDelete, serverID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return nil
}

// MoveItem implements [ItemStore].
func (r *itemRepository) MoveItem(ctx context.Context, serverID, fromCollectionID, toCollectionID string) (models.Item, error) {
	item, err := r.Item(ctx, fromCollectionID, serverID)
	if err != nil {
		return models.Item{}, err
	}
	if _, err := r.Collection(ctx, toCollectionID); err != nil {
		return models.Item{}, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return models.Item{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	fromSeq, err := nextSeq(ctx, tx, fromCollectionID)
	if err != nil {
		return models.Item{}, err
	}
	toSeq, err := nextSeq(ctx, tx, toCollectionID)
	if err != nil {
		return models.Item{}, err
	}

	item.CollectionID = toCollectionID
	item.Version = toSeq
	item.CreatedSeq = toSeq
	item.UpdatedAt = time.Now()

	_, err = tx.ExecContext(ctx,
		`UPDATE items SET collection_id = $1, version = $2, created_seq = $3, updated_at = $4
		WHERE collection_id = $5 AND server_id = $6;`,
		toCollectionID, item.Version, item.CreatedSeq, item.UpdatedAt, fromCollectionID, serverID,
	)
	if err != nil {
		return models.Item{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	if err := appendLog(ctx, tx, fromCollectionID, fromSeq, models.OpDelete, serverID); err != nil {
		return models.Item{}, err
	}
	if err := appendLog(ctx, tx, toCollectionID, toSeq, models.OpAdd, serverID); err != nil {
		return models.Item{}, err
	}

	if err := tx.Commit(); err != nil {
		return models.Item{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return item, nil
}

func appendLog(ctx context.Context, tx *sql.Tx, collectionID string, seq int64, op models.ChangeOp, serverID string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO change_log (collection_id, seq, op, server_id) VALUES ($1, $2, $3, $4);`,
		collectionID, seq, op, serverID,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	return nil
}
