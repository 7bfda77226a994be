package repo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/didi/gendry/builder"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/hearthlabs/hearth/internal/model"
	"github.com/hearthlabs/hearth/internal/pkg/dbutil"
	appErr "github.com/hearthlabs/hearth/internal/pkg/errors"
)

const DefaultSearchLimit = 8

// EmbeddingRepo stores chunk vectors and answers nearest-neighbor queries.
// The distance operator is fixed at construction; index build and query must
// use the same metric, so it is never a per-call parameter.
type EmbeddingRepo struct {
	db       *sql.DB
	dim      int
	operator string
}

func NewEmbeddingRepo(db *sql.DB, dim int, metric string) (*EmbeddingRepo, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dim must be positive, got %d", dim)
	}
	var operator string
	switch metric {
	case "cosine":
		operator = "<=>"
	case "ip":
		operator = "<#>"
	default:
		return nil, fmt.Errorf("unsupported distance metric: %s", metric)
	}
	return &EmbeddingRepo{db: db, dim: dim, operator: operator}, nil
}

// StoreMany bulk-inserts embedding records as one multi-row statement, so the
// write is all-or-nothing. No dedup, no update in place; records are only
// superseded by deleting their source and re-ingesting.
func (r *EmbeddingRepo) StoreMany(ctx context.Context, records []*model.EmbeddingRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]map[string]interface{}, 0, len(records))
	for _, rec := range records {
		if len(rec.Embedding) != r.dim {
			return fmt.Errorf("%w: record has %d values, store expects %d", appErr.ErrInvalidVector, len(rec.Embedding), r.dim)
		}
		if rec.SourceType == model.SourceTypeMessage && rec.ConversationID == "" {
			return fmt.Errorf("%w: message record requires a conversation id", appErr.ErrInvalid)
		}
		var conversationID interface{}
		if rec.ConversationID != "" {
			conversationID = rec.ConversationID
		}
		rows = append(rows, map[string]interface{}{
			"user_id":         rec.UserID,
			"conversation_id": conversationID,
			"source_type":     string(rec.SourceType),
			"source_id":       rec.SourceID,
			"chunk_index":     rec.ChunkIndex,
			"content":         rec.Content,
			"embedding":       pgvector.NewVector(rec.Embedding),
			"ctime":           rec.Ctime,
		})
	}
	sqlStr, args, err := builder.BuildInsert("chat_embeddings", rows)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("%w: %v", appErr.ErrStoreWrite, err)
	}
	return nil
}

// Search returns the nearest chunks within scope, closest first. The user_id
// filter is unconditional: a record of another user must never be reachable,
// whatever the scope says.
func (r *EmbeddingRepo) Search(ctx context.Context, userID string, queryVec []float32, scope model.SearchScope, limit int) ([]*model.SearchMatch, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", appErr.ErrInvalid)
	}
	if len(queryVec) != r.dim {
		return nil, fmt.Errorf("%w: query has %d values, store expects %d", appErr.ErrInvalidVector, len(queryVec), r.dim)
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	scopeCond, scopeArgs := scopeClause(scope)
	sqlStr := fmt.Sprintf(`
		SELECT id, conversation_id, source_type, source_id, chunk_index, content, embedding %s ? AS distance
		FROM chat_embeddings
		WHERE user_id = ?%s
		ORDER BY distance ASC
		LIMIT ?
	`, r.operator, scopeCond)
	args := make([]interface{}, 0, len(scopeArgs)+3)
	args = append(args, pgvector.NewVector(queryVec), userID)
	args = append(args, scopeArgs...)
	args = append(args, limit)
	sqlStr, args = dbutil.Finalize(sqlStr, args)

	dbRows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer dbRows.Close()
	var matches []*model.SearchMatch
	for dbRows.Next() {
		var item model.SearchMatch
		var conversationID sql.NullString
		var sourceType string
		if err := dbRows.Scan(&item.ID, &conversationID, &sourceType, &item.SourceID, &item.ChunkIndex, &item.Content, &item.Distance); err != nil {
			return nil, err
		}
		item.ConversationID = conversationID.String
		item.SourceType = model.SourceType(sourceType)
		matches = append(matches, &item)
	}
	return matches, dbRows.Err()
}

// scopeClause composes the scope filter. Conversation scope matches message
// records of that conversation; file scope matches chunk records of any of
// the files; both together are the union on one shared distance ranking. An
// empty scope adds nothing, which is the whole-corpus content search.
func scopeClause(scope model.SearchScope) (string, []interface{}) {
	var conds []string
	var args []interface{}
	if scope.ConversationID != "" {
		conds = append(conds, "(source_type = ? AND conversation_id = ?)")
		args = append(args, string(model.SourceTypeMessage), scope.ConversationID)
	}
	if len(scope.FileIDs) > 0 {
		conds = append(conds, "(source_type = ? AND source_id = ANY(?))")
		args = append(args, string(model.SourceTypeFileChunk), pq.Array(scope.FileIDs))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " AND (" + strings.Join(conds, " OR ") + ")", args
}

func (r *EmbeddingRepo) DeleteBySource(ctx context.Context, sourceType model.SourceType, sourceID string) error {
	cond := map[string]interface{}{
		"source_type": string(sourceType),
		"source_id":   sourceID,
	}
	sqlStr, args, err := builder.BuildDelete("chat_embeddings", cond)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *EmbeddingRepo) DeleteByConversation(ctx context.Context, userID, conversationID string) error {
	cond := map[string]interface{}{
		"user_id":         userID,
		"conversation_id": conversationID,
	}
	sqlStr, args, err := builder.BuildDelete("chat_embeddings", cond)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
