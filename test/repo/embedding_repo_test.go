package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hearthlabs/hearth/internal/model"
	"github.com/hearthlabs/hearth/internal/repo"
	"github.com/hearthlabs/hearth/test/testutil"
)

func seedRecords(t *testing.T, r *repo.EmbeddingRepo) {
	t.Helper()
	now := time.Now().UnixMilli()
	records := []*model.EmbeddingRecord{
		{UserID: "alice", ConversationID: "conv-1", SourceType: model.SourceTypeMessage, SourceID: "msg-1", ChunkIndex: 0, Content: "pediatrician phone number", Embedding: []float32{1, 0, 0, 0}, Ctime: now},
		{UserID: "alice", ConversationID: "conv-2", SourceType: model.SourceTypeMessage, SourceID: "msg-2", ChunkIndex: 0, Content: "school pickup schedule", Embedding: []float32{0, 1, 0, 0}, Ctime: now},
		{UserID: "alice", SourceType: model.SourceTypeFileChunk, SourceID: "file-1", ChunkIndex: 0, Content: "insurance policy excerpt", Embedding: []float32{0, 0, 1, 0}, Ctime: now},
		{UserID: "alice", SourceType: model.SourceTypeFileChunk, SourceID: "file-2", ChunkIndex: 0, Content: "lease agreement excerpt", Embedding: []float32{0, 0, 0, 1}, Ctime: now},
		{UserID: "bob", ConversationID: "conv-1", SourceType: model.SourceTypeMessage, SourceID: "msg-9", ChunkIndex: 0, Content: "bob private note", Embedding: []float32{1, 0, 0, 0}, Ctime: now},
	}
	require.NoError(t, r.StoreMany(context.Background(), records))
}

func newRepo(t *testing.T) *repo.EmbeddingRepo {
	t.Helper()
	conn, closeFn := testutil.OpenTestDB(t)
	t.Cleanup(closeFn)
	testutil.TruncateTables(t, conn, "chat_embeddings")
	r, err := repo.NewEmbeddingRepo(conn, testutil.TestEmbeddingDim, "cosine")
	require.NoError(t, err)
	return r
}

func TestSearchRanksByDistance(t *testing.T) {
	r := newRepo(t)
	seedRecords(t, r)

	matches, err := r.Search(context.Background(), "alice", []float32{1, 0, 0, 0}, model.SearchScope{}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, matches)
	require.Equal(t, "msg-1", matches[0].SourceID)
	require.InDelta(t, 0, matches[0].Distance, 1e-6)
	for i := 1; i < len(matches); i++ {
		require.GreaterOrEqual(t, matches[i].Distance, matches[i-1].Distance)
	}
}

func TestSearchNeverCrossesUsers(t *testing.T) {
	r := newRepo(t)
	seedRecords(t, r)

	matches, err := r.Search(context.Background(), "bob", []float32{1, 0, 0, 0}, model.SearchScope{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "msg-9", matches[0].SourceID)
}

func TestSearchConversationScope(t *testing.T) {
	r := newRepo(t)
	seedRecords(t, r)

	matches, err := r.Search(context.Background(), "alice", []float32{1, 1, 1, 1}, model.SearchScope{ConversationID: "conv-1"}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "msg-1", matches[0].SourceID)
	require.Equal(t, "conv-1", matches[0].ConversationID)
}

func TestSearchFileScope(t *testing.T) {
	r := newRepo(t)
	seedRecords(t, r)

	matches, err := r.Search(context.Background(), "alice", []float32{1, 1, 1, 1}, model.SearchScope{FileIDs: []string{"file-1", "file-2"}}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	for _, m := range matches {
		require.Equal(t, model.SourceTypeFileChunk, m.SourceType)
	}
}

func TestSearchUnionScope(t *testing.T) {
	r := newRepo(t)
	seedRecords(t, r)

	scope := model.SearchScope{ConversationID: "conv-1", FileIDs: []string{"file-2"}}
	matches, err := r.Search(context.Background(), "alice", []float32{1, 1, 1, 1}, scope, 10)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	sources := map[string]bool{}
	for _, m := range matches {
		sources[m.SourceID] = true
	}
	require.True(t, sources["msg-1"])
	require.True(t, sources["file-2"])
}

func TestSearchScopeMatchingNothing(t *testing.T) {
	r := newRepo(t)
	seedRecords(t, r)

	matches, err := r.Search(context.Background(), "alice", []float32{1, 1, 1, 1}, model.SearchScope{ConversationID: "no-such-conv"}, 10)
	require.NoError(t, err)
	require.Empty(t, matches)
}

func TestSearchLimit(t *testing.T) {
	r := newRepo(t)
	seedRecords(t, r)

	matches, err := r.Search(context.Background(), "alice", []float32{1, 1, 1, 1}, model.SearchScope{}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
}

func TestDeleteBySource(t *testing.T) {
	r := newRepo(t)
	seedRecords(t, r)

	require.NoError(t, r.DeleteBySource(context.Background(), model.SourceTypeFileChunk, "file-1"))
	matches, err := r.Search(context.Background(), "alice", []float32{0, 0, 1, 0}, model.SearchScope{}, 10)
	require.NoError(t, err)
	for _, m := range matches {
		require.NotEqual(t, "file-1", m.SourceID)
	}
}

func TestDeleteByConversation(t *testing.T) {
	r := newRepo(t)
	seedRecords(t, r)

	require.NoError(t, r.DeleteByConversation(context.Background(), "alice", "conv-1"))
	matches, err := r.Search(context.Background(), "alice", []float32{1, 0, 0, 0}, model.SearchScope{}, 10)
	require.NoError(t, err)
	for _, m := range matches {
		require.NotEqual(t, "conv-1", m.ConversationID)
	}
	// The same conversation id of another user is untouched.
	matches, err = r.Search(context.Background(), "bob", []float32{1, 0, 0, 0}, model.SearchScope{}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
}

func TestStoreManyAtomicBatch(t *testing.T) {
	r := newRepo(t)
	now := time.Now().UnixMilli()
	records := []*model.EmbeddingRecord{
		{UserID: "carol", SourceType: model.SourceTypeFileChunk, SourceID: "f", ChunkIndex: 0, Content: "ok", Embedding: []float32{1, 0, 0, 0}, Ctime: now},
		{UserID: "carol", SourceType: model.SourceTypeFileChunk, SourceID: "f", ChunkIndex: 1, Content: "bad", Embedding: []float32{1, 0}, Ctime: now},
	}
	require.Error(t, r.StoreMany(context.Background(), records))
	matches, err := r.Search(context.Background(), "carol", []float32{1, 0, 0, 0}, model.SearchScope{}, 10)
	require.NoError(t, err)
	require.Empty(t, matches)
}
