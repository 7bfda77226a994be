package handler_test

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/hearthlabs/hearth/internal/chunker"
	"github.com/hearthlabs/hearth/internal/config"
	"github.com/hearthlabs/hearth/internal/extract"
	"github.com/hearthlabs/hearth/internal/filestore"
	"github.com/hearthlabs/hearth/internal/handler"
	"github.com/hearthlabs/hearth/internal/middleware"
	"github.com/hearthlabs/hearth/internal/model"
	appErr "github.com/hearthlabs/hearth/internal/pkg/errors"
	"github.com/hearthlabs/hearth/internal/pkg/jwt"
	"github.com/hearthlabs/hearth/internal/service"
)

type staticEmbedder struct{}

func (staticEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{float32(len(text)), 1, 2, 3}, nil
}

func (staticEmbedder) ModelName() string { return "static" }

// memEmbeddingStore keeps records in memory and answers scope filtering the
// way the SQL store does, minus the distance ordering.
type memEmbeddingStore struct {
	mu      sync.Mutex
	records []*model.EmbeddingRecord
}

func (m *memEmbeddingStore) StoreMany(ctx context.Context, records []*model.EmbeddingRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
	return nil
}

func (m *memEmbeddingStore) Search(ctx context.Context, userID string, queryVec []float32, scope model.SearchScope, limit int) ([]*model.SearchMatch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matches []*model.SearchMatch
	for _, rec := range m.records {
		if rec.UserID != userID || !inScope(rec, scope) {
			continue
		}
		matches = append(matches, &model.SearchMatch{
			ConversationID: rec.ConversationID,
			SourceType:     rec.SourceType,
			SourceID:       rec.SourceID,
			ChunkIndex:     rec.ChunkIndex,
			Content:        rec.Content,
		})
		if len(matches) == limit {
			break
		}
	}
	return matches, nil
}

func inScope(rec *model.EmbeddingRecord, scope model.SearchScope) bool {
	if scope.IsEmpty() {
		return true
	}
	if scope.ConversationID != "" && rec.SourceType == model.SourceTypeMessage && rec.ConversationID == scope.ConversationID {
		return true
	}
	if rec.SourceType == model.SourceTypeFileChunk {
		for _, id := range scope.FileIDs {
			if rec.SourceID == id {
				return true
			}
		}
	}
	return false
}

func (m *memEmbeddingStore) DeleteBySource(ctx context.Context, sourceType model.SourceType, sourceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	for _, rec := range m.records {
		if rec.SourceType != sourceType || rec.SourceID != sourceID {
			kept = append(kept, rec)
		}
	}
	m.records = kept
	return nil
}

func (m *memEmbeddingStore) DeleteByConversation(ctx context.Context, userID, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.records[:0]
	for _, rec := range m.records {
		if rec.UserID != userID || rec.ConversationID != conversationID {
			kept = append(kept, rec)
		}
	}
	m.records = kept
	return nil
}

type memFileStore struct {
	mu    sync.Mutex
	files map[string]*model.File
}

func (m *memFileStore) Create(ctx context.Context, file *model.File) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *file
	m.files[file.ID] = &cp
	return nil
}

func (m *memFileStore) GetByID(ctx context.Context, userID, id string) (*model.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	file, ok := m.files[id]
	if !ok || file.UserID != userID {
		return nil, appErr.ErrNotFound
	}
	cp := *file
	return &cp, nil
}

func (m *memFileStore) MarkDone(ctx context.Context, id, textKey string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	file, ok := m.files[id]
	if !ok {
		return appErr.ErrNotFound
	}
	if file.ExtractStatus != model.ExtractStatusPending {
		return appErr.ErrConflict
	}
	file.ExtractStatus = model.ExtractStatusDone
	file.TextKey = textKey
	return nil
}

func (m *memFileStore) MarkFailed(ctx context.Context, id, cause string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	file, ok := m.files[id]
	if !ok {
		return appErr.ErrNotFound
	}
	if file.ExtractStatus != model.ExtractStatusPending {
		return appErr.ErrConflict
	}
	file.ExtractStatus = model.ExtractStatusFailed
	file.ExtractError = cause
	return nil
}

func (m *memFileStore) ListStuckPending(ctx context.Context, olderThan int64, limit int) ([]*model.File, error) {
	return nil, nil
}

func setupRouter(t *testing.T) (http.Handler, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := filestore.New(config.FileStoreConfig{
		Type: "local",
		Data: map[string]interface{}{"dir": t.TempDir()},
	})
	require.NoError(t, err)

	ingestService := service.NewIngestService(
		extract.NewRegistry(),
		chunker.New(200, 40),
		staticEmbedder{},
		&memEmbeddingStore{},
		&memFileStore{files: map[string]*model.File{}},
		store,
		service.IngestConfig{EmbedWorkers: 2, EmbedTimeout: time.Second, ExtractTimeout: time.Second, TopK: 5},
	)

	jwtSecret := []byte("test-secret")
	deps := handler.RouterDeps{
		Ingest:    handler.NewIngestHandler(ingestService),
		Search:    handler.NewSearchHandler(ingestService),
		JWTSecret: jwtSecret,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	token, err := jwt.GenerateToken("alice", "member", jwtSecret, time.Hour)
	require.NoError(t, err)
	return engine, token
}
