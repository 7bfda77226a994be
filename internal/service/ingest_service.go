package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/hearthlabs/hearth/internal/ai"
	"github.com/hearthlabs/hearth/internal/chunker"
	"github.com/hearthlabs/hearth/internal/extract"
	"github.com/hearthlabs/hearth/internal/filestore"
	"github.com/hearthlabs/hearth/internal/model"
	appErr "github.com/hearthlabs/hearth/internal/pkg/errors"
)

// EmbeddingStore is the persistence surface the orchestrator relies on.
type EmbeddingStore interface {
	StoreMany(ctx context.Context, records []*model.EmbeddingRecord) error
	Search(ctx context.Context, userID string, queryVec []float32, scope model.SearchScope, limit int) ([]*model.SearchMatch, error)
	DeleteBySource(ctx context.Context, sourceType model.SourceType, sourceID string) error
	DeleteByConversation(ctx context.Context, userID, conversationID string) error
}

// FileStatusStore tracks per-file extraction state.
type FileStatusStore interface {
	Create(ctx context.Context, file *model.File) error
	GetByID(ctx context.Context, userID, id string) (*model.File, error)
	MarkDone(ctx context.Context, id, textKey string) error
	MarkFailed(ctx context.Context, id, cause string) error
	ListStuckPending(ctx context.Context, olderThan int64, limit int) ([]*model.File, error)
}

type IngestConfig struct {
	EmbedWorkers   int
	EmbedTimeout   time.Duration
	ExtractTimeout time.Duration
	TopK           int
}

// IngestService drives extraction, chunking, embedding and storage, and
// answers scoped similarity queries. Independent files may be ingested
// concurrently; within one file the steps run strictly in order and the
// chunk batch is written atomically.
type IngestService struct {
	extractors *extract.Registry
	chunker    *chunker.Chunker
	embedder   ai.IEmbedder
	embeddings EmbeddingStore
	files      FileStatusStore
	blobs      filestore.Store
	cfg        IngestConfig
}

func NewIngestService(
	extractors *extract.Registry,
	chk *chunker.Chunker,
	embedder ai.IEmbedder,
	embeddings EmbeddingStore,
	files FileStatusStore,
	blobs filestore.Store,
	cfg IngestConfig,
) *IngestService {
	if cfg.EmbedWorkers <= 0 {
		cfg.EmbedWorkers = 4
	}
	if cfg.EmbedTimeout <= 0 {
		cfg.EmbedTimeout = 30 * time.Second
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = 60 * time.Second
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 8
	}
	return &IngestService{
		extractors: extractors,
		chunker:    chk,
		embedder:   embedder,
		embeddings: embeddings,
		files:      files,
		blobs:      blobs,
		cfg:        cfg,
	}
}

// IngestFile stores the raw bytes, creates the pending file record, then
// runs the pipeline. Extraction and embedding failures end in a terminal
// failed status on the returned file, not an error; an error return means
// the run was interrupted (cancellation, store write refusal) and the file
// is still pending, safe to retry.
func (s *IngestService) IngestFile(ctx context.Context, data []byte, mime, filename, userID string) (*model.File, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", appErr.ErrInvalid)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", appErr.ErrInvalid)
	}
	now := time.Now().UnixMilli()
	file := &model.File{
		ID:            uuid.NewString(),
		UserID:        userID,
		Name:          filename,
		ContentType:   mime,
		Size:          int64(len(data)),
		ExtractStatus: model.ExtractStatusPending,
		Ctime:         now,
		Mtime:         now,
	}
	file.FileKey = file.ID + ".bin"
	if err := s.blobs.Put(ctx, file.FileKey, data, mime); err != nil {
		return nil, fmt.Errorf("store raw file: %w", err)
	}
	if err := s.files.Create(ctx, file); err != nil {
		return nil, err
	}
	if err := s.processFile(ctx, file, data); err != nil {
		return nil, err
	}
	return file, nil
}

// processFile runs extraction -> chunking -> embedding -> batch store for a
// file already recorded as pending, and settles its terminal status. On
// caller cancellation it returns the context error without touching the
// status, so the record stays pending and a retry is safe.
func (s *IngestService) processFile(ctx context.Context, file *model.File, data []byte) error {
	logger := logutil.GetLogger(ctx).With(
		zap.String("user_id", file.UserID),
		zap.String("file_id", file.ID),
		zap.String("file", file.Name),
	)

	extractCtx, cancel := context.WithTimeout(ctx, s.cfg.ExtractTimeout)
	res, err := s.extractors.Extract(extractCtx, data, file.ContentType, file.Name)
	cancel()
	if err != nil {
		if canceled(ctx) {
			return ctx.Err()
		}
		logger.Warn("extraction failed", zap.Error(err))
		return s.settleFailed(ctx, file, err)
	}

	textKey := file.ID + ".txt"
	if err := s.blobs.Put(ctx, textKey, []byte(res.Text), "text/plain; charset=utf-8"); err != nil {
		// The text body is a convenience copy; losing it does not fail
		// the ingestion.
		logger.Warn("store extracted text failed", zap.Error(err))
		textKey = ""
	}

	chunks := s.chunker.Split(res.Text)
	logger.Info("file extracted",
		zap.Int("text_len", len(res.Text)),
		zap.Int("chunks", len(chunks)),
	)

	records, err := s.embedChunks(ctx, file.UserID, "", model.SourceTypeFileChunk, file.ID, chunks)
	if err != nil {
		if canceled(ctx) {
			return ctx.Err()
		}
		logger.Warn("embedding failed", zap.Error(err))
		return s.settleFailed(ctx, file, fmt.Errorf("%w: %v", appErr.ErrEmbeddingFailed, err))
	}

	if err := s.embeddings.StoreMany(ctx, records); err != nil {
		// Refused atomically: nothing indexed, file stays pending.
		return err
	}
	if err := s.files.MarkDone(ctx, file.ID, textKey); err != nil {
		return err
	}
	file.ExtractStatus = model.ExtractStatusDone
	file.TextKey = textKey
	logger.Info("file ingested", zap.Int("records", len(records)))
	return nil
}

func (s *IngestService) settleFailed(ctx context.Context, file *model.File, cause error) error {
	if err := s.files.MarkFailed(ctx, file.ID, cause.Error()); err != nil {
		return err
	}
	file.ExtractStatus = model.ExtractStatusFailed
	file.ExtractError = cause.Error()
	return nil
}

// IngestMessage indexes one chat message. Message text is already plain (any
// markdown decoration is flattened first), so the pipeline starts at
// chunking. Returns the number of records stored.
func (s *IngestService) IngestMessage(ctx context.Context, userID, conversationID, messageID, text string) (int, error) {
	if userID == "" || conversationID == "" || messageID == "" {
		return 0, fmt.Errorf("%w: user, conversation and message ids are required", appErr.ErrInvalid)
	}
	chunks := s.chunker.Split(flattenMarkdown(text))
	if len(chunks) == 0 {
		return 0, nil
	}
	records, err := s.embedChunks(ctx, userID, conversationID, model.SourceTypeMessage, messageID, chunks)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", appErr.ErrEmbeddingFailed, err)
	}
	if err := s.embeddings.StoreMany(ctx, records); err != nil {
		return 0, err
	}
	logutil.GetLogger(ctx).Info("message indexed",
		zap.String("user_id", userID),
		zap.String("conversation_id", conversationID),
		zap.String("message_id", messageID),
		zap.Int("records", len(records)),
	)
	return len(records), nil
}

// embedChunks embeds all chunks through a bounded worker pool and assembles
// the records in chunk order. The first failure cancels the remaining work.
func (s *IngestService) embedChunks(ctx context.Context, userID, conversationID string, sourceType model.SourceType, sourceID string, chunks []model.Chunk) ([]*model.EmbeddingRecord, error) {
	if len(chunks) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	now := time.Now().UnixMilli()
	records := make([]*model.EmbeddingRecord, len(chunks))
	sem := make(chan struct{}, s.cfg.EmbedWorkers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	setErr := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	for i := range chunks {
		wg.Add(1)
		go func(pos int, chunk model.Chunk) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				setErr(ctx.Err())
				return
			}
			callCtx, callCancel := context.WithTimeout(ctx, s.cfg.EmbedTimeout)
			vec, err := s.embedder.Embed(callCtx, chunk.Content, ai.TaskTypeDocument)
			callCancel()
			if err != nil {
				setErr(fmt.Errorf("embed chunk %d: %w", chunk.Index, err))
				return
			}
			records[pos] = &model.EmbeddingRecord{
				UserID:         userID,
				ConversationID: conversationID,
				SourceType:     sourceType,
				SourceID:       sourceID,
				ChunkIndex:     chunk.Index,
				Content:        chunk.Content,
				Embedding:      vec,
				Ctime:          now,
			}
		}(i, chunks[i])
	}
	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return records, nil
}

// Search embeds the query and returns the nearest chunks within scope,
// closest first. A scope referencing nothing yields an empty result, which
// is a legitimate answer, not an error.
func (s *IngestService) Search(ctx context.Context, userID, query string, scope model.SearchScope, limit int) ([]*model.SearchMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", appErr.ErrInvalid)
	}
	if limit <= 0 {
		limit = s.cfg.TopK
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.EmbedTimeout)
	defer cancel()
	vec, err := s.embedder.Embed(callCtx, query, ai.TaskTypeQuery)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrEmbeddingFailed, err)
	}
	return s.embeddings.Search(ctx, userID, vec, scope, limit)
}

// DeleteBySource drops the index entries of one message or file. The owning
// deletion flow must call this; there is no cascading delete underneath.
func (s *IngestService) DeleteBySource(ctx context.Context, sourceType model.SourceType, sourceID string) error {
	switch sourceType {
	case model.SourceTypeMessage, model.SourceTypeFileChunk:
	default:
		return fmt.Errorf("%w: unknown source type %q", appErr.ErrInvalid, sourceType)
	}
	if sourceID == "" {
		return fmt.Errorf("%w: source id is required", appErr.ErrInvalid)
	}
	return s.embeddings.DeleteBySource(ctx, sourceType, sourceID)
}

func (s *IngestService) DeleteByConversation(ctx context.Context, userID, conversationID string) error {
	if userID == "" || conversationID == "" {
		return fmt.Errorf("%w: user and conversation ids are required", appErr.ErrInvalid)
	}
	return s.embeddings.DeleteByConversation(ctx, userID, conversationID)
}

func (s *IngestService) GetFileStatus(ctx context.Context, userID, fileID string) (*model.File, error) {
	return s.files.GetByID(ctx, userID, fileID)
}

// RedrivePending retries files left pending longer than maxAge, reading their
// raw bytes back from the blob store. Abandoned ingestions end up here.
func (s *IngestService) RedrivePending(ctx context.Context, maxAge time.Duration, limit int) error {
	cutoff := time.Now().Add(-maxAge).UnixMilli()
	files, err := s.files.ListStuckPending(ctx, cutoff, limit)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	for _, file := range files {
		data, err := s.blobs.Get(ctx, file.FileKey)
		if err != nil {
			logger.Warn("redrive: raw file unavailable",
				zap.String("file_id", file.ID), zap.Error(err))
			continue
		}
		// A crash between the batch write and MarkDone leaves records for a
		// still-pending file; drop them so the rerun cannot double-index.
		if err := s.embeddings.DeleteBySource(ctx, model.SourceTypeFileChunk, file.ID); err != nil {
			logger.Warn("redrive: clear stale records failed",
				zap.String("file_id", file.ID), zap.Error(err))
			continue
		}
		if err := s.processFile(ctx, file, data); err != nil {
			if canceled(ctx) {
				return err
			}
			logger.Warn("redrive failed", zap.String("file_id", file.ID), zap.Error(err))
		}
	}
	return nil
}

func canceled(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}
