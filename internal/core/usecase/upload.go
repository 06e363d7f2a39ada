package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/documind-ai/documind/internal/core/domain"
	"github.com/documind-ai/documind/internal/core/ports"
)

var pdfMagic = []byte("%PDF-")

// UploadUseCase stores an uploaded document and dispatches its processing
// job. When the queue is unreachable the job runs in-process instead, so an
// upload never fails just because the broker is down.
type UploadUseCase struct {
	repo          ports.DocumentRepository
	storage       ports.ObjectStorage
	dispatcher    ports.JobDispatcher
	processor     ports.DocumentProcessor
	maxUploadSize int64
	taskTimeout   time.Duration
	logger        *slog.Logger
}

func NewUploadUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	dispatcher ports.JobDispatcher,
	processor ports.DocumentProcessor,
	maxUploadSize int64,
	taskTimeout time.Duration,
	logger *slog.Logger,
) *UploadUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	if taskTimeout <= 0 {
		taskTimeout = 5 * time.Minute
	}
	return &UploadUseCase{
		repo:          repo,
		storage:       storage,
		dispatcher:    dispatcher,
		processor:     processor,
		maxUploadSize: maxUploadSize,
		taskTimeout:   taskTimeout,
		logger:        logger,
	}
}

func (uc *UploadUseCase) Upload(
	ctx context.Context,
	owner domain.AuthenticatedUser,
	filename, contentType string,
	data []byte,
) (*domain.Document, error) {
	if len(data) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document", errors.New("empty file"))
	}
	if uc.maxUploadSize > 0 && int64(len(data)) > uc.maxUploadSize {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			fmt.Errorf("file size %d exceeds limit %d", len(data), uc.maxUploadSize))
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "upload document",
			errors.New("only PDF files are supported"))
	}

	id := uuid.NewString()
	key := fmt.Sprintf("%s/%s/%s", owner.ID, id, sanitizeFilename(filename))
	now := time.Now().UTC()

	location, err := uc.storage.Save(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		return nil, fmt.Errorf("save to object storage: %w", err)
	}

	doc := &domain.Document{
		ID:              id,
		OwnerID:         owner.ID,
		Title:           filename,
		StorageLocation: location,
		Status:          domain.StatusUploaded,
		Metadata: map[string]any{
			domain.MetaOriginalName:    filename,
			domain.MetaSize:            len(data),
			domain.MetaContentType:     contentType,
			domain.MetaStorageProvider: uc.storage.Provider(),
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document metadata: %w", err)
	}

	if err := uc.dispatcher.Dispatch(ctx, doc.ID); err != nil {
		if !domain.IsKind(err, domain.ErrQueueUnavailable) {
			return nil, fmt.Errorf("dispatch processing job: %w", err)
		}
		uc.logger.Warn("queue unavailable, processing document in-process",
			"document_id", doc.ID, "error", err)
		uc.processLocally(doc.ID)
	}

	return doc, nil
}

// processLocally runs the processing job in a goroutine with its own
// deadline. The upload request's context is not used: the job must outlive
// the HTTP request that triggered it.
func (uc *UploadUseCase) processLocally(documentID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), uc.taskTimeout)
		defer cancel()
		if err := uc.processor.ProcessByID(ctx, documentID); err != nil {
			uc.logger.Error("in-process document processing failed",
				"document_id", documentID, "error", err)
		}
	}()
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || base == "." {
		return "document.pdf"
	}
	return base
}
