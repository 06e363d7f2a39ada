package usecase

import (
	"context"
	"fmt"

	"github.com/documind-ai/documind/internal/core/domain"
	"github.com/documind-ai/documind/internal/core/ports"
)

// ReaderUseCase serves document metadata reads and deletion, scoped to the
// requesting owner. A document belonging to someone else is reported as not
// found rather than forbidden, so ids cannot be probed for existence.
type ReaderUseCase struct {
	repo ports.DocumentRepository
}

func NewReaderUseCase(repo ports.DocumentRepository) *ReaderUseCase {
	return &ReaderUseCase{repo: repo}
}

func (uc *ReaderUseCase) GetByID(ctx context.Context, owner domain.AuthenticatedUser, id string) (*domain.Document, error) {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.OwnerID != owner.ID {
		return nil, domain.WrapError(domain.ErrDocumentNotFound, "fetch document",
			fmt.Errorf("id %s", id))
	}
	return doc, nil
}

func (uc *ReaderUseCase) ListByOwner(ctx context.Context, owner domain.AuthenticatedUser) ([]domain.Document, error) {
	return uc.repo.ListByOwner(ctx, owner.ID)
}

func (uc *ReaderUseCase) Delete(ctx context.Context, owner domain.AuthenticatedUser, id string) error {
	if _, err := uc.GetByID(ctx, owner, id); err != nil {
		return err
	}
	return uc.repo.Delete(ctx, id)
}
