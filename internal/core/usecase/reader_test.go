package usecase

import (
	"context"
	"testing"

	"github.com/documind-ai/documind/internal/core/domain"
)

func TestReaderHidesForeignDocuments(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", OwnerID: "someone-else"}}
	uc := NewReaderUseCase(repo)

	_, err := uc.GetByID(context.Background(), testOwner, "doc-1")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound for foreign document, got %v", err)
	}
}

func TestReaderReturnsOwnDocument(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", OwnerID: testOwner.ID, Status: domain.StatusProcessed}}
	uc := NewReaderUseCase(repo)

	doc, err := uc.GetByID(context.Background(), testOwner, "doc-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if doc.ID != "doc-1" {
		t.Fatalf("doc.ID = %q", doc.ID)
	}
}

func TestReaderDeleteChecksOwnershipFirst(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", OwnerID: "someone-else"}}
	uc := NewReaderUseCase(repo)

	err := uc.Delete(context.Background(), testOwner, "doc-1")
	if !domain.IsKind(err, domain.ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatalf("foreign document was deleted")
	}
}

func TestReaderDeleteRemovesOwnDocument(t *testing.T) {
	repo := &repoFake{doc: &domain.Document{ID: "doc-1", OwnerID: testOwner.ID}}
	uc := NewReaderUseCase(repo)

	if err := uc.Delete(context.Background(), testOwner, "doc-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != "doc-1" {
		t.Fatalf("deleted = %v, want [doc-1]", repo.deleted)
	}
}
