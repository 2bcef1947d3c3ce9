package service

import (
	"context"
	"sync"

	"paperchat-be/internal/entity"
	"paperchat-be/internal/repository/contract"
	"paperchat-be/internal/repository/specification"
	"paperchat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// memoryStore backs the fake unit of work. Specifications other than ByID
// and BySessionID are ignored.
type memoryStore struct {
	mu        sync.Mutex
	documents []*entity.Document
	turns     []*entity.ChatTurn
	createErr error
}

type fakeFactory struct{ store *memoryStore }

func (f fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{store: f.store}
}

type fakeUnitOfWork struct{ store *memoryStore }

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                   { return nil }
func (u *fakeUnitOfWork) Rollback() error                 { return nil }

func (u *fakeUnitOfWork) DocumentRepository() contract.DocumentRepository {
	return fakeDocumentRepository{store: u.store}
}

func (u *fakeUnitOfWork) ChatTurnRepository() contract.ChatTurnRepository {
	return fakeChatTurnRepository{store: u.store}
}

type fakeDocumentRepository struct{ store *memoryStore }

func (r fakeDocumentRepository) Create(ctx context.Context, document *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.documents = append(r.store.documents, document)
	return nil
}

func (r fakeDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (r fakeDocumentRepository) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	all, _ := r.FindAll(ctx, specs...)
	if len(all) == 0 {
		return nil, nil
	}
	return all[0], nil
}

func (r fakeDocumentRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*entity.Document
	for _, d := range r.store.documents {
		if !matchesID(specs, d.Id) {
			continue
		}
		doc := *d
		if !hasSpec[specification.WithChunks](specs) {
			doc.Chunks = nil
		}
		if hasSpec[specification.WithChunkCount](specs) {
			doc.ChunkCount = len(d.Chunks)
		}
		out = append(out, &doc)
	}
	return out, nil
}

func (r fakeDocumentRepository) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, _ := r.FindAll(ctx, specs...)
	return int64(len(all)), nil
}

func hasSpec[T specification.Specification](specs []specification.Specification) bool {
	for _, s := range specs {
		if _, ok := s.(T); ok {
			return true
		}
	}
	return false
}

func matchesID(specs []specification.Specification, id uuid.UUID) bool {
	for _, s := range specs {
		if byID, ok := s.(specification.ByID); ok && byID.ID != id {
			return false
		}
	}
	return true
}

type fakeChatTurnRepository struct{ store *memoryStore }

func (r fakeChatTurnRepository) Create(ctx context.Context, turn *entity.ChatTurn) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.createErr != nil {
		return r.store.createErr
	}
	r.store.turns = append(r.store.turns, turn)
	return nil
}

func (r fakeChatTurnRepository) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatTurn, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*entity.ChatTurn
	for _, t := range r.store.turns {
		keep := true
		for _, s := range specs {
			if bs, ok := s.(specification.BySessionID); ok && bs.SessionID != t.SessionId {
				keep = false
			}
		}
		if keep {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r fakeChatTurnRepository) DeleteBySessionId(ctx context.Context, sessionId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.turns[:0]
	for _, t := range r.store.turns {
		if t.SessionId != sessionId {
			kept = append(kept, t)
		}
	}
	r.store.turns = kept
	return nil
}

func (m *memoryStore) archived() []*entity.ChatTurn {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*entity.ChatTurn(nil), m.turns...)
}
