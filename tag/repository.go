package tag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-arrower/tagfactory/arepo"
)

// Repository stores tags durably.
type Repository interface {
	NextID(ctx context.Context) (ID, error)
	// Create stores a new tag and returns it as stored, e.g. with CreatedAt set.
	Create(ctx context.Context, tag Tag) (Tag, error)
	FindByID(ctx context.Context, id ID) (Tag, error)
	All(ctx context.Context) ([]Tag, error)
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository returns a Repository keeping tags in memory.
func NewMemoryRepository(opts ...arepo.Option) *MemoryRepository {
	return &MemoryRepository{
		MemoryRepository: arepo.NewMemoryRepository[Tag, ID](opts...),
		now:              time.Now,
	}
}

// MemoryRepository behaves like PostgresRepository, including the unique names.
type MemoryRepository struct {
	*arepo.MemoryRepository[Tag, ID]

	now func() time.Time
}

func (repo *MemoryRepository) Create(ctx context.Context, tag Tag) (Tag, error) {
	if err := tag.Validate(); err != nil {
		return Tag{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	if tag.CreatedAt.IsZero() {
		tag.CreatedAt = repo.now().UTC()
	}

	if repo.nameTaken(tag.Name) {
		return Tag{}, fmt.Errorf("%w: name %s exists already", ErrPersistence, tag.Name)
	}

	if err := repo.MemoryRepository.Create(ctx, tag); err != nil {
		return Tag{}, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	return tag, nil
}

func (repo *MemoryRepository) nameTaken(name string) bool {
	repo.Lock()
	defer repo.Unlock()

	for _, t := range repo.Data {
		if t.Name == name {
			return true
		}
	}

	return false
}

func (repo *MemoryRepository) FindByID(ctx context.Context, id ID) (Tag, error) {
	tag, err := repo.MemoryRepository.FindByID(ctx, id)
	if errors.Is(err, arepo.ErrNotFound) {
		return Tag{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return tag, err //nolint:wrapcheck // only not found is possible
}
