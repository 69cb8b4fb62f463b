package arepo

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// NewMemoryRepository returns an in memory repository for the entity E.
// It is expected that E has a field called `ID`, that is used as the primary key and can
// be overwritten by WithIDField.
// Embed it into your own repository to extend it with the methods your use case requires.
func NewMemoryRepository[E any, ID id](opts ...Option) *MemoryRepository[E, ID] {
	repo := &MemoryRepository[E, ID]{
		Mutex: &sync.Mutex{},
		Data:  make(map[ID]E),
		order: []ID{},
		repoConfig: repoConfig{
			idFieldName: "ID",
			store:       NoopStore,
			filename:    defaultFileName(new(E)),
		},
	}

	for _, opt := range opts {
		opt(&repo.repoConfig)
	}

	err := repo.store.Load(repo.filename, &repo.Data)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		panic("could not load data for memory repository from store: " + err.Error())
	}

	for id := range repo.Data {
		repo.order = append(repo.order, id)
	}

	slices.SortFunc(repo.order, func(a, b ID) int { return cmp.Compare(a, b) })

	return repo
}

// MemoryRepository stores entities in memory. Use it to speed up your unit testing.
//
// Warning: the consistency of MemoryRepository is not on par with ACID guarantees of a RDBMS.
type MemoryRepository[E any, ID id] struct {
	// Mutex is embedded, so that repositories who extend MemoryRepository can lock the same mutex as other methods.
	*sync.Mutex

	// Data is the repository's collection. It is exposed in case you're extending the repository.
	// If you write to Data, USE the Mutex to lock first.
	Data map[ID]E

	// order keeps the IDs in the order the entities got created.
	order        []ID
	currentIntID ID

	repoConfig
}

const panicIDNotSupported = "type of ID is not supported: "

func (repo *MemoryRepository[E, ID]) getID(entity any) ID { //nolint:ireturn // fp, generic type
	idField := reflect.ValueOf(entity).FieldByName(repo.idFieldName)
	if !idField.IsValid() {
		panic("entity does not have the field with name: " + repo.idFieldName)
	}

	var id ID

	switch idField.Kind() {
	case reflect.String:
		reflect.ValueOf(&id).Elem().SetString(idField.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		reflect.ValueOf(&id).Elem().SetInt(idField.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		reflect.ValueOf(&id).Elem().SetUint(idField.Uint())
	default:
		panic(panicIDNotSupported + idField.Kind().String())
	}

	return id
}

// NextID returns a new ID. String IDs are UUIDs, integer IDs count up from 1.
func (repo *MemoryRepository[E, ID]) NextID(_ context.Context) (ID, error) { //nolint:ireturn // fp, generic type
	var id ID

	switch reflect.TypeOf(id).Kind() {
	case reflect.String:
		reflect.ValueOf(&id).Elem().SetString(uuid.New().String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		repo.Lock()
		defer repo.Unlock()

		next := reflect.ValueOf(&repo.currentIntID).Elem().Int() + 1
		reflect.ValueOf(&repo.currentIntID).Elem().SetInt(next)
		reflect.ValueOf(&id).Elem().SetInt(next)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		repo.Lock()
		defer repo.Unlock()

		next := reflect.ValueOf(&repo.currentIntID).Elem().Uint() + 1
		reflect.ValueOf(&repo.currentIntID).Elem().SetUint(next)
		reflect.ValueOf(&id).Elem().SetUint(next)
	default:
		panic(panicIDNotSupported + reflect.TypeOf(id).Kind().String())
	}

	return id, nil
}

// Create stores a new entity. The entity needs an ID.
func (repo *MemoryRepository[E, ID]) Create(_ context.Context, entity E) error {
	repo.Lock()
	defer repo.Unlock()

	id := repo.getID(entity)
	if id == *new(ID) {
		return fmt.Errorf("missing ID: %w", ErrSaveFailed)
	}

	if _, found := repo.Data[id]; found {
		return ErrAlreadyExists
	}

	repo.Data[id] = entity

	if err := repo.store.Store(repo.filename, repo.Data); err != nil {
		delete(repo.Data, id)
		return fmt.Errorf("could not save: %w", err)
	}

	repo.order = append(repo.order, id)

	return nil
}

func (repo *MemoryRepository[E, ID]) FindByID(_ context.Context, id ID) (E, error) { //nolint:ireturn // valid use of generics
	repo.Lock()
	defer repo.Unlock()

	entity, found := repo.Data[id]
	if !found {
		return *new(E), ErrNotFound
	}

	return entity, nil
}

// All returns all entities in the order they got created.
func (repo *MemoryRepository[E, ID]) All(_ context.Context) ([]E, error) {
	repo.Lock()
	defer repo.Unlock()

	all := make([]E, 0, len(repo.order))
	for _, id := range repo.order {
		all = append(all, repo.Data[id])
	}

	return all, nil
}

func (repo *MemoryRepository[E, ID]) Count(_ context.Context) (int, error) {
	repo.Lock()
	defer repo.Unlock()

	return len(repo.Data), nil
}

// Clear removes all entities, e.g. to tear down after a test.
func (repo *MemoryRepository[E, ID]) Clear(_ context.Context) error {
	repo.Lock()
	defer repo.Unlock()

	repo.Data = make(map[ID]E)
	repo.order = []ID{}

	if err := repo.store.Store(repo.filename, repo.Data); err != nil {
		return fmt.Errorf("could not clear: %w", err)
	}

	return nil
}
