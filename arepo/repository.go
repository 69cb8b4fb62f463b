// Package arepo offers a generic in memory repository,
// so fixtures can be stored without any database.
package arepo

import (
	"errors"
	"reflect"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("exists already")
	ErrSaveFailed    = errors.New("save failed")
)

// id are the types allowed as a primary key.
type id interface {
	~string |
		~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Option sets optional properties of a MemoryRepository.
type Option func(config *repoConfig)

// WithIDField sets the name of the field that is used as the primary key.
// If not set, it is assumed that the entity struct has a field with the name "ID".
func WithIDField(idFieldName string) Option { //nolint:revive // unexported-return is OK for this option
	return func(config *repoConfig) {
		config.idFieldName = idFieldName
	}
}

// WithStore sets a Store used to persist the repository.
//
// There are no transactions or any consistency guarantees at all! For example, if a store fails,
// the collection is still changed in memory of the repository.
func WithStore(store Store) Option { //nolint:revive // unexported-return is OK for this option
	return func(config *repoConfig) {
		config.store = store
	}
}

// WithStoreFilename overwrites the file name a Store uses for this repository.
func WithStoreFilename(name string) Option { //nolint:revive // unexported-return is OK for this option
	return func(config *repoConfig) {
		config.filename = name
	}
}

type repoConfig struct {
	store       Store
	idFieldName string
	filename    string
}

func defaultFileName(entity any) string {
	return reflect.TypeOf(entity).Elem().Name() + ".json"
}
