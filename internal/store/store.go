package store

import (
	"context"
	"errors"
	"fmt"
)

// KeyCity is the preference key holding the selected city.
const KeyCity = "city"

// ErrEmptyCity is returned when saving a blank city name.
var ErrEmptyCity = errors.New("city must not be empty")

// City is a value read from the preference store. Valid is false until a city
// has been saved.
type City struct {
	Name  string
	Valid bool
}

// Store is the contract for the city preference store.
type Store interface {
	// ObserveCity emits the current value immediately and again after every
	// successful save. The channel is closed once ctx is done.
	ObserveCity(ctx context.Context) <-chan City
	// SaveCity upserts the city. Last write wins.
	SaveCity(ctx context.Context, city string) error
}

// StorageError reports a failed read or write of the preference store.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("preference store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("preference store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func cityFrom(values map[string]string) City {
	name, ok := values[KeyCity]
	return City{Name: name, Valid: ok}
}
