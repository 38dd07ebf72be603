package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_InitiallyAbsent(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Equal(t, City{}, <-s.ObserveCity(ctx))
}

func TestMemoryStore_SaveEmitsToExistingSubscriber(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.ObserveCity(ctx)
	<-ch

	require.NoError(t, s.SaveCity(ctx, "  Lahore "))
	assert.Equal(t, City{Name: "Lahore", Valid: true}, <-ch)
}

func TestMemoryStore_SaveThenFreshSubscription(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.SaveCity(ctx, "Lahore"))
	require.NoError(t, s.SaveCity(ctx, "Quetta"))

	assert.Equal(t, City{Name: "Quetta", Valid: true}, <-s.ObserveCity(ctx))
}

func TestMemoryStore_SameValueStillEmits(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.SaveCity(ctx, "Lahore"))
	ch := s.ObserveCity(ctx)
	<-ch

	require.NoError(t, s.SaveCity(ctx, "Lahore"))
	select {
	case v := <-ch:
		assert.Equal(t, "Lahore", v.Name)
	default:
		t.Fatal("expected an emission for an unchanged save")
	}
}

func TestMemoryStore_RejectsBlank(t *testing.T) {
	s := NewMemoryStore()
	assert.ErrorIs(t, s.SaveCity(context.Background(), "   "), ErrEmptyCity)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	s := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.SaveCity(ctx, "Lahore")
	var storageErr *StorageError
	assert.ErrorAs(t, err, &storageErr)
}
