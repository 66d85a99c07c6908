package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assortclinic/clinic-mate/internal/store"
	"github.com/assortclinic/clinic-mate/pkg/logging"
)

var seedStart = time.Date(2025, time.June, 9, 0, 0, 0, 0, time.UTC)

func newSeededEngine(t *testing.T) (*Engine, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	require.NoError(t, store.Seed(context.Background(), st, seedStart))
	return NewEngine(st, logging.New("error"), time.UTC, 30), st
}

func TestResolveSpecialty(t *testing.T) {
	ctx := context.Background()
	e, _ := newSeededEngine(t)

	tests := []struct {
		query string
		want  string
	}{
		{"Cardiology", "Cardiology"},
		{"I need to see cardiology", "Cardiology"},
		{"heart issues", "Cardiology"},
		{"something wrong with my eyes", "Ophthalmology"},
		{"ENT", "Otolaryngology"},
		{"my throat hurts", "Otolaryngology"},
		{"skin rash", "Dermatology"},
		{"bad knees and joints", "Orthopedics"},
		{"trouble breathing", "Pulmonology"},
		{"stomach pain", "Gastroenterology"},
		{"constant headache", "Neurology"},
		// Token overlap against the description text.
		{"blood vessel problems", "Cardiology"},
	}
	for _, tc := range tests {
		got, err := e.ResolveSpecialty(ctx, tc.query)
		require.NoError(t, err, tc.query)
		assert.Equal(t, tc.want, got.Name, tc.query)
	}

	_, err := e.ResolveSpecialty(ctx, "underwater basket weaving")
	assert.ErrorIs(t, err, store.ErrSpecialtyNotFound)
	_, err = e.ResolveSpecialty(ctx, "   ")
	assert.ErrorIs(t, err, store.ErrSpecialtyNotFound)
}

func TestResolveDoctor(t *testing.T) {
	ctx := context.Background()
	e, _ := newSeededEngine(t)

	for _, query := range []string{"Dr. Jane Smith", "dr jane smith", "Doctor Jane Smith", "JANE SMITH", "jane smith"} {
		doc, err := e.ResolveDoctor(ctx, query)
		require.NoError(t, err, query)
		assert.Equal(t, "Dr. Jane Smith", doc.Name, query)
	}

	// Partial names match by containment.
	doc, err := e.ResolveDoctor(ctx, "Patel")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Michelle Patel", doc.Name)

	_, err = e.ResolveDoctor(ctx, "Dr. Nobody")
	assert.ErrorIs(t, err, store.ErrDoctorNotFound)
}

func TestNextAvailableSlotsExcludesBookedAndPast(t *testing.T) {
	ctx := context.Background()
	e, _ := newSeededEngine(t)

	doc, err := e.ResolveDoctor(ctx, "Jane Smith")
	require.NoError(t, err)

	slots, err := e.NextAvailableSlots(ctx, doc.ID, seedStart, 5)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	for i, s := range slots {
		assert.False(t, s.Time.Before(seedStart))
		assert.Equal(t, FormatDateTime(s.Time), s.Display)
		if i > 0 {
			assert.True(t, slots[i-1].Time.Before(s.Time), "slots must be sorted")
		}
	}

	// Booking the first slot removes it from the next listing.
	first := slots[0]
	_, err = e.Book(ctx, doc.ID, 0, first.Time, "checkup")
	require.NoError(t, err)

	after, err := e.NextAvailableSlots(ctx, doc.ID, seedStart, 5)
	require.NoError(t, err)
	for _, s := range after {
		assert.False(t, s.Time.Equal(first.Time), "booked slot still offered")
	}

	// A cutoff after the first slot hides everything before it.
	later, err := e.NextAvailableSlots(ctx, doc.ID, slots[1].Time, 5)
	require.NoError(t, err)
	require.NotEmpty(t, later)
	assert.True(t, later[0].Time.Equal(slots[1].Time) || later[0].Time.After(slots[1].Time))
}

func TestBookSurfacesStoreSentinels(t *testing.T) {
	ctx := context.Background()
	e, _ := newSeededEngine(t)

	doc, err := e.ResolveDoctor(ctx, "Jane Smith")
	require.NoError(t, err)

	slots, err := e.NextAvailableSlots(ctx, doc.ID, seedStart, 1)
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	appt, err := e.Book(ctx, doc.ID, 0, slots[0].Time, "")
	require.NoError(t, err)
	assert.Equal(t, store.StatusScheduled, appt.Status)
	assert.Equal(t, 30, appt.DurationMinutes)

	// Same instant again: conflict.
	_, err = e.Book(ctx, doc.ID, 0, slots[0].Time, "")
	assert.ErrorIs(t, err, store.ErrSlotConflict)

	// An instant the doctor never offers: unavailable.
	_, err = e.Book(ctx, doc.ID, 0, slots[0].Time.Add(7*time.Minute), "")
	assert.ErrorIs(t, err, store.ErrSlotUnavailable)
}
