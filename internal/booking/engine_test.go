package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/sus-scheduling/internal/apperr"
	"github.com/hackgods/sus-scheduling/internal/store"
)

func TestPublishSlotScenario(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	first, err := f.publish(t, "D1", "20/06/2025", "08:00", "09:00")
	require.NoError(t, err)

	slot, err := f.engine.GetSlot(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, slot.Status)
	assert.Equal(t, "Cardiologia", slot.Specialty, "falls back to the doctor's specialty")
	assert.WithinDuration(t, f.clock.now, slot.CreatedAt, 0, "stored timestamps keep the instant, not the zone name")

	_, err = f.publish(t, "D1", "20/06/2025", "08:30", "09:30")
	assert.ErrorIs(t, err, ErrSlotConflict)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = f.publish(t, "D1", "20/06/2025", "09:00", "10:00")
	assert.NoError(t, err, "touching boundary is not an overlap")

	slots, err := f.engine.SlotsForDoctor(ctx, "D1")
	require.NoError(t, err)
	assert.Len(t, slots, 2)
}

func TestHasConflictBoundaries(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	_, err := f.publish(t, "D1", "20/06/2025", "09:00", "10:00")
	require.NoError(t, err)

	tests := []struct {
		name       string
		doctor     string
		date       string
		start, end string
		want       bool
	}{
		{"adjacent after", "D1", "20/06/2025", "10:00", "11:00", false},
		{"adjacent before", "D1", "20/06/2025", "08:00", "09:00", false},
		{"partial overlap", "D1", "20/06/2025", "09:30", "10:30", true},
		{"contained", "D1", "20/06/2025", "09:15", "09:45", true},
		{"containing", "D1", "20/06/2025", "08:00", "11:00", true},
		{"other doctor", "D2", "20/06/2025", "09:30", "10:30", false},
		{"other date", "D1", "21/06/2025", "09:30", "10:30", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.engine.HasConflict(ctx, tt.doctor, tt.date, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = f.engine.HasConflict(ctx, "D1", "20/06/2025", "9h", "10:00")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCancelledSlotsDoNotConflict(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	id, err := f.publish(t, "D1", "20/06/2025", "09:00", "10:00")
	require.NoError(t, err)
	_, err = f.engine.SetStatus(ctx, id, StatusCancelled, nil)
	require.NoError(t, err)

	_, err = f.publish(t, "D1", "20/06/2025", "09:00", "10:00")
	assert.NoError(t, err)
}

func TestPublishSlotValidation(t *testing.T) {
	f := newEngineFixture(t)

	tests := []struct {
		name             string
		doctor           string
		date, start, end string
		wantErr          error
	}{
		{"missing start", "D1", "20/06/2025", "", "09:00", ErrMissingField},
		{"missing date", "D1", "", "08:00", "09:00", ErrMissingField},
		{"bad time", "D1", "20/06/2025", "8h", "09:00", apperr.ErrValidation},
		{"bad date", "D1", "2025-06-20", "08:00", "09:00", apperr.ErrValidation},
		{"end equals start", "D1", "20/06/2025", "09:00", "09:00", ErrInvalidTimeRange},
		{"end before start", "D1", "20/06/2025", "10:00", "09:00", ErrInvalidTimeRange},
		{"starts exactly now", "D1", "16/06/2025", "09:00", "10:00", ErrSlotInPast},
		{"yesterday", "D1", "15/06/2025", "14:00", "15:00", ErrSlotInPast},
		{"unknown doctor", "D9", "20/06/2025", "08:00", "09:00", apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.publish(t, tt.doctor, tt.date, tt.start, tt.end)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// later today is fine
	_, err := f.publish(t, "D1", "16/06/2025", "09:30", "10:00")
	assert.NoError(t, err)
}

// Random slot sets against one doctor and date: every publish must be
// rejected exactly when it overlaps a live slot accepted earlier.
func TestPublishSlotNeverOverlaps(t *testing.T) {
	ctx := context.Background()
	faker := gofakeit.New(42)

	for round := 0; round < 20; round++ {
		f := newEngineFixture(t)

		type window struct {
			id         string
			start, end int
		}
		var live []window

		for i := 0; i < 30; i++ {
			start := faker.IntRange(7*4, 20*4) * 15
			end := start + faker.IntRange(1, 8)*15

			want := false
			for _, w := range live {
				if w.start < end && w.end > start {
					want = true
					break
				}
			}

			id, err := f.publish(t, "D1", "20/06/2025", FormatClock(start), FormatClock(end))
			if want {
				require.ErrorIs(t, err, ErrSlotConflict)
				continue
			}
			require.NoError(t, err)
			live = append(live, window{id: id, start: start, end: end})

			if faker.Bool() && len(live) > 1 {
				victim := faker.IntRange(0, len(live)-1)
				_, err := f.engine.SetStatus(ctx, live[victim].id, StatusCancelled, nil)
				require.NoError(t, err)
				live = append(live[:victim], live[victim+1:]...)
			}
		}

		slots, err := f.engine.SlotsForDoctor(ctx, "D1")
		require.NoError(t, err)
		for i := range slots {
			for j := i + 1; j < len(slots); j++ {
				a, b := slots[i], slots[j]
				if a.Status == StatusCancelled || b.Status == StatusCancelled {
					continue
				}
				as, _ := ParseClock(a.StartTime)
				ae, _ := ParseClock(a.EndTime)
				bs, _ := ParseClock(b.StartTime)
				be, _ := ParseClock(b.EndTime)
				assert.False(t, as < be && ae > bs, "%s-%s overlaps %s-%s", a.StartTime, a.EndTime, b.StartTime, b.EndTime)
			}
		}
	}
}

func TestSetStatusTransitions(t *testing.T) {
	ctx := context.Background()

	for _, target := range []SlotStatus{StatusCompleted, StatusCancelled} {
		t.Run(string(target), func(t *testing.T) {
			f := newEngineFixture(t)
			id, err := f.publish(t, "D1", "20/06/2025", "08:00", "09:00")
			require.NoError(t, err)

			notes := "retorno em 30 dias"
			slot, err := f.engine.SetStatus(ctx, id, target, &notes)
			require.NoError(t, err)
			assert.Equal(t, target, slot.Status)
			assert.Equal(t, notes, slot.Notes)

			for _, next := range []SlotStatus{StatusScheduled, StatusCompleted, StatusCancelled} {
				_, err := f.engine.SetStatus(ctx, id, next, nil)
				assert.ErrorIs(t, err, ErrInvalidStatusTransition, "%s -> %s", target, next)
			}

			stored, err := f.engine.GetSlot(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, target, stored.Status)
		})
	}

	f := newEngineFixture(t)
	id, err := f.publish(t, "D1", "20/06/2025", "08:00", "09:00")
	require.NoError(t, err)

	_, err = f.engine.SetStatus(ctx, id, "archived", nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = f.engine.SetStatus(ctx, "missing", StatusCompleted, nil)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestClaimReleaseScenario(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	id, err := f.publish(t, "D1", "20/06/2025", "08:00", "09:00")
	require.NoError(t, err)

	slot, err := f.engine.Claim(ctx, id, "P1")
	require.NoError(t, err)
	assert.Equal(t, "maria", slot.PatientName)
	assert.Equal(t, "52998224725", slot.PatientCPF)
	assert.Equal(t, "(11) 98888-7777", slot.PatientPhone)

	_, err = f.engine.Claim(ctx, id, "P2")
	assert.ErrorIs(t, err, ErrSlotNotOpen)
	assert.ErrorIs(t, err, apperr.ErrState)

	released, err := f.engine.Release(ctx, id)
	require.NoError(t, err)
	assert.True(t, released.Open())

	slot, err = f.engine.Claim(ctx, id, "P2")
	require.NoError(t, err)
	assert.Equal(t, "joao", slot.PatientName)
}

func TestClaimFailures(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	id, err := f.publish(t, "D1", "20/06/2025", "08:00", "09:00")
	require.NoError(t, err)

	_, err = f.engine.Claim(ctx, "missing", "P1")
	assert.ErrorIs(t, err, ErrSlotNotFound)

	_, err = f.engine.Claim(ctx, id, "nobody")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.engine.Release(ctx, id)
	assert.ErrorIs(t, err, ErrSlotNotClaimed)

	_, err = f.engine.SetStatus(ctx, id, StatusCompleted, nil)
	require.NoError(t, err)
	_, err = f.engine.Claim(ctx, id, "P1")
	assert.ErrorIs(t, err, ErrSlotNotOpen, "only scheduled slots can be claimed")
}

func TestDeleteSlot(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	id, err := f.publish(t, "D1", "20/06/2025", "08:00", "09:00")
	require.NoError(t, err)
	_, err = f.engine.Claim(ctx, id, "P1")
	require.NoError(t, err)

	require.NoError(t, f.engine.DeleteSlot(ctx, id))
	_, err = f.engine.GetSlot(ctx, id)
	assert.ErrorIs(t, err, ErrSlotNotFound)

	assert.ErrorIs(t, f.engine.DeleteSlot(ctx, id), ErrSlotNotFound)

	_, err = f.publish(t, "D1", "20/06/2025", "08:00", "09:00")
	assert.NoError(t, err, "deleted slot frees its window")
}

func TestOpenSlots(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	open, err := f.publish(t, "D1", "20/06/2025", "08:00", "09:00")
	require.NoError(t, err)
	claimed, err := f.publish(t, "D1", "20/06/2025", "09:00", "10:00")
	require.NoError(t, err)
	_, err = f.engine.Claim(ctx, claimed, "P1")
	require.NoError(t, err)
	startsSoon, err := f.publish(t, "D2", "16/06/2025", "10:00", "11:00")
	require.NoError(t, err)

	slots, err := f.engine.OpenSlots(ctx, "")
	require.NoError(t, err)
	assert.Len(t, slots, 2)

	slots, err = f.engine.OpenSlots(ctx, "cardiologia")
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, open, slots[0].ID)

	f.clock.now = f.clock.now.Add(61 * time.Minute)
	slots, err = f.engine.OpenSlots(ctx, "Pediatria")
	require.NoError(t, err)
	assert.Empty(t, slots, "slot %s already started", startsSoon)
}

func TestBookLegacy(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	in := LegacyInput{
		PatientID:  "P1",
		Specialty:  "ginecologia",
		DoctorName: "Dra. Ana Carolina - Ginecologia",
		Day:        "Quarta-feira",
		Time:       "14:00 - 18:00",
		Date:       "19/06/2025",
	}
	id, err := f.engine.BookLegacy(ctx, in)
	require.NoError(t, err)

	list, err := f.engine.LegacyBookings(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, "Ginecologia", list[0].Specialty)

	_, err = f.engine.BookLegacy(ctx, in)
	assert.ErrorIs(t, err, ErrAlreadyBooked)

	other := in
	other.PatientID = "P2"
	_, err = f.engine.BookLegacy(ctx, other)
	assert.NoError(t, err, "catalog periods are not exclusive")

	notOffered := in
	notOffered.Time = "08:00 - 12:00"
	_, err = f.engine.BookLegacy(ctx, notOffered)
	assert.ErrorIs(t, err, ErrNotInCatalog)

	unknown := in
	unknown.PatientID = "nobody"
	_, err = f.engine.BookLegacy(ctx, unknown)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.engine.BookLegacy(ctx, LegacyInput{PatientID: "P1"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestAppointmentsForMergesBothPaths(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	_, err := f.engine.BookLegacy(ctx, LegacyInput{
		PatientID:  "P1",
		Specialty:  "cardiologia",
		DoctorName: "Dr. João Cardoso - Cardiologia",
		Day:        "Segunda-feira",
		Time:       "09:00 - 13:00",
		Date:       "17/06/2025",
	})
	require.NoError(t, err)

	mine, err := f.publish(t, "D1", "20/06/2025", "08:00", "09:00")
	require.NoError(t, err)
	_, err = f.engine.Claim(ctx, mine, "P1")
	require.NoError(t, err)

	theirs, err := f.publish(t, "D1", "20/06/2025", "09:00", "10:00")
	require.NoError(t, err)
	_, err = f.engine.Claim(ctx, theirs, "P2")
	require.NoError(t, err)

	// an older client bound this slot by cpf under a different display name
	byCPF, err := f.publish(t, "D2", "21/06/2025", "10:00", "11:00")
	require.NoError(t, err)
	raw, err := f.engine.slots.Load(ctx)
	require.NoError(t, err)
	for i := range raw {
		if raw[i].ID == byCPF {
			raw[i].PatientName = "Maria Silva"
			raw[i].PatientCPF = "529.982.247-25"
		}
	}
	require.NoError(t, f.engine.slots.Save(ctx, raw))

	appts, err := f.engine.AppointmentsFor(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, appts, 3)
	assert.Equal(t, SourceLegacy, appts[0].Source)
	assert.Equal(t, "Dr(a). Paulo Mendes - Cardiologia", appts[1].DoctorName)
	assert.Equal(t, "Sexta-feira", appts[1].Day)
	assert.Equal(t, "Dr(a). Lucia Ramos - Pediatria", appts[2].DoctorName)

	again, err := f.engine.AppointmentsFor(ctx, "P1")
	require.NoError(t, err)
	assert.ElementsMatch(t, appts, again)

	future, past := SplitFutureVsPast(appts, f.engine.Now())
	assert.Len(t, future, 3)
	assert.Empty(t, past)
}

func TestAppointmentsForUnknownDoctor(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	id, err := f.publish(t, "D1", "20/06/2025", "08:00", "09:00")
	require.NoError(t, err)
	_, err = f.engine.Claim(ctx, id, "P1")
	require.NoError(t, err)
	delete(f.dir.doctors, "D1")

	appts, err := f.engine.AppointmentsFor(ctx, "P1")
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, "Dr(a). Médico - Cardiologia", appts[0].DoctorName)
}

func TestCancelForPatient(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	legacyID, err := f.engine.BookLegacy(ctx, LegacyInput{
		PatientID:  "P1",
		Specialty:  "ortopedia",
		DoctorName: "Dr. Marcos Ossos - Ortopedia",
		Day:        "Sexta-feira",
		Time:       "13:00 - 17:00",
		Date:       "21/06/2025",
	})
	require.NoError(t, err)

	slotID, err := f.publish(t, "D1", "20/06/2025", "08:00", "09:00")
	require.NoError(t, err)
	_, err = f.engine.Claim(ctx, slotID, "P1")
	require.NoError(t, err)

	assert.ErrorIs(t, f.engine.CancelForPatient(ctx, "P2", SourceLegacy, legacyID), ErrBookingNotFound)
	assert.ErrorIs(t, f.engine.CancelForPatient(ctx, "P2", SourceSlot, slotID), ErrSlotNotOwned)
	assert.ErrorIs(t, f.engine.CancelForPatient(ctx, "P1", "email", slotID), apperr.ErrValidation)

	require.NoError(t, f.engine.CancelForPatient(ctx, "P1", SourceLegacy, legacyID))
	require.NoError(t, f.engine.CancelForPatient(ctx, "P1", SourceSlot, slotID))

	appts, err := f.engine.AppointmentsFor(ctx, "P1")
	require.NoError(t, err)
	assert.Empty(t, appts)

	slot, err := f.engine.GetSlot(ctx, slotID)
	require.NoError(t, err)
	assert.True(t, slot.Open(), "cancelled claim releases the slot")
}

func TestFinishedSlotsKeepTheirPatient(t *testing.T) {
	for _, final := range []SlotStatus{StatusCompleted, StatusCancelled} {
		t.Run(string(final), func(t *testing.T) {
			ctx := context.Background()
			f := newEngineFixture(t)

			id, err := f.publish(t, "D1", "20/06/2025", "08:00", "09:00")
			require.NoError(t, err)
			_, err = f.engine.Claim(ctx, id, "P1")
			require.NoError(t, err)
			_, err = f.engine.SetStatus(ctx, id, final, nil)
			require.NoError(t, err)

			err = f.engine.CancelForPatient(ctx, "P1", SourceSlot, id)
			assert.ErrorIs(t, err, ErrSlotNotOpen)
			assert.ErrorIs(t, err, apperr.ErrState)

			_, err = f.engine.Release(ctx, id)
			assert.ErrorIs(t, err, ErrSlotNotOpen)

			slot, err := f.engine.GetSlot(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, final, slot.Status)
			assert.Equal(t, "maria", slot.PatientName)
			assert.Equal(t, "52998224725", slot.PatientCPF)

			appts, err := f.engine.AppointmentsFor(ctx, "P1")
			require.NoError(t, err)
			assert.Len(t, appts, 1, "history still lists the finished appointment")
		})
	}
}

func TestWritesNormaliseStoredSlots(t *testing.T) {
	ctx := context.Background()
	f := newEngineFixture(t)

	// records written by an older client: no status, padded name, punctuated cpf
	old := store.NewCollection[Slot](f.records, store.KeyDoctorSlots)
	require.NoError(t, old.Save(ctx, []Slot{
		{ID: "old-open", DoctorID: "D1", Specialty: "Cardiologia", StartTime: "08:00", EndTime: "09:00", Date: "20/06/2025"},
		{ID: "old-claimed", DoctorID: "D1", Specialty: "Cardiologia", StartTime: "10:00", EndTime: "11:00", Date: "20/06/2025",
			PatientName: " joao ", PatientCPF: "111.444.777-35"},
	}))

	_, err := f.engine.Claim(ctx, "old-open", "P1")
	require.NoError(t, err, "a missing status reads as scheduled")

	stored, err := old.Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, StatusScheduled, stored[1].Status)
	assert.Equal(t, "joao", stored[1].PatientName)
	assert.Equal(t, "11144477735", stored[1].PatientCPF)
}

type brokenStorage struct{ store.Storage }

func (brokenStorage) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func TestStorageFailureSurfacesAsInfrastructure(t *testing.T) {
	ctx := context.Background()
	dir := newFakeDirectory()
	dir.doctors["D1"] = newEngineFixture(t).dir.doctors["D1"]

	e := NewEngine(brokenStorage{store.NewMemoryStorage()}, store.NewMutexLocker(), dir, dir, Options{Logger: zerolog.Nop()})

	_, err := e.PublishSlot(ctx, SlotInput{DoctorID: "D1", StartTime: "08:00", EndTime: "09:00", Date: "20/06/2099"})
	assert.ErrorIs(t, err, apperr.ErrInfrastructure)

	_, err = e.OpenSlots(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrInfrastructure)
	assert.False(t, apperr.IsDomain(err))
}

type refusingLocker struct{}

func (refusingLocker) WithLock(context.Context, string, func(context.Context) error) error {
	return errors.New("lock busy")
}

func TestLockFailureIsInfrastructure(t *testing.T) {
	f := newEngineFixture(t)
	e := NewEngine(f.records, refusingLocker{}, f.dir, f.dir, Options{Now: f.clock.Now, Location: brt, Logger: zerolog.Nop()})

	_, err := e.PublishSlot(context.Background(), SlotInput{DoctorID: "D1", StartTime: "08:00", EndTime: "09:00", Date: "20/06/2025"})
	assert.ErrorIs(t, err, apperr.ErrInfrastructure)
}
