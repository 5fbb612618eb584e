package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/sus-scheduling/internal/identity"
)

func TestSlotToAppointment(t *testing.T) {
	created := time.Date(2025, 6, 16, 9, 0, 0, 0, brt)
	s := Slot{
		ID:          "s1",
		DoctorID:    "D1",
		PatientName: "maria",
		Specialty:   "Cardiologia",
		StartTime:   "08:00",
		EndTime:     "09:00",
		Date:        "20/06/2025",
		Status:      StatusScheduled,
		CreatedAt:   created,
	}

	got := SlotToAppointment(s, "Paulo Mendes", brt)
	assert.Equal(t, UnifiedAppointment{
		ID:         "s1",
		Source:     SourceSlot,
		DoctorName: "Dr(a). Paulo Mendes - Cardiologia",
		Specialty:  "Cardiologia",
		Day:        "Sexta-feira",
		Time:       "08:00 - 09:00",
		Date:       "20/06/2025",
		Status:     StatusScheduled,
		BookedAt:   created,
	}, got)

	s.Date = "not a date"
	assert.Empty(t, SlotToAppointment(s, "Paulo Mendes", brt).Day)
}

func TestSlotBelongsTo(t *testing.T) {
	p := identity.Patient{Email: "maria@example.com", CPF: "52998224725"}

	assert.True(t, SlotBelongsTo(Slot{PatientName: "maria"}, p))
	assert.True(t, SlotBelongsTo(Slot{PatientName: "Maria S.", PatientCPF: "529.982.247-25"}, p))
	assert.False(t, SlotBelongsTo(Slot{PatientName: "joao", PatientCPF: "11144477735"}, p))
	assert.False(t, SlotBelongsTo(Slot{}, p), "unclaimed slots belong to nobody")
}

func TestDedupeKeepsFirst(t *testing.T) {
	in := []UnifiedAppointment{
		{ID: "a", Source: SourceLegacy, DoctorName: "Dr. X", Date: "20/06/2025", Time: "08:00 - 09:00"},
		{ID: "b", Source: SourceSlot, DoctorName: "Dr. X", Date: "20/06/2025", Time: "08:00 - 09:00"},
		{ID: "c", Source: SourceSlot, DoctorName: "Dr. X", Date: "20/06/2025", Time: "09:00 - 10:00"},
		{ID: "d", Source: SourceSlot, DoctorName: "Dr. Y", Date: "20/06/2025", Time: "08:00 - 09:00"},
	}
	out := Dedupe(in)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"a", "c", "d"}, []string{out[0].ID, out[1].ID, out[2].ID})

	assert.Equal(t, out, Dedupe(out))
}

func TestSplitFutureVsPast(t *testing.T) {
	appts := []UnifiedAppointment{
		{ID: "yesterday", Date: "19/06/2025"},
		{ID: "today", Date: "20/06/2025", Time: "08:00 - 09:00"},
		{ID: "tomorrow", Date: "21/06/2025"},
		{ID: "garbage", Date: "sexta"},
	}

	// one minute before midnight the morning appointment of today is still future
	now := time.Date(2025, 6, 20, 23, 59, 0, 0, brt)
	future, past := SplitFutureVsPast(appts, now)

	ids := func(list []UnifiedAppointment) []string {
		out := []string{}
		for _, a := range list {
			out = append(out, a.ID)
		}
		return out
	}
	assert.Equal(t, []string{"today", "tomorrow"}, ids(future))
	assert.Equal(t, []string{"yesterday", "garbage"}, ids(past))

	future, past = SplitFutureVsPast(nil, now)
	assert.Empty(t, future)
	assert.Empty(t, past)
}

func TestSummarizeByStatus(t *testing.T) {
	sum := SummarizeByStatus([]Slot{
		{Status: StatusScheduled, PatientName: "maria"},
		{Status: StatusScheduled},
		{Status: StatusCompleted, PatientName: "joao"},
		{Status: StatusCancelled},
	})
	assert.Equal(t, StatusSummary{Total: 4, Scheduled: 2, Completed: 1, Cancelled: 1, Claimed: 2}, sum)
}

func TestMigrateSlot(t *testing.T) {
	old := Slot{ID: "s1", PatientName: "   ", PatientCPF: "529.982.247-25", PatientPhone: " (11) 98888-7777 "}

	got := MigrateSlot(old)
	assert.Equal(t, StatusScheduled, got.Status)
	assert.False(t, got.Claimed())
	assert.Equal(t, "52998224725", got.PatientCPF)
	assert.Equal(t, "(11) 98888-7777", got.PatientPhone)

	assert.Equal(t, got, MigrateSlot(got))

	done := MigrateSlot(Slot{Status: StatusCompleted})
	assert.Equal(t, StatusCompleted, done.Status)
}

func TestCatalog(t *testing.T) {
	all := Catalog()
	require.Len(t, all, 6)
	assert.Equal(t, "ginecologia", all[0].Slug)

	specialty, ok := CatalogBySlug("clinica-geral")
	require.True(t, ok)
	assert.Equal(t, "Clínica Geral", specialty.Name)
	assert.Len(t, specialty.Doctors, 2)

	_, ok = CatalogBySlug("neurologia")
	assert.False(t, ok)

	name, ok := catalogMatch("cardiologia", "Dr. João Cardoso - Cardiologia", "Quarta-feira", "15:00 - 19:00", "19/06/2025")
	assert.True(t, ok)
	assert.Equal(t, "Cardiologia", name)

	_, ok = catalogMatch("Cardiologia", "Dr. João Cardoso - Cardiologia", "Quarta-feira", "14:00 - 18:00", "19/06/2025")
	assert.False(t, ok)
}
