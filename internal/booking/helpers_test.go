package booking

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/hackgods/sus-scheduling/internal/identity"
	"github.com/hackgods/sus-scheduling/internal/store"
)

var brt = time.FixedZone("BRT", -3*60*60)

type fakeDirectory struct {
	patients map[string]identity.Patient
	doctors  map[string]identity.Doctor
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		patients: map[string]identity.Patient{},
		doctors:  map[string]identity.Doctor{},
	}
}

func (f *fakeDirectory) PatientByID(_ context.Context, id string) (*identity.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, identity.ErrPatientNotFound
	}
	return &p, nil
}

func (f *fakeDirectory) DoctorByID(_ context.Context, id string) (*identity.Doctor, error) {
	d, ok := f.doctors[id]
	if !ok {
		return nil, identity.ErrDoctorNotFound
	}
	return &d, nil
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

type engineFixture struct {
	engine  *Engine
	records *store.MemoryStorage
	dir     *fakeDirectory
	clock   *testClock
}

// newEngineFixture starts the clock on Monday 16/06/2025 09:00 BRT with
// doctor D1 and patients P1 and P2 registered.
func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	f := &engineFixture{
		records: store.NewMemoryStorage(),
		dir:     newFakeDirectory(),
		clock:   &testClock{now: time.Date(2025, 6, 16, 9, 0, 0, 0, brt)},
	}
	f.dir.doctors["D1"] = identity.Doctor{ID: "D1", Name: "Paulo Mendes", Specialty: "Cardiologia", Email: "paulo@sus.gov.br", CRM: "12345"}
	f.dir.doctors["D2"] = identity.Doctor{ID: "D2", Name: "Lucia Ramos", Specialty: "Pediatria", Email: "lucia@sus.gov.br", CRM: "54321"}
	f.dir.patients["P1"] = identity.Patient{ID: "P1", Email: "maria@example.com", CPF: "52998224725", Phone: "(11) 98888-7777"}
	f.dir.patients["P2"] = identity.Patient{ID: "P2", Email: "joao@example.com", CPF: "11144477735", Phone: "(21) 97777-6666"}

	f.engine = NewEngine(f.records, store.NewMutexLocker(), f.dir, f.dir, Options{
		Now:      f.clock.Now,
		Location: brt,
		Logger:   zerolog.Nop(),
	})
	return f
}

func (f *engineFixture) publish(t *testing.T, doctorID, date, start, end string) (string, error) {
	t.Helper()
	return f.engine.PublishSlot(context.Background(), SlotInput{
		DoctorID:  doctorID,
		StartTime: start,
		EndTime:   end,
		Date:      date,
	})
}
