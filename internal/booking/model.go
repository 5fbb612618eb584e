package booking

import (
	"context"
	"time"

	"github.com/hackgods/sus-scheduling/internal/identity"
)

type SlotStatus string

const (
	StatusScheduled SlotStatus = "scheduled"
	StatusCompleted SlotStatus = "completed"
	StatusCancelled SlotStatus = "cancelled"
)

func (s SlotStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Slot is a doctor-published time window stored under store.KeyDoctorSlots.
// Date is DD/MM/YYYY and the times are HH:mm in the service timezone. The
// patient fields are set together while the slot is claimed.
type Slot struct {
	ID           string     `json:"id"`
	DoctorID     string     `json:"doctorId"`
	PatientName  string     `json:"patientName,omitempty"`
	PatientCPF   string     `json:"patientCpf,omitempty"`
	PatientPhone string     `json:"patientPhone,omitempty"`
	Specialty    string     `json:"specialty"`
	StartTime    string     `json:"startTime"`
	EndTime      string     `json:"endTime"`
	Date         string     `json:"date"`
	Status       SlotStatus `json:"status"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

func (s Slot) Claimed() bool { return s.PatientName != "" }

// Open reports whether a patient may claim the slot.
func (s Slot) Open() bool { return s.Status == StatusScheduled && !s.Claimed() }

type SlotInput struct {
	DoctorID    string
	Specialty   string
	StartTime   string
	EndTime     string
	Date        string
	PatientName string
	Notes       string
}

// LegacyBooking is a booking made directly against the static catalog, stored
// under store.KeyLegacyBookings. Time holds the catalog range "HH:mm - HH:mm".
type LegacyBooking struct {
	ID         string    `json:"id"`
	PatientID  string    `json:"patientId"`
	DoctorName string    `json:"doctorName"`
	Specialty  string    `json:"specialty"`
	Day        string    `json:"day"`
	Time       string    `json:"time"`
	Date       string    `json:"date"`
	BookedAt   time.Time `json:"bookedAt"`
}

type LegacyInput struct {
	PatientID  string
	Specialty  string
	DoctorName string
	Day        string
	Time       string
	Date       string
}

type Source string

const (
	SourceLegacy Source = "legacy"
	SourceSlot   Source = "slot"
)

// UnifiedAppointment is the patient-facing shape both booking paths are
// converted into.
type UnifiedAppointment struct {
	ID         string     `json:"id"`
	Source     Source     `json:"source"`
	DoctorName string     `json:"doctorName"`
	Specialty  string     `json:"specialty"`
	Day        string     `json:"day"`
	Time       string     `json:"time"`
	Date       string     `json:"date"`
	Status     SlotStatus `json:"status,omitempty"`
	BookedAt   time.Time  `json:"bookedAt"`
}

type StatusSummary struct {
	Total     int `json:"total"`
	Scheduled int `json:"scheduled"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Claimed   int `json:"claimed"`
}

// PatientDirectory resolves patient profiles. identity.Manager implements it.
type PatientDirectory interface {
	PatientByID(ctx context.Context, id string) (*identity.Patient, error)
}

// DoctorDirectory resolves doctor profiles. identity.Manager implements it.
type DoctorDirectory interface {
	DoctorByID(ctx context.Context, id string) (*identity.Doctor, error)
}
