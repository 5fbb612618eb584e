package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/sus-scheduling/internal/apperr"
	"github.com/hackgods/sus-scheduling/internal/identity"
	"github.com/hackgods/sus-scheduling/internal/store"
)

const (
	EventSlotPublished     = "SLOT_PUBLISHED"
	EventSlotStatusChanged = "SLOT_STATUS_CHANGED"
	EventSlotClaimed       = "SLOT_CLAIMED"
	EventSlotReleased      = "SLOT_RELEASED"
	EventSlotDeleted       = "SLOT_DELETED"
	EventLegacyBooked      = "LEGACY_BOOKED"
	EventLegacyCancelled   = "LEGACY_CANCELLED"
)

var (
	ErrMissingField            = fmt.Errorf("%w: start time, end time and date are required", apperr.ErrValidation)
	ErrInvalidTimeRange        = fmt.Errorf("%w: end time must be after start time", apperr.ErrValidation)
	ErrSlotInPast              = fmt.Errorf("%w: slot starts at or before the current time", apperr.ErrValidation)
	ErrUnknownStatus           = fmt.Errorf("%w: unknown slot status", apperr.ErrValidation)
	ErrSlotConflict            = fmt.Errorf("%w: slot overlaps an existing slot", apperr.ErrConflict)
	ErrAlreadyBooked           = fmt.Errorf("%w: booking already exists", apperr.ErrConflict)
	ErrInvalidStatusTransition = fmt.Errorf("%w: invalid status transition", apperr.ErrState)
	ErrSlotNotOpen             = fmt.Errorf("%w: slot is not open", apperr.ErrState)
	ErrSlotNotClaimed          = fmt.Errorf("%w: slot is not claimed", apperr.ErrState)
	ErrSlotNotOwned            = fmt.Errorf("%w: slot is not bound to this patient", apperr.ErrState)
	ErrSlotNotFound            = fmt.Errorf("%w: slot", apperr.ErrNotFound)
	ErrBookingNotFound         = fmt.Errorf("%w: booking", apperr.ErrNotFound)
	ErrNotInCatalog            = fmt.Errorf("%w: no such catalog period", apperr.ErrNotFound)
)

// unknownDoctor names a slot whose publishing doctor no longer resolves.
const unknownDoctor = "Médico"

type Options struct {
	Now      func() time.Time
	Location *time.Location
	Logger   zerolog.Logger
}

// Engine owns doctor slots and legacy bookings. Every mutation is a
// read-modify-write of one whole collection under the collection's lock.
type Engine struct {
	slots    store.Collection[Slot]
	legacy   store.Collection[LegacyBooking]
	locker   store.Locker
	patients PatientDirectory
	doctors  DoctorDirectory
	now      func() time.Time
	loc      *time.Location
	log      zerolog.Logger
}

func NewEngine(records store.Storage, locker store.Locker, patients PatientDirectory, doctors DoctorDirectory, opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Engine{
		slots:    store.NewCollection[Slot](records, store.KeyDoctorSlots),
		legacy:   store.NewCollection[LegacyBooking](records, store.KeyLegacyBookings),
		locker:   locker,
		patients: patients,
		doctors:  doctors,
		now:      opts.Now,
		loc:      opts.Location,
		log:      opts.Logger.With().Str("component", "booking").Logger(),
	}
}

// Now is the engine clock in the service timezone.
func (e *Engine) Now() time.Time { return e.now().In(e.loc) }

// -- Slots --

// PublishSlot validates and appends a new scheduled slot for a doctor. When
// in.Specialty is empty the doctor's registered specialty is used.
func (e *Engine) PublishSlot(ctx context.Context, in SlotInput) (string, error) {
	if strings.TrimSpace(in.StartTime) == "" || strings.TrimSpace(in.EndTime) == "" || strings.TrimSpace(in.Date) == "" {
		return "", ErrMissingField
	}
	start, end, day, err := e.parseWindow(in.Date, in.StartTime, in.EndTime)
	if err != nil {
		return "", err
	}
	if !at(day, start).After(e.Now()) {
		return "", ErrSlotInPast
	}

	doctor, err := e.doctors.DoctorByID(ctx, in.DoctorID)
	if err != nil {
		return "", err
	}
	specialty := in.Specialty
	if specialty == "" {
		specialty = doctor.Specialty
	}

	slot := MigrateSlot(Slot{
		ID:          uuid.NewString(),
		DoctorID:    doctor.ID,
		PatientName: in.PatientName,
		Specialty:   specialty,
		StartTime:   strings.TrimSpace(in.StartTime),
		EndTime:     strings.TrimSpace(in.EndTime),
		Date:        strings.TrimSpace(in.Date),
		Status:      StatusScheduled,
		Notes:       in.Notes,
		CreatedAt:   e.now(),
	})

	err = e.mutateSlots(ctx, func(list []Slot) ([]Slot, error) {
		if conflicts(list, slot.DoctorID, slot.Date, start, end) {
			return nil, ErrSlotConflict
		}
		return append(list, slot), nil
	})
	if err != nil {
		return "", err
	}

	e.log.Info().
		Str("event", EventSlotPublished).
		Str("slot_id", slot.ID).
		Str("doctor_id", slot.DoctorID).
		Str("date", slot.Date).
		Str("start", slot.StartTime).
		Str("end", slot.EndTime).
		Msg("slot published")
	return slot.ID, nil
}

// HasConflict reports whether [start, end) on date overlaps a non-cancelled
// slot of the doctor. Touching endpoints do not overlap.
func (e *Engine) HasConflict(ctx context.Context, doctorID, date, start, end string) (bool, error) {
	s, en, _, err := e.parseWindow(date, start, end)
	if err != nil {
		return false, err
	}
	list, err := e.loadSlots(ctx)
	if err != nil {
		return false, err
	}
	return conflicts(list, doctorID, strings.TrimSpace(date), s, en), nil
}

func conflicts(list []Slot, doctorID, date string, start, end int) bool {
	for _, s := range list {
		if s.DoctorID != doctorID || s.Date != date || s.Status == StatusCancelled {
			continue
		}
		es, err := ParseClock(s.StartTime)
		if err != nil {
			continue
		}
		ee, err := ParseClock(s.EndTime)
		if err != nil {
			continue
		}
		if es < end && ee > start {
			return true
		}
	}
	return false
}

// SetStatus moves a scheduled slot to completed or cancelled. A non-nil notes
// replaces the slot notes in the same write.
func (e *Engine) SetStatus(ctx context.Context, slotID string, status SlotStatus, notes *string) (*Slot, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	var updated Slot
	var from SlotStatus
	err := e.mutateSlots(ctx, func(list []Slot) ([]Slot, error) {
		i := indexSlot(list, slotID)
		if i < 0 {
			return nil, ErrSlotNotFound
		}
		from = list[i].Status
		if from != StatusScheduled || status == StatusScheduled {
			return nil, fmt.Errorf("%w: %s to %s", ErrInvalidStatusTransition, from, status)
		}
		list[i].Status = status
		if notes != nil {
			list[i].Notes = *notes
		}
		updated = list[i]
		return list, nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("event", EventSlotStatusChanged).
		Str("slot_id", slotID).
		Str("from", string(from)).
		Str("to", string(status)).
		Msg("slot status changed")
	return &updated, nil
}

// Claim binds an open slot to a patient. The bound name is the patient's
// email local-part.
func (e *Engine) Claim(ctx context.Context, slotID, patientID string) (*Slot, error) {
	patient, err := e.patients.PatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	var updated Slot
	err = e.mutateSlots(ctx, func(list []Slot) ([]Slot, error) {
		i := indexSlot(list, slotID)
		if i < 0 {
			return nil, ErrSlotNotFound
		}
		if !list[i].Open() {
			return nil, ErrSlotNotOpen
		}
		list[i].PatientName = identity.LocalPart(patient.Email)
		list[i].PatientCPF = identity.Digits(patient.CPF)
		list[i].PatientPhone = strings.TrimSpace(patient.Phone)
		updated = list[i]
		return list, nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().
		Str("event", EventSlotClaimed).
		Str("slot_id", slotID).
		Str("patient_id", patientID).
		Msg("slot claimed")
	return &updated, nil
}

// Release unbinds the patient from a claimed slot that is still scheduled.
// The status is unchanged. Completed and cancelled slots keep their patient.
func (e *Engine) Release(ctx context.Context, slotID string) (*Slot, error) {
	var updated Slot
	err := e.mutateSlots(ctx, func(list []Slot) ([]Slot, error) {
		i := indexSlot(list, slotID)
		if i < 0 {
			return nil, ErrSlotNotFound
		}
		if !list[i].Claimed() {
			return nil, ErrSlotNotClaimed
		}
		if list[i].Status != StatusScheduled {
			return nil, ErrSlotNotOpen
		}
		unbind(&list[i])
		updated = list[i]
		return list, nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info().Str("event", EventSlotReleased).Str("slot_id", slotID).Msg("slot released")
	return &updated, nil
}

// DeleteSlot removes the slot whether or not it is claimed.
func (e *Engine) DeleteSlot(ctx context.Context, slotID string) error {
	err := e.mutateSlots(ctx, func(list []Slot) ([]Slot, error) {
		i := indexSlot(list, slotID)
		if i < 0 {
			return nil, ErrSlotNotFound
		}
		return append(list[:i], list[i+1:]...), nil
	})
	if err != nil {
		return err
	}

	e.log.Info().Str("event", EventSlotDeleted).Str("slot_id", slotID).Msg("slot deleted")
	return nil
}

func (e *Engine) GetSlot(ctx context.Context, slotID string) (*Slot, error) {
	list, err := e.loadSlots(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexSlot(list, slotID); i >= 0 {
		return &list[i], nil
	}
	return nil, ErrSlotNotFound
}

// SlotsForDoctor lists a doctor's slots in publication order.
func (e *Engine) SlotsForDoctor(ctx context.Context, doctorID string) ([]Slot, error) {
	list, err := e.loadSlots(ctx)
	if err != nil {
		return nil, err
	}
	out := []Slot{}
	for _, s := range list {
		if s.DoctorID == doctorID {
			out = append(out, s)
		}
	}
	return out, nil
}

// OpenSlots lists claimable slots that have not started yet, optionally
// limited to one specialty (case-insensitive).
func (e *Engine) OpenSlots(ctx context.Context, specialty string) ([]Slot, error) {
	list, err := e.loadSlots(ctx)
	if err != nil {
		return nil, err
	}
	now := e.Now()
	out := []Slot{}
	for _, s := range list {
		if !s.Open() {
			continue
		}
		if specialty != "" && !strings.EqualFold(s.Specialty, specialty) {
			continue
		}
		start, err := ParseClock(s.StartTime)
		if err != nil {
			continue
		}
		day, err := ParseDate(s.Date, e.loc)
		if err != nil || !at(day, start).After(now) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// -- Legacy bookings --

// BookLegacy records a booking against the static catalog.
func (e *Engine) BookLegacy(ctx context.Context, in LegacyInput) (string, error) {
	if in.Specialty == "" || in.DoctorName == "" || in.Day == "" || in.Time == "" || in.Date == "" {
		return "", apperr.Validation("specialty, doctor, day, time and date are required")
	}
	if _, err := e.patients.PatientByID(ctx, in.PatientID); err != nil {
		return "", err
	}
	specialty, ok := catalogMatch(in.Specialty, in.DoctorName, in.Day, in.Time, in.Date)
	if !ok {
		return "", ErrNotInCatalog
	}

	b := LegacyBooking{
		ID:         uuid.NewString(),
		PatientID:  in.PatientID,
		DoctorName: in.DoctorName,
		Specialty:  specialty,
		Day:        in.Day,
		Time:       in.Time,
		Date:       in.Date,
		BookedAt:   e.now(),
	}

	err := mutate(ctx, e, e.legacy, func(list []LegacyBooking) ([]LegacyBooking, error) {
		for _, x := range list {
			if x.PatientID == b.PatientID && x.DoctorName == b.DoctorName && x.Date == b.Date && x.Time == b.Time {
				return nil, ErrAlreadyBooked
			}
		}
		return append(list, b), nil
	})
	if err != nil {
		return "", err
	}

	e.log.Info().
		Str("event", EventLegacyBooked).
		Str("booking_id", b.ID).
		Str("patient_id", b.PatientID).
		Msg("legacy booking created")
	return b.ID, nil
}

func (e *Engine) LegacyBookings(ctx context.Context) ([]LegacyBooking, error) {
	list, err := e.legacy.Load(ctx)
	if err != nil {
		return nil, e.infra("load legacy bookings", err)
	}
	return list, nil
}

// -- Patient view --

// AppointmentsFor merges the patient's legacy bookings with the slots bound
// to them, legacy rows first, and drops later duplicates of the same doctor,
// date and time range.
func (e *Engine) AppointmentsFor(ctx context.Context, patientID string) ([]UnifiedAppointment, error) {
	patient, err := e.patients.PatientByID(ctx, patientID)
	if err != nil {
		return nil, err
	}

	legacy, err := e.LegacyBookings(ctx)
	if err != nil {
		return nil, err
	}
	slots, err := e.loadSlots(ctx)
	if err != nil {
		return nil, err
	}

	merged := make([]UnifiedAppointment, 0, len(legacy))
	for _, b := range legacy {
		if b.PatientID == patientID {
			merged = append(merged, LegacyToAppointment(b))
		}
	}

	names := map[string]string{}
	for _, s := range slots {
		if !SlotBelongsTo(s, *patient) {
			continue
		}
		name, ok := names[s.DoctorID]
		if !ok {
			name, err = e.doctorName(ctx, s.DoctorID)
			if err != nil {
				return nil, err
			}
			names[s.DoctorID] = name
		}
		merged = append(merged, SlotToAppointment(s, name, e.loc))
	}

	return Dedupe(merged), nil
}

// CancelForPatient cancels one entry of the patient's unified view. Legacy
// bookings are deleted; claimed slots are released back to open while they
// are still scheduled.
func (e *Engine) CancelForPatient(ctx context.Context, patientID string, source Source, id string) error {
	switch source {
	case SourceLegacy:
		err := mutate(ctx, e, e.legacy, func(list []LegacyBooking) ([]LegacyBooking, error) {
			for i, b := range list {
				if b.ID == id && b.PatientID == patientID {
					return append(list[:i], list[i+1:]...), nil
				}
			}
			return nil, ErrBookingNotFound
		})
		if err != nil {
			return err
		}
		e.log.Info().
			Str("event", EventLegacyCancelled).
			Str("booking_id", id).
			Str("patient_id", patientID).
			Msg("legacy booking cancelled")
		return nil

	case SourceSlot:
		patient, err := e.patients.PatientByID(ctx, patientID)
		if err != nil {
			return err
		}
		err = e.mutateSlots(ctx, func(list []Slot) ([]Slot, error) {
			i := indexSlot(list, id)
			if i < 0 {
				return nil, ErrSlotNotFound
			}
			if !SlotBelongsTo(list[i], *patient) {
				return nil, ErrSlotNotOwned
			}
			if list[i].Status != StatusScheduled {
				return nil, ErrSlotNotOpen
			}
			unbind(&list[i])
			return list, nil
		})
		if err != nil {
			return err
		}
		e.log.Info().
			Str("event", EventSlotReleased).
			Str("slot_id", id).
			Str("patient_id", patientID).
			Msg("slot released by patient")
		return nil
	}

	return apperr.Validation("unknown appointment source %q", source)
}

// -- helpers --

func (e *Engine) parseWindow(date, startTime, endTime string) (start, end int, day time.Time, err error) {
	if start, err = ParseClock(startTime); err != nil {
		return 0, 0, time.Time{}, apperr.Validation("%v", err)
	}
	if end, err = ParseClock(endTime); err != nil {
		return 0, 0, time.Time{}, apperr.Validation("%v", err)
	}
	if day, err = ParseDate(date, e.loc); err != nil {
		return 0, 0, time.Time{}, apperr.Validation("%v", err)
	}
	if end <= start {
		return 0, 0, time.Time{}, ErrInvalidTimeRange
	}
	return start, end, day, nil
}

func (e *Engine) loadSlots(ctx context.Context) ([]Slot, error) {
	list, err := e.slots.Load(ctx)
	if err != nil {
		return nil, e.infra("load slots", err)
	}
	return migrateSlots(list), nil
}

func (e *Engine) doctorName(ctx context.Context, doctorID string) (string, error) {
	d, err := e.doctors.DoctorByID(ctx, doctorID)
	if errors.Is(err, apperr.ErrNotFound) {
		return unknownDoctor, nil
	}
	if err != nil {
		return "", err
	}
	return d.Name, nil
}

func (e *Engine) infra(op string, err error) error {
	e.log.Error().Err(err).Str("op", op).Msg("storage failure")
	return apperr.Infrastructure(op, err)
}

// mutate runs fn over the current contents of c under the collection lock and
// saves what it returns. Nothing is written when fn fails.
func mutate[T any](ctx context.Context, e *Engine, c store.Collection[T], fn func([]T) ([]T, error)) error {
	err := e.locker.WithLock(ctx, c.Key(), func(ctx context.Context) error {
		list, err := c.Load(ctx)
		if err != nil {
			return e.infra("load "+c.Key(), err)
		}
		next, err := fn(list)
		if err != nil {
			return err
		}
		if err := c.Save(ctx, next); err != nil {
			return e.infra("save "+c.Key(), err)
		}
		return nil
	})
	return apperr.Classify("lock "+c.Key(), err)
}

// mutateSlots is mutate over the slot collection with stored records
// normalised before fn sees them.
func (e *Engine) mutateSlots(ctx context.Context, fn func([]Slot) ([]Slot, error)) error {
	return mutate(ctx, e, e.slots, func(list []Slot) ([]Slot, error) {
		return fn(migrateSlots(list))
	})
}

func indexSlot(list []Slot, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func unbind(s *Slot) {
	s.PatientName = ""
	s.PatientCPF = ""
	s.PatientPhone = ""
}
