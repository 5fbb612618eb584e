package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hackgods/sus-scheduling/internal/booking"
	"github.com/hackgods/sus-scheduling/internal/identity"
)

func catalogHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, booking.Catalog())
	}
}

func catalogSpecialtyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specialty, ok := booking.CatalogBySlug(chi.URLParam(r, "slug"))
		if !ok {
			writeError(w, http.StatusNotFound, "specialty_not_found", "no catalog entry for this specialty")
			return
		}
		writeJSON(w, http.StatusOK, specialty)
	}
}

func openSlotsHandler(e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := e.OpenSlots(r.Context(), r.URL.Query().Get("specialty"))
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, slots)
	}
}

func claimSlotHandler(m *identity.Manager, e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patient, ok := currentPatient(m, w, r)
		if !ok {
			return
		}

		slot, err := e.Claim(r.Context(), chi.URLParam(r, "id"), patient.ID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, slot)
	}
}

func bookLegacyHandler(m *identity.Manager, e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patient, ok := currentPatient(m, w, r)
		if !ok {
			return
		}

		var req BookLegacyRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		id, err := e.BookLegacy(r.Context(), booking.LegacyInput{
			PatientID:  patient.ID,
			Specialty:  req.Specialty,
			DoctorName: req.DoctorName,
			Day:        req.Day,
			Time:       req.Time,
			Date:       req.Date,
		})
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, IDResponse{ID: id})
	}
}

func myAppointmentsHandler(m *identity.Manager, e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patient, ok := currentPatient(m, w, r)
		if !ok {
			return
		}

		appts, err := e.AppointmentsFor(r.Context(), patient.ID)
		if err != nil {
			handleError(w, err)
			return
		}

		future, past := booking.SplitFutureVsPast(appts, e.Now())
		writeJSON(w, http.StatusOK, AppointmentsResponse{Future: future, Past: past})
	}
}

func cancelMyAppointmentHandler(m *identity.Manager, e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patient, ok := currentPatient(m, w, r)
		if !ok {
			return
		}

		source := booking.Source(chi.URLParam(r, "source"))
		if err := e.CancelForPatient(r.Context(), patient.ID, source, chi.URLParam(r, "id")); err != nil {
			handleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func doctorSlotsHandler(m *identity.Manager, e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctor, ok := currentDoctor(m, w, r)
		if !ok {
			return
		}

		slots, err := e.SlotsForDoctor(r.Context(), doctor.ID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, DoctorSlotsResponse{
			Slots:   slots,
			Summary: booking.SummarizeByStatus(slots),
		})
	}
}

func publishSlotHandler(m *identity.Manager, e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctor, ok := currentDoctor(m, w, r)
		if !ok {
			return
		}

		var req PublishSlotRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		id, err := e.PublishSlot(r.Context(), booking.SlotInput{
			DoctorID:    doctor.ID,
			Specialty:   doctor.Specialty,
			StartTime:   req.StartTime,
			EndTime:     req.EndTime,
			Date:        req.Date,
			PatientName: req.PatientName,
			Notes:       req.Notes,
		})
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, IDResponse{ID: id})
	}
}

func timeOptionsHandler(m *identity.Manager, e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentDoctor(m, w, r); !ok {
			return
		}

		date := r.URL.Query().Get("date")
		writeJSON(w, http.StatusOK, TimeOptionsResponse{
			Date:    date,
			Options: booking.TimeOptions(date, e.Now()),
		})
	}
}

func setSlotStatusHandler(m *identity.Manager, e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID, ok := ownedSlotID(m, e, w, r)
		if !ok {
			return
		}

		var req SetStatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		slot, err := e.SetStatus(r.Context(), slotID, req.Status, req.Notes)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, slot)
	}
}

func releaseSlotHandler(m *identity.Manager, e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID, ok := ownedSlotID(m, e, w, r)
		if !ok {
			return
		}

		slot, err := e.Release(r.Context(), slotID)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, slot)
	}
}

func deleteSlotHandler(m *identity.Manager, e *booking.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID, ok := ownedSlotID(m, e, w, r)
		if !ok {
			return
		}

		if err := e.DeleteSlot(r.Context(), slotID); err != nil {
			handleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ownedSlotID resolves the {id} URL param to a slot published by the
// logged-in doctor. Another doctor's slot is reported as not found.
func ownedSlotID(m *identity.Manager, e *booking.Engine, w http.ResponseWriter, r *http.Request) (string, bool) {
	doctor, ok := currentDoctor(m, w, r)
	if !ok {
		return "", false
	}

	slot, err := e.GetSlot(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, err)
		return "", false
	}
	if slot.DoctorID != doctor.ID {
		handleError(w, booking.ErrSlotNotFound)
		return "", false
	}
	return slot.ID, true
}
