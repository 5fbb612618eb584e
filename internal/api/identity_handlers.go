package api

import (
	"net/http"

	"github.com/hackgods/sus-scheduling/internal/identity"
)

// sessions scopes the manager's session tiers to the calling device.
func sessions(m *identity.Manager, r *http.Request) *identity.Manager {
	return m.ForDevice(GetDeviceID(r.Context()))
}

func registerPatientHandler(m *identity.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterPatientRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		id, err := m.RegisterPatient(r.Context(), identity.PatientInput{
			Email:    req.Email,
			Password: req.Password,
			CPF:      req.CPF,
			Phone:    req.Phone,
		})
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, IDResponse{ID: id})
	}
}

func registerDoctorHandler(m *identity.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterDoctorRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		id, err := m.RegisterDoctor(r.Context(), identity.DoctorInput{
			Name:      req.Name,
			Email:     req.Email,
			Password:  req.Password,
			CRM:       req.CRM,
			Specialty: req.Specialty,
			Phone:     req.Phone,
		})
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, IDResponse{ID: id})
	}
}

func listPatientsHandler(m *identity.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := m.Patients(r.Context())
		if err != nil {
			handleError(w, err)
			return
		}

		resp := make([]PatientResponse, 0, len(list))
		for _, p := range list {
			resp = append(resp, toPatientResponse(p))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func clearPatientsHandler(m *identity.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.ClearPatients(r.Context()); err != nil {
			handleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func loginHandler(m *identity.Manager, kind identity.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		p, err := sessions(m, r).Authenticate(r.Context(), kind, req.Identifier, req.Password, req.Remember)
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPrincipalResponse(p))
	}
}

func logoutHandler(m *identity.Manager, kind identity.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sessions(m, r).EndSession(r.Context(), kind); err != nil {
			handleError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func meHandler(m *identity.Manager, kind identity.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := sessions(m, r).CurrentPrincipal(r.Context(), kind)
		if err != nil {
			handleError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPrincipalResponse(p))
	}
}

func credentialsHandler(m *identity.Manager, kind identity.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scoped := sessions(m, r)

		saved, err := scoped.SavedCredentials(r.Context(), kind)
		if err != nil {
			handleError(w, err)
			return
		}
		expired, err := scoped.SessionExpired(r.Context(), kind)
		if err != nil {
			handleError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, CredentialsResponse{Saved: saved, SessionExpired: expired})
	}
}

// currentPatient writes the error response itself when no patient session
// exists.
func currentPatient(m *identity.Manager, w http.ResponseWriter, r *http.Request) (*identity.Patient, bool) {
	p, err := sessions(m, r).CurrentPrincipal(r.Context(), identity.KindPatient)
	if err != nil {
		handleError(w, err)
		return nil, false
	}
	return p.Patient, true
}

func currentDoctor(m *identity.Manager, w http.ResponseWriter, r *http.Request) (*identity.Doctor, bool) {
	p, err := sessions(m, r).CurrentPrincipal(r.Context(), identity.KindDoctor)
	if err != nil {
		handleError(w, err)
		return nil, false
	}
	return p.Doctor, true
}
