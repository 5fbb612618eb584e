package api

import (
	"time"

	"github.com/hackgods/sus-scheduling/internal/booking"
	"github.com/hackgods/sus-scheduling/internal/identity"
)

type RegisterPatientRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	CPF      string `json:"cpf"`
	Phone    string `json:"phone"`
}

type RegisterDoctorRequest struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	CRM       string `json:"crm"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
}

// LoginRequest.Identifier is an email, or a cpf (patients) or crm (doctors)
// with or without punctuation.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
	Remember   bool   `json:"remember"`
}

type PatientResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CPF       string    `json:"cpf"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

type DoctorResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CRM       string    `json:"crm"`
	Specialty string    `json:"specialty"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

type PrincipalResponse struct {
	Kind    identity.Kind    `json:"kind"`
	Patient *PatientResponse `json:"patient,omitempty"`
	Doctor  *DoctorResponse  `json:"doctor,omitempty"`
}

type CredentialsResponse struct {
	Saved          *identity.SavedCredentials `json:"saved"`
	SessionExpired bool                       `json:"sessionExpired"`
}

type PublishSlotRequest struct {
	PatientName string `json:"patientName"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Date        string `json:"date"`
	Notes       string `json:"notes"`
}

type SetStatusRequest struct {
	Status booking.SlotStatus `json:"status"`
	Notes  *string            `json:"notes"`
}

type BookLegacyRequest struct {
	Specialty  string `json:"specialty"`
	DoctorName string `json:"doctorName"`
	Day        string `json:"day"`
	Time       string `json:"time"`
	Date       string `json:"date"`
}

type IDResponse struct {
	ID string `json:"id"`
}

type AppointmentsResponse struct {
	Future []booking.UnifiedAppointment `json:"future"`
	Past   []booking.UnifiedAppointment `json:"past"`
}

type DoctorSlotsResponse struct {
	Slots   []booking.Slot        `json:"slots"`
	Summary booking.StatusSummary `json:"summary"`
}

type TimeOptionsResponse struct {
	Date    string   `json:"date"`
	Options []string `json:"options"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toPatientResponse(p identity.Patient) PatientResponse {
	return PatientResponse{
		ID:        p.ID,
		Email:     p.Email,
		CPF:       p.CPF,
		Phone:     p.Phone,
		CreatedAt: p.CreatedAt,
	}
}

func toDoctorResponse(d identity.Doctor) DoctorResponse {
	return DoctorResponse{
		ID:        d.ID,
		Email:     d.Email,
		Name:      d.Name,
		CRM:       d.CRM,
		Specialty: d.Specialty,
		Phone:     d.Phone,
		CreatedAt: d.CreatedAt,
	}
}

func toPrincipalResponse(p *identity.Principal) PrincipalResponse {
	resp := PrincipalResponse{Kind: p.Kind}
	if p.Patient != nil {
		pr := toPatientResponse(*p.Patient)
		resp.Patient = &pr
	}
	if p.Doctor != nil {
		dr := toDoctorResponse(*p.Doctor)
		resp.Doctor = &dr
	}
	return resp
}
