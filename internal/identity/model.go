package identity

import (
	"time"
)

// Kind names one of the two independent principal populations. Patients and
// doctors never share a collection, a uniqueness scope or a session slot.
type Kind string

const (
	KindPatient Kind = "patient"
	KindDoctor  Kind = "doctor"
)

func (k Kind) Valid() bool {
	return k == KindPatient || k == KindDoctor
}

// Patient is stored under store.KeyPatients. CPF holds the 11-digit national
// id, digits only.
type Patient struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	CPF       string    `json:"cpf"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

// Doctor is stored under store.KeyDoctors. CRM holds the 4-6 digit license
// number, digits only.
type Doctor struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Name      string    `json:"name"`
	CRM       string    `json:"crm"`
	Specialty string    `json:"specialty"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"createdAt"`
}

type Session struct {
	PrincipalID string    `json:"principalId"`
	ExpiresAt   time.Time `json:"expiresAt"`
	Remember    bool      `json:"remember"`
}

// SavedCredentials only prefill the login form; they never open a session.
type SavedCredentials struct {
	EmailOrCPF string    `json:"emailOrCpf"`
	Password   string    `json:"password"`
	LastUsed   time.Time `json:"lastUsed"`
}

// Principal is an authenticated patient or doctor. Exactly one of Patient and
// Doctor is set, matching Kind.
type Principal struct {
	Kind    Kind
	Patient *Patient
	Doctor  *Doctor
}

func (p Principal) ID() string {
	switch {
	case p.Patient != nil:
		return p.Patient.ID
	case p.Doctor != nil:
		return p.Doctor.ID
	}
	return ""
}

type PatientInput struct {
	Email    string
	Password string
	CPF      string
	Phone    string
}

type DoctorInput struct {
	Name      string
	Email     string
	Password  string
	CRM       string
	Specialty string
	Phone     string
}

// Specialties a doctor may register under.
var Specialties = []string{
	"Ginecologia",
	"Pediatria",
	"Clínica Geral",
	"Cardiologia",
	"Dermatologia",
	"Ortopedia",
	"Neurologia",
	"Psiquiatria",
	"Oftalmologia",
	"Otorrinolaringologia",
}

func IsSpecialty(name string) bool {
	for _, s := range Specialties {
		if s == name {
			return true
		}
	}
	return false
}
