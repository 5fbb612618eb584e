package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/sus-scheduling/internal/apperr"
	"github.com/hackgods/sus-scheduling/internal/store"
)

var (
	ErrPatientExists   = fmt.Errorf("%w: email or cpf already registered", apperr.ErrConflict)
	ErrDoctorExists    = fmt.Errorf("%w: email or crm already registered", apperr.ErrConflict)
	ErrPatientNotFound = fmt.Errorf("%w: patient", apperr.ErrNotFound)
	ErrDoctorNotFound  = fmt.Errorf("%w: doctor", apperr.ErrNotFound)

	// ErrInvalidCredentials deliberately covers both an unknown identifier and
	// a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoSession          = errors.New("no active session")
)

const DefaultSessionTTL = 7 * 24 * time.Hour

type Options struct {
	SessionTTL time.Duration
	Now        func() time.Time
	Logger     zerolog.Logger
}

// Manager registers and authenticates patients and doctors and keeps their
// sessions. Record collections are global; session tiers belong to one client
// device (see ForDevice).
type Manager struct {
	patients store.Collection[Patient]
	doctors  store.Collection[Doctor]
	locker   store.Locker

	ephemeralBase store.Storage
	durableBase   store.Storage
	ephemeral     store.Storage
	durable       store.Storage

	sessionTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger
}

// NewManager wires the manager to its ports. ephemeral holds sessions that end
// with the process; durable holds remembered sessions and saved credentials.
func NewManager(records, ephemeral, durable store.Storage, locker store.Locker, opts Options) *Manager {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		patients:      store.NewCollection[Patient](records, store.KeyPatients),
		doctors:       store.NewCollection[Doctor](records, store.KeyDoctors),
		locker:        locker,
		ephemeralBase: ephemeral,
		durableBase:   durable,
		ephemeral:     ephemeral,
		durable:       durable,
		sessionTTL:    opts.SessionTTL,
		now:           opts.Now,
		log:           opts.Logger.With().Str("component", "identity").Logger(),
	}
}

// ForDevice returns a manager whose session tiers are scoped to deviceID.
func (m *Manager) ForDevice(deviceID string) *Manager {
	scoped := *m
	prefix := ""
	if deviceID != "" {
		prefix = "device:" + deviceID + ":"
	}
	scoped.ephemeral = store.WithPrefix(m.ephemeralBase, prefix)
	scoped.durable = store.WithPrefix(m.durableBase, prefix)
	scoped.log = m.log.With().Str("device_id", deviceID).Logger()
	return &scoped
}

// -- Registration --

func (m *Manager) RegisterPatient(ctx context.Context, in PatientInput) (string, error) {
	if err := validatePatient(in); err != nil {
		return "", err
	}

	p := Patient{
		ID:        uuid.NewString(),
		Email:     strings.TrimSpace(in.Email),
		Password:  in.Password,
		CPF:       Digits(in.CPF),
		Phone:     in.Phone,
		CreatedAt: m.now(),
	}

	err := m.locker.WithLock(ctx, m.patients.Key(), func(ctx context.Context) error {
		list, err := m.patients.Load(ctx)
		if err != nil {
			return m.infra("load patients", err)
		}
		if patientExists(list, p.Email, p.CPF) {
			return ErrPatientExists
		}
		if err := m.patients.Save(ctx, append(list, p)); err != nil {
			return m.infra("save patients", err)
		}
		return nil
	})
	if err != nil {
		return "", apperr.Classify("register", err)
	}

	m.log.Info().Str("event", "PATIENT_REGISTERED").Str("patient_id", p.ID).Msg("patient registered")
	return p.ID, nil
}

func (m *Manager) RegisterDoctor(ctx context.Context, in DoctorInput) (string, error) {
	if err := validateDoctor(in); err != nil {
		return "", err
	}

	d := Doctor{
		ID:        uuid.NewString(),
		Email:     strings.ToLower(strings.TrimSpace(in.Email)),
		Password:  in.Password,
		Name:      strings.TrimSpace(in.Name),
		CRM:       Digits(in.CRM),
		Specialty: in.Specialty,
		Phone:     in.Phone,
		CreatedAt: m.now(),
	}

	err := m.locker.WithLock(ctx, m.doctors.Key(), func(ctx context.Context) error {
		list, err := m.doctors.Load(ctx)
		if err != nil {
			return m.infra("load doctors", err)
		}
		if doctorExists(list, d.Email, d.CRM) {
			return ErrDoctorExists
		}
		if err := m.doctors.Save(ctx, append(list, d)); err != nil {
			return m.infra("save doctors", err)
		}
		return nil
	})
	if err != nil {
		return "", apperr.Classify("register", err)
	}

	m.log.Info().Str("event", "DOCTOR_REGISTERED").Str("doctor_id", d.ID).Msg("doctor registered")
	return d.ID, nil
}

func patientExists(list []Patient, email, cpf string) bool {
	for _, p := range list {
		if strings.EqualFold(p.Email, email) || Digits(p.CPF) == Digits(cpf) {
			return true
		}
	}
	return false
}

func doctorExists(list []Doctor, email, crm string) bool {
	for _, d := range list {
		if strings.EqualFold(d.Email, email) || Digits(d.CRM) == Digits(crm) {
			return true
		}
	}
	return false
}

// -- Authentication & sessions --

// Authenticate matches identifier against the email or the digits-only
// secondary id (cpf or crm) and compares the password verbatim.
func (m *Manager) Authenticate(ctx context.Context, kind Kind, identifier, password string, remember bool) (*Principal, error) {
	principal, err := m.findPrincipal(ctx, kind, func(_, email, secondary, pw string) bool {
		emailMatch := strings.EqualFold(email, strings.TrimSpace(identifier))
		idDigits := Digits(identifier)
		idMatch := idDigits != "" && Digits(secondary) == idDigits
		return (emailMatch || idMatch) && pw == password
	})
	if err != nil {
		return nil, err
	}
	if principal == nil {
		m.log.Info().Str("event", "LOGIN_FAILED").Str("kind", string(kind)).Msg("authentication failed")
		return nil, ErrInvalidCredentials
	}

	now := m.now()
	sess := Session{
		PrincipalID: principal.ID(),
		ExpiresAt:   now.Add(m.sessionTTL),
		Remember:    remember,
	}

	target, other := m.ephemeralSession(kind), m.durableSession(kind)
	if remember {
		target, other = other, target
	}
	if err := other.Clear(ctx); err != nil {
		return nil, m.infra("clear session", err)
	}
	if err := target.Save(ctx, sess); err != nil {
		return nil, m.infra("save session", err)
	}

	creds := m.credentials(kind)
	if remember {
		err = creds.Save(ctx, SavedCredentials{EmailOrCPF: identifier, Password: password, LastUsed: now})
	} else {
		err = creds.Clear(ctx)
	}
	if err != nil {
		return nil, m.infra("update saved credentials", err)
	}

	m.log.Info().
		Str("event", "LOGIN").
		Str("kind", string(kind)).
		Str("principal_id", sess.PrincipalID).
		Bool("remember", remember).
		Msg("session started")
	return principal, nil
}

// CurrentPrincipal reads the ephemeral tier first and falls back to the
// durable tier. An expired durable session is deleted and reported as absent.
func (m *Manager) CurrentPrincipal(ctx context.Context, kind Kind) (*Principal, error) {
	eph := m.ephemeralSession(kind)
	sess, err := eph.Load(ctx)
	if err != nil {
		return nil, m.infra("load session", err)
	}
	tier := eph

	if sess == nil {
		dur := m.durableSession(kind)
		sess, err = dur.Load(ctx)
		if err != nil {
			return nil, m.infra("load remembered session", err)
		}
		if sess == nil {
			return nil, ErrNoSession
		}
		if m.now().After(sess.ExpiresAt) {
			if err := dur.Clear(ctx); err != nil {
				return nil, m.infra("clear expired session", err)
			}
			m.log.Info().Str("event", "SESSION_EXPIRED").Str("kind", string(kind)).Msg("remembered session expired")
			return nil, ErrNoSession
		}
		tier = dur
	}

	principal, err := m.findPrincipal(ctx, kind, func(id, _, _, _ string) bool {
		return id == sess.PrincipalID
	})
	if err != nil {
		return nil, err
	}
	if principal == nil {
		// the principal was removed (bulk clear) after the session was issued
		if err := tier.Clear(ctx); err != nil {
			return nil, m.infra("clear orphan session", err)
		}
		return nil, ErrNoSession
	}
	return principal, nil
}

// EndSession clears both tiers unconditionally. Saved credentials stay.
func (m *Manager) EndSession(ctx context.Context, kind Kind) error {
	if err := m.ephemeralSession(kind).Clear(ctx); err != nil {
		return m.infra("clear session", err)
	}
	if err := m.durableSession(kind).Clear(ctx); err != nil {
		return m.infra("clear remembered session", err)
	}
	m.log.Info().Str("event", "LOGOUT").Str("kind", string(kind)).Msg("session ended")
	return nil
}

func (m *Manager) SavedCredentials(ctx context.Context, kind Kind) (*SavedCredentials, error) {
	creds, err := m.credentials(kind).Load(ctx)
	if err != nil {
		return nil, m.infra("load saved credentials", err)
	}
	return creds, nil
}

// SessionExpired reports whether a remembered session exists but is past its
// expiry. It does not delete anything.
func (m *Manager) SessionExpired(ctx context.Context, kind Kind) (bool, error) {
	sess, err := m.durableSession(kind).Load(ctx)
	if err != nil {
		return false, m.infra("load remembered session", err)
	}
	return sess != nil && m.now().After(sess.ExpiresAt), nil
}

// -- Directory --

func (m *Manager) Patients(ctx context.Context) ([]Patient, error) {
	list, err := m.patients.Load(ctx)
	if err != nil {
		return nil, m.infra("load patients", err)
	}
	return list, nil
}

func (m *Manager) Doctors(ctx context.Context) ([]Doctor, error) {
	list, err := m.doctors.Load(ctx)
	if err != nil {
		return nil, m.infra("load doctors", err)
	}
	return list, nil
}

func (m *Manager) PatientByID(ctx context.Context, id string) (*Patient, error) {
	list, err := m.Patients(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, ErrPatientNotFound
}

func (m *Manager) DoctorByID(ctx context.Context, id string) (*Doctor, error) {
	list, err := m.Doctors(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, ErrDoctorNotFound
}

// ClearPatients removes every patient record.
func (m *Manager) ClearPatients(ctx context.Context) error {
	err := m.locker.WithLock(ctx, m.patients.Key(), func(ctx context.Context) error {
		if err := m.patients.Clear(ctx); err != nil {
			return m.infra("clear patients", err)
		}
		return nil
	})
	if err != nil {
		return apperr.Classify("clear patients", err)
	}
	m.log.Warn().Str("event", "PATIENTS_CLEARED").Msg("all patient records removed")
	return nil
}

// -- helpers --

type matchFunc func(id, email, secondary, password string) bool

// findPrincipal returns the first principal of kind accepted by match, or
// nil, nil when none fits.
func (m *Manager) findPrincipal(ctx context.Context, kind Kind, match matchFunc) (*Principal, error) {
	if !kind.Valid() {
		return nil, apperr.Validation("unknown principal kind %q", kind)
	}

	switch kind {
	case KindPatient:
		list, err := m.Patients(ctx)
		if err != nil {
			return nil, err
		}
		for i := range list {
			if match(list[i].ID, list[i].Email, list[i].CPF, list[i].Password) {
				return &Principal{Kind: kind, Patient: &list[i]}, nil
			}
		}
	case KindDoctor:
		list, err := m.Doctors(ctx)
		if err != nil {
			return nil, err
		}
		for i := range list {
			if match(list[i].ID, list[i].Email, list[i].CRM, list[i].Password) {
				return &Principal{Kind: kind, Doctor: &list[i]}, nil
			}
		}
	}
	return nil, nil
}

func (m *Manager) sessionKey(kind Kind, remember bool) string {
	if remember {
		return "sus_remember_session_" + string(kind)
	}
	return "sus_session_" + string(kind)
}

func (m *Manager) ephemeralSession(kind Kind) store.Value[Session] {
	return store.NewValue[Session](m.ephemeral, m.sessionKey(kind, false))
}

func (m *Manager) durableSession(kind Kind) store.Value[Session] {
	return store.NewValue[Session](m.durable, m.sessionKey(kind, true))
}

func (m *Manager) credentials(kind Kind) store.Value[SavedCredentials] {
	return store.NewValue[SavedCredentials](m.durable, "sus_saved_credentials_"+string(kind))
}

func (m *Manager) infra(op string, err error) error {
	m.log.Error().Err(err).Str("op", op).Msg("storage failure")
	return apperr.Infrastructure(op, err)
}
