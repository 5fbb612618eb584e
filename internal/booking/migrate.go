package booking

import (
	"strings"

	"github.com/hackgods/sus-scheduling/internal/identity"
)

// MigrateSlot normalises a slot written by an older client: a missing status
// becomes scheduled, the patient cpf keeps only digits, the phone is trimmed
// and a blank patient name counts as unclaimed.
func MigrateSlot(s Slot) Slot {
	if s.Status == "" {
		s.Status = StatusScheduled
	}
	s.PatientName = strings.TrimSpace(s.PatientName)
	s.PatientCPF = identity.Digits(s.PatientCPF)
	s.PatientPhone = strings.TrimSpace(s.PatientPhone)
	return s
}

func migrateSlots(list []Slot) []Slot {
	for i := range list {
		list[i] = MigrateSlot(list[i])
	}
	return list
}
