package booking

import (
	"time"

	"github.com/hackgods/sus-scheduling/internal/identity"
)

// DoctorDisplayName is how a slot's doctor is shown next to catalog doctors.
func DoctorDisplayName(name, specialty string) string {
	return "Dr(a). " + name + " - " + specialty
}

// SlotToAppointment converts a claimed slot into the patient-facing shape.
// doctorName is the publishing doctor's name. The weekday is derived from the
// slot date; an unparseable date leaves Day empty.
func SlotToAppointment(s Slot, doctorName string, loc *time.Location) UnifiedAppointment {
	day := ""
	if d, err := ParseDate(s.Date, loc); err == nil {
		day = WeekdayName(d.Weekday())
	}
	return UnifiedAppointment{
		ID:         s.ID,
		Source:     SourceSlot,
		DoctorName: DoctorDisplayName(doctorName, s.Specialty),
		Specialty:  s.Specialty,
		Day:        day,
		Time:       TimeRange(s.StartTime, s.EndTime),
		Date:       s.Date,
		Status:     s.Status,
		BookedAt:   s.CreatedAt,
	}
}

func LegacyToAppointment(b LegacyBooking) UnifiedAppointment {
	return UnifiedAppointment{
		ID:         b.ID,
		Source:     SourceLegacy,
		DoctorName: b.DoctorName,
		Specialty:  b.Specialty,
		Day:        b.Day,
		Time:       b.Time,
		Date:       b.Date,
		BookedAt:   b.BookedAt,
	}
}

// SlotBelongsTo is the patient match used for claimed slots: the bound name
// equals the patient's email local-part, or the bound cpf equals the
// patient's cpf.
func SlotBelongsTo(s Slot, p identity.Patient) bool {
	if !s.Claimed() {
		return false
	}
	if s.PatientName == identity.LocalPart(p.Email) {
		return true
	}
	cpf := identity.Digits(s.PatientCPF)
	return cpf != "" && cpf == identity.Digits(p.CPF)
}

// Dedupe keeps the first appointment for every (doctor, date, time range).
func Dedupe(appts []UnifiedAppointment) []UnifiedAppointment {
	type key struct{ doctor, date, timeRange string }
	seen := make(map[key]struct{}, len(appts))
	out := make([]UnifiedAppointment, 0, len(appts))
	for _, a := range appts {
		k := key{a.DoctorName, a.Date, a.Time}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, a)
	}
	return out
}

// SplitFutureVsPast partitions by calendar date in now's location. Anything
// dated today or later is future regardless of the time of day; an
// unparseable date is past.
func SplitFutureVsPast(appts []UnifiedAppointment, now time.Time) (future, past []UnifiedAppointment) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	future = []UnifiedAppointment{}
	past = []UnifiedAppointment{}
	for _, a := range appts {
		day, err := ParseDate(a.Date, now.Location())
		if err != nil || day.Before(today) {
			past = append(past, a)
			continue
		}
		future = append(future, a)
	}
	return future, past
}

// SummarizeByStatus counts slots per status and how many are claimed.
func SummarizeByStatus(slots []Slot) StatusSummary {
	var sum StatusSummary
	for _, s := range slots {
		sum.Total++
		switch s.Status {
		case StatusScheduled:
			sum.Scheduled++
		case StatusCompleted:
			sum.Completed++
		case StatusCancelled:
			sum.Cancelled++
		}
		if s.Claimed() {
			sum.Claimed++
		}
	}
	return sum
}
