package identity

import (
	"regexp"
	"strings"

	"github.com/hackgods/sus-scheduling/internal/apperr"
)

var (
	emailRe       = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	crmRe         = regexp.MustCompile(`^\d{4,6}$`)
	doctorPhoneRe = regexp.MustCompile(`^\(\d{2}\)\s\d{4,5}-\d{4}$`)
)

const minPasswordLen = 6

// Digits strips everything but ASCII digits. National ids and license numbers
// are always compared in this form.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// ValidCPF checks length, rejects a single repeated digit, and verifies both
// check digits.
func ValidCPF(cpf string) bool {
	n := Digits(cpf)
	if len(n) != 11 {
		return false
	}
	if strings.Count(n, n[:1]) == 11 {
		return false
	}
	return CompleteCPF(n[:9]) == n
}

// CompleteCPF appends the two check digits to a 9-digit base.
func CompleteCPF(base string) string {
	n := Digits(base)
	if len(n) != 9 {
		return n
	}
	n += string(rune('0' + cpfCheckDigit(n)))
	n += string(rune('0' + cpfCheckDigit(n)))
	return n
}

// cpfCheckDigit weighs the digits from len+1 down to 2.
func cpfCheckDigit(n string) int {
	sum := 0
	for i := 0; i < len(n); i++ {
		sum += int(n[i]-'0') * (len(n) + 1 - i)
	}
	r := (sum * 10) % 11
	if r == 10 {
		r = 0
	}
	return r
}

func ValidCRM(crm string) bool {
	return crmRe.MatchString(Digits(crm))
}

// LocalPart returns the part of an email before '@'. It is the display name
// the slot engine binds to a claimed slot.
func LocalPart(email string) string {
	if i := strings.IndexByte(email, '@'); i >= 0 {
		return email[:i]
	}
	return email
}

func validatePatient(in PatientInput) error {
	switch {
	case strings.TrimSpace(in.Email) == "":
		return apperr.Validation("email is required")
	case !ValidEmail(strings.TrimSpace(in.Email)):
		return apperr.Validation("email is invalid")
	case len(in.Password) < minPasswordLen:
		return apperr.Validation("password must have at least %d characters", minPasswordLen)
	case in.CPF == "":
		return apperr.Validation("cpf is required")
	case !ValidCPF(in.CPF):
		return apperr.Validation("cpf is invalid")
	case len(Digits(in.Phone)) < 10:
		return apperr.Validation("phone is invalid")
	}
	return nil
}

func validateDoctor(in DoctorInput) error {
	switch {
	case len([]rune(strings.TrimSpace(in.Name))) < 2:
		return apperr.Validation("name must have at least 2 characters")
	case !ValidEmail(strings.TrimSpace(in.Email)):
		return apperr.Validation("email is invalid")
	case len(in.Password) < minPasswordLen:
		return apperr.Validation("password must have at least %d characters", minPasswordLen)
	case !ValidCRM(in.CRM):
		return apperr.Validation("crm must contain between 4 and 6 digits")
	case !IsSpecialty(in.Specialty):
		return apperr.Validation("unknown specialty %q", in.Specialty)
	case !doctorPhoneRe.MatchString(in.Phone):
		return apperr.Validation("phone must look like (11) 99999-9999")
	}
	return nil
}
