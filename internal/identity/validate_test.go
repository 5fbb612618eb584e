package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/sus-scheduling/internal/apperr"
)

func TestValidCPF(t *testing.T) {
	cases := map[string]bool{
		"529.982.247-25": true,
		"52998224725":    true,
		"111.444.777-35": true,
		"529.982.247-26": false,
		"111.111.111-11": false,
		"00000000000":    false,
		"1234567890":     false,
		"":               false,
	}
	for in, want := range cases {
		assert.Equal(t, want, ValidCPF(in), in)
	}
}

func TestValidCRM(t *testing.T) {
	assert.True(t, ValidCRM("1234"))
	assert.True(t, ValidCRM("123456"))
	assert.True(t, ValidCRM("CRM 12.345"))
	assert.False(t, ValidCRM("123"))
	assert.False(t, ValidCRM("1234567"))
}

func TestDigitsAndLocalPart(t *testing.T) {
	assert.Equal(t, "52998224725", Digits("529.982.247-25"))
	assert.Equal(t, "", Digits("abc"))
	assert.Equal(t, "maria", LocalPart("maria@example.com"))
	assert.Equal(t, "nobody", LocalPart("nobody"))
}

func TestValidateDoctor(t *testing.T) {
	base := DoctorInput{
		Name:      "Ana Carolina",
		Email:     "ana@sus.gov.br",
		Password:  "secret1",
		CRM:       "12345",
		Specialty: "Pediatria",
		Phone:     "(11) 99999-9999",
	}
	require.NoError(t, validateDoctor(base))

	tests := []struct {
		name   string
		mutate func(*DoctorInput)
	}{
		{"short name", func(in *DoctorInput) { in.Name = "A" }},
		{"bad email", func(in *DoctorInput) { in.Email = "ana.sus.gov.br" }},
		{"short password", func(in *DoctorInput) { in.Password = "12345" }},
		{"bad crm", func(in *DoctorInput) { in.CRM = "12" }},
		{"unknown specialty", func(in *DoctorInput) { in.Specialty = "Astrologia" }},
		{"bad phone", func(in *DoctorInput) { in.Phone = "11999999999" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			assert.ErrorIs(t, validateDoctor(in), apperr.ErrValidation)
		})
	}
}

func TestCompleteCPF(t *testing.T) {
	assert.Equal(t, "52998224725", CompleteCPF("529982247"))
	assert.Equal(t, "11144477735", CompleteCPF("111.444.777"))
	assert.True(t, ValidCPF(CompleteCPF("123456789")))
}
