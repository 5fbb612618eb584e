package booking

// CatalogEntry is one bookable weekly period of a catalog doctor.
type CatalogEntry struct {
	Day  string `json:"day"`
	Time string `json:"time"`
	Date string `json:"date"`
}

type CatalogDoctor struct {
	Name         string         `json:"name"`
	Appointments []CatalogEntry `json:"appointments"`
}

type CatalogSpecialty struct {
	Slug    string          `json:"slug"`
	Name    string          `json:"name"`
	Title   string          `json:"title"`
	Doctors []CatalogDoctor `json:"doctors"`
}

// catalog is the static schedule legacy bookings are made against.
var catalog = []CatalogSpecialty{
	{
		Slug:  "ginecologia",
		Name:  "Ginecologia",
		Title: "Ginecologia - Horários Disponíveis",
		Doctors: []CatalogDoctor{
			{Name: "Dra. Ana Carolina - Ginecologia", Appointments: []CatalogEntry{
				{Day: "Segunda-feira", Time: "08:00 - 12:00", Date: "17/06/2025"},
				{Day: "Quarta-feira", Time: "14:00 - 18:00", Date: "19/06/2025"},
				{Day: "Sexta-feira", Time: "08:00 - 12:00", Date: "21/06/2025"},
			}},
			{Name: "Dra. Mariana Santos - Ginecologia", Appointments: []CatalogEntry{
				{Day: "Terça-feira", Time: "13:00 - 17:00", Date: "18/06/2025"},
				{Day: "Quinta-feira", Time: "08:00 - 12:00", Date: "20/06/2025"},
				{Day: "Sábado", Time: "09:00 - 13:00", Date: "22/06/2025"},
			}},
		},
	},
	{
		Slug:  "pediatria",
		Name:  "Pediatria",
		Title: "Pediatria - Horários Disponíveis",
		Doctors: []CatalogDoctor{
			{Name: "Dr. Carlos Eduardo - Pediatria", Appointments: []CatalogEntry{
				{Day: "Segunda-feira", Time: "07:00 - 11:00", Date: "17/06/2025"},
				{Day: "Terça-feira", Time: "13:00 - 17:00", Date: "18/06/2025"},
				{Day: "Quinta-feira", Time: "08:00 - 12:00", Date: "20/06/2025"},
				{Day: "Sexta-feira", Time: "14:00 - 18:00", Date: "21/06/2025"},
			}},
			{Name: "Dra. Fernanda Lima - Pediatria", Appointments: []CatalogEntry{
				{Day: "Segunda-feira", Time: "14:00 - 18:00", Date: "17/06/2025"},
				{Day: "Quarta-feira", Time: "08:00 - 12:00", Date: "19/06/2025"},
				{Day: "Sexta-feira", Time: "13:00 - 17:00", Date: "21/06/2025"},
			}},
		},
	},
	{
		Slug:  "clinica-geral",
		Name:  "Clínica Geral",
		Title: "Clínica Geral - Horários Disponíveis",
		Doctors: []CatalogDoctor{
			{Name: "Dr. Roberto Silva - Clínica Geral", Appointments: []CatalogEntry{
				{Day: "Segunda-feira", Time: "08:00 - 12:00", Date: "17/06/2025"},
				{Day: "Terça-feira", Time: "14:00 - 18:00", Date: "18/06/2025"},
				{Day: "Quarta-feira", Time: "08:00 - 12:00", Date: "19/06/2025"},
				{Day: "Quinta-feira", Time: "13:00 - 17:00", Date: "20/06/2025"},
				{Day: "Sexta-feira", Time: "08:00 - 12:00", Date: "21/06/2025"},
			}},
			{Name: "Dra. Patricia Oliveira - Clínica Geral", Appointments: []CatalogEntry{
				{Day: "Segunda-feira", Time: "13:00 - 17:00", Date: "17/06/2025"},
				{Day: "Terça-feira", Time: "08:00 - 12:00", Date: "18/06/2025"},
				{Day: "Quarta-feira", Time: "14:00 - 18:00", Date: "19/06/2025"},
				{Day: "Quinta-feira", Time: "08:00 - 12:00", Date: "20/06/2025"},
			}},
		},
	},
	{
		Slug:  "cardiologia",
		Name:  "Cardiologia",
		Title: "Cardiologia - Horários Disponíveis",
		Doctors: []CatalogDoctor{
			{Name: "Dr. João Cardoso - Cardiologia", Appointments: []CatalogEntry{
				{Day: "Segunda-feira", Time: "09:00 - 13:00", Date: "17/06/2025"},
				{Day: "Quarta-feira", Time: "15:00 - 19:00", Date: "19/06/2025"},
				{Day: "Sexta-feira", Time: "08:00 - 12:00", Date: "21/06/2025"},
			}},
		},
	},
	{
		Slug:  "dermatologia",
		Name:  "Dermatologia",
		Title: "Dermatologia - Horários Disponíveis",
		Doctors: []CatalogDoctor{
			{Name: "Dra. Sofia Pele - Dermatologia", Appointments: []CatalogEntry{
				{Day: "Terça-feira", Time: "14:00 - 18:00", Date: "18/06/2025"},
				{Day: "Quinta-feira", Time: "09:00 - 13:00", Date: "20/06/2025"},
				{Day: "Sábado", Time: "08:00 - 12:00", Date: "22/06/2025"},
			}},
		},
	},
	{
		Slug:  "ortopedia",
		Name:  "Ortopedia",
		Title: "Ortopedia - Horários Disponíveis",
		Doctors: []CatalogDoctor{
			{Name: "Dr. Marcos Ossos - Ortopedia", Appointments: []CatalogEntry{
				{Day: "Segunda-feira", Time: "14:00 - 18:00", Date: "17/06/2025"},
				{Day: "Quarta-feira", Time: "08:00 - 12:00", Date: "19/06/2025"},
				{Day: "Sexta-feira", Time: "13:00 - 17:00", Date: "21/06/2025"},
			}},
		},
	},
}

// Catalog returns the static specialty catalog in display order.
func Catalog() []CatalogSpecialty {
	out := make([]CatalogSpecialty, len(catalog))
	copy(out, catalog)
	return out
}

// CatalogBySlug looks up one specialty by its slug, e.g. "clinica-geral".
func CatalogBySlug(slug string) (CatalogSpecialty, bool) {
	for _, s := range catalog {
		if s.Slug == slug {
			return s, true
		}
	}
	return CatalogSpecialty{}, false
}

// catalogMatch reports whether the exact booking tuple is offered and
// returns the specialty's display name. specialty may be a slug or a name.
func catalogMatch(specialty, doctorName, day, timeRange, date string) (string, bool) {
	for _, s := range catalog {
		if s.Slug != specialty && s.Name != specialty {
			continue
		}
		for _, d := range s.Doctors {
			if d.Name != doctorName {
				continue
			}
			for _, e := range d.Appointments {
				if e.Day == day && e.Time == timeRange && e.Date == date {
					return s.Name, true
				}
			}
		}
	}
	return "", false
}
