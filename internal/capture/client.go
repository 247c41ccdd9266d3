package capture

import "strings"

type ClientPatch struct {
	Name  *string
	Email *string
	Phone *string
}

type PropertyPatch struct {
	Address      *string
	Postcode     *string
	PropertyType *string
	AccessNotes  *string
}

func (s *Session) UpdateClient(p ClientPatch) error {
	return s.mutate(func() error {
		c := &s.visit.Client
		setTrimmed(&c.Name, p.Name)
		setTrimmed(&c.Email, p.Email)
		setTrimmed(&c.Phone, p.Phone)
		return nil
	})
}

func (s *Session) UpdateProperty(p PropertyPatch) error {
	return s.mutate(func() error {
		pr := &s.visit.Property
		setTrimmed(&pr.Address, p.Address)
		if p.Postcode != nil {
			pr.Postcode = strings.ToUpper(strings.TrimSpace(*p.Postcode))
		}
		setTrimmed(&pr.PropertyType, p.PropertyType)
		if p.AccessNotes != nil {
			pr.AccessNotes = *p.AccessNotes
		}
		return nil
	})
}

func setTrimmed(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}
