package directory

import (
	"coopdash/internal/names"
)

// Contact is one directory entry keyed by names.Key of its name.
type Contact struct {
	Key   string
	ID    string
	Name  string
	Phone string
	Email string
}

type Index struct {
	ByKey    map[string]Contact
	Contacts []Contact
}

// BuildIndex keys contacts by name. A later duplicate only fills fields the first one lacks.
func BuildIndex(contacts []Contact) *Index {
	idx := &Index{ByKey: map[string]Contact{}}
	for _, c := range contacts {
		if c.Key == "" {
			c.Key = names.Key(c.Name)
		}
		if c.Key == "" {
			continue
		}
		existing, ok := idx.ByKey[c.Key]
		if !ok {
			idx.ByKey[c.Key] = c
			idx.Contacts = append(idx.Contacts, c)
			continue
		}
		if existing.Phone == "" {
			existing.Phone = c.Phone
		}
		if existing.Email == "" {
			existing.Email = c.Email
		}
		if existing.ID == "" {
			existing.ID = c.ID
		}
		idx.ByKey[c.Key] = existing
		for i := range idx.Contacts {
			if idx.Contacts[i].Key == c.Key {
				idx.Contacts[i] = existing
				break
			}
		}
	}
	return idx
}

func (i *Index) Lookup(name string) (Contact, bool) {
	if i == nil {
		return Contact{}, false
	}
	c, ok := i.ByKey[names.Key(name)]
	return c, ok
}

func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.Contacts)
}
