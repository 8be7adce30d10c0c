package directory

import (
	"strings"

	"coopdash/internal/columns"
	"coopdash/internal/config"
	"coopdash/internal/table"
	"coopdash/internal/util"
)

type fieldColumns struct {
	id    string
	name  string
	phone string
	email string
}

func detectVendorColumns(labels []string, rules config.DirectoryColumns) fieldColumns {
	taken := map[string]bool{}
	var f fieldColumns
	f.name = claim(labels, rules.Name, taken)
	f.phone = claim(labels, rules.Phone, taken)
	f.email = claim(labels, rules.Email, taken)
	return f
}

func detectMemberColumns(labels []string, rules config.MemberColumns) fieldColumns {
	taken := map[string]bool{}
	var f fieldColumns
	f.id = claim(labels, rules.ID, taken)
	f.name = claim(labels, rules.Name, taken)
	f.phone = claim(labels, rules.Phone, taken)
	f.email = claim(labels, rules.Email, taken)
	return f
}

// claim tries each keyword in order so "휴대전화" wins over "전화번호" when both columns exist.
func claim(labels []string, keywords []string, taken map[string]bool) string {
	for _, k := range keywords {
		if label := columns.Find(labels, []string{k}, taken); label != "" {
			taken[label] = true
			return label
		}
	}
	return ""
}

// VendorContacts reads a vendor contact table. Missing phone or email columns leave those fields empty.
func VendorContacts(t *table.Table, rules config.DirectoryColumns) []Contact {
	return contactsFrom(t, detectVendorColumns(t.Columns, rules))
}

// MemberContacts reads a member table.
func MemberContacts(t *table.Table, rules config.MemberColumns) []Contact {
	return contactsFrom(t, detectMemberColumns(t.Columns, rules))
}

func contactsFrom(t *table.Table, f fieldColumns) []Contact {
	if f.name == "" && f.id == "" {
		return nil
	}
	out := make([]Contact, 0, len(t.Rows))
	for _, r := range t.Rows {
		c := Contact{
			ID:    strings.TrimSuffix(t.Value(r, f.id), ".0"),
			Name:  t.Value(r, f.name),
			Phone: util.CleanPhone(t.Value(r, f.phone)),
		}
		if email := t.Value(r, f.email); util.LooksLikeEmail(email) {
			c.Email = strings.TrimSpace(email)
		}
		if c.Name == "" && c.ID == "" {
			continue
		}
		out = append(out, c)
	}
	return out
}
