package members

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"coopdash/internal/columns"
	"coopdash/internal/config"
	"coopdash/internal/directory"
	"coopdash/internal/names"
	"coopdash/internal/table"
	"coopdash/internal/util"
)

var ErrMemberColumnMissing = eris.New("members: no member id or name column")

type Tier string

const (
	TierLoyal   Tier = "loyal"
	TierRepeat  Tier = "repeat"
	TierOneTime Tier = "one_time"
)

var tierRank = map[Tier]int{TierOneTime: 0, TierRepeat: 1, TierLoyal: 2}

// ParseTier accepts a tier name; empty means every member.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if t == "" {
		return TierOneTime, nil
	}
	if _, ok := tierRank[t]; !ok {
		return "", eris.Errorf("members: unknown tier %q", s)
	}
	return t, nil
}

// Purchase is one sales row attributed to a member.
type Purchase struct {
	MemberID string
	Name     string
	Phone    string
	Amount   decimal.Decimal
	Date     string
}

type Member struct {
	ID        string
	Name      string
	Phone     string
	Email     string
	Purchases int
	Amount    decimal.Decimal
	LastDate  string
	Tier      Tier
}

type Options struct {
	MinPurchases int
}

// Purchases reads member sales rows. Amount and date columns are optional.
func Purchases(t *table.Table, rules *config.Rules) ([]Purchase, error) {
	m := columns.NewDetector(rules.Columns).Detect(t.Columns)
	taken := map[string]bool{}
	for _, label := range []string{m.Amount, m.Date} {
		if label != "" {
			taken[label] = true
		}
	}
	id := claim(t.Columns, rules.Members.ID, taken)
	name := claim(t.Columns, rules.Members.Name, taken)
	phone := claim(t.Columns, rules.Members.Phone, taken)
	if id == "" && name == "" {
		return nil, eris.Wrapf(ErrMemberColumnMissing, "%s: columns %v", t.Name, t.Columns)
	}

	out := make([]Purchase, 0, len(t.Rows))
	for _, r := range t.Rows {
		p := Purchase{
			MemberID: strings.TrimSuffix(t.Value(r, id), ".0"),
			Name:     t.Value(r, name),
			Phone:    util.CleanPhone(t.Value(r, phone)),
			Amount:   util.CleanNumber(t.Value(r, m.Amount)),
			Date:     dayOf(t.Value(r, m.Date)),
		}
		if p.MemberID == "" && p.Name == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func claim(labels []string, keywords []string, taken map[string]bool) string {
	for _, k := range keywords {
		if label := columns.Find(labels, []string{k}, taken); label != "" {
			taken[label] = true
			return label
		}
	}
	return ""
}

func dayOf(v string) string {
	fields := strings.Fields(v)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

type tally struct {
	member Member
	dates  map[string]bool
	rows   int
}

// Segment groups purchases per member. Purchases on the same date count once;
// undated purchases count individually.
func Segment(purchases []Purchase, opts Options) []Member {
	threshold := opts.MinPurchases
	if threshold < 1 {
		threshold = 2
	}

	byKey := map[string]*tally{}
	order := []string{}
	for _, p := range purchases {
		key := p.MemberID
		if key == "" {
			key = names.Key(p.Name)
		}
		if key == "" {
			continue
		}
		t, ok := byKey[key]
		if !ok {
			t = &tally{member: Member{ID: p.MemberID, Name: p.Name}, dates: map[string]bool{}}
			byKey[key] = t
			order = append(order, key)
		}
		if t.member.Name == "" {
			t.member.Name = p.Name
		}
		if t.member.Phone == "" {
			t.member.Phone = p.Phone
		}
		t.member.Amount = t.member.Amount.Add(p.Amount)
		if p.Date == "" {
			t.rows++
		} else {
			t.dates[p.Date] = true
			if p.Date > t.member.LastDate {
				t.member.LastDate = p.Date
			}
		}
	}

	out := make([]Member, 0, len(order))
	for _, key := range order {
		t := byKey[key]
		m := t.member
		m.Purchases = t.rows + len(t.dates)
		switch {
		case m.Purchases >= 2*threshold:
			m.Tier = TierLoyal
		case m.Purchases >= threshold:
			m.Tier = TierRepeat
		default:
			m.Tier = TierOneTime
		}
		out = append(out, m)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Purchases != out[j].Purchases {
			return out[i].Purchases > out[j].Purchases
		}
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return sortKey(out[i]) < sortKey(out[j])
	})
	return out
}

func sortKey(m Member) string {
	if m.ID != "" {
		return m.ID
	}
	return m.Name
}

// Enrich fills missing phone and email from the member directory, by id first and then by name.
func Enrich(members []Member, idx *directory.Index) {
	if idx.Len() == 0 {
		return
	}
	byID := map[string]directory.Contact{}
	for _, c := range idx.Contacts {
		if c.ID != "" {
			byID[c.ID] = c
		}
	}
	for i := range members {
		c, ok := byID[members[i].ID]
		if !ok {
			c, ok = idx.Lookup(members[i].Name)
		}
		if !ok {
			continue
		}
		if members[i].Phone == "" {
			members[i].Phone = c.Phone
		}
		if members[i].Email == "" {
			members[i].Email = c.Email
		}
	}
}

// Select keeps members whose tier is at least floor, preserving order.
func Select(members []Member, floor Tier) []Member {
	out := make([]Member, 0, len(members))
	for _, m := range members {
		if tierRank[m.Tier] >= tierRank[floor] {
			out = append(out, m)
		}
	}
	return out
}
