// Package blocking partitions input records into candidate groups sharing a
// cheap key, cutting the comparison space from all-pairs to within-block.
package blocking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agenthands/unify/internal/core/model"
)

// KeyFunc derives a blocking key from a record. Returning "" excludes the
// record from that grouping pass.
type KeyFunc func(model.Record) string

// Built-in key function names accepted by Keys.
const (
	KeyLastName    = "last_name"
	KeyEmailDomain = "email_domain"
	KeyPhoneLast7  = "phone_last7"
)

var registry = map[string]KeyFunc{
	KeyLastName:    lastNameKey,
	KeyEmailDomain: emailDomainKey,
	KeyPhoneLast7:  phoneLast7Key,
}

// Keys resolves key function names to implementations.
func Keys(names []string) ([]KeyFunc, error) {
	var fns []KeyFunc
	for _, name := range names {
		fn, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown blocking key %q", name)
		}
		fns = append(fns, fn)
	}
	return fns, nil
}

// Index groups records by blocking keys.
type Index struct {
	keys []KeyFunc
}

func NewIndex(keys []KeyFunc) *Index {
	return &Index{keys: keys}
}

// Build computes candidate groups over records. Every record lands in at
// least one group: records no key function covers get a catch-all singleton,
// so malformed records are never dropped. Groups with identical membership
// (same records reached via different keys) are collapsed to one, keeping the
// first key that produced them.
func (ix *Index) Build(records []model.Record) []model.CandidateGroup {
	type block struct {
		key string
		ids []string
	}

	byKey := make(map[string]*block)
	var order []string
	covered := make(map[string]bool)

	for _, fn := range ix.keys {
		for _, r := range records {
			key := fn(r)
			if key == "" {
				continue
			}
			b, ok := byKey[key]
			if !ok {
				b = &block{key: key}
				byKey[key] = b
				order = append(order, key)
			}
			if !contains(b.ids, r.ID) {
				b.ids = append(b.ids, r.ID)
			}
			covered[r.ID] = true
		}
	}

	var groups []model.CandidateGroup
	seen := make(map[string]bool) // membership signature -> already emitted
	for _, key := range order {
		b := byKey[key]
		sig := signature(b.ids)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		groups = append(groups, model.CandidateGroup{Key: b.key, RecordIDs: b.ids})
	}

	for _, r := range records {
		if !covered[r.ID] {
			groups = append(groups, model.CandidateGroup{
				Key:       "unblocked:" + r.ID,
				RecordIDs: []string{r.ID},
			})
		}
	}

	return groups
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func signature(ids []string) string {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x00")
}

// lastNameKey uses the normalized last token of full_name. Initials and
// punctuation are stripped, so "S. Chen" and "Sarah Chen" share a block.
func lastNameKey(r model.Record) string {
	name, ok := r.Get("full_name")
	if !ok {
		return ""
	}
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return ""
	}
	last := normalizeToken(fields[len(fields)-1])
	if last == "" {
		return ""
	}
	return "name:" + last
}

func emailDomainKey(r model.Record) string {
	email, ok := r.Get("email")
	if !ok {
		return ""
	}
	at := strings.LastIndexByte(email, '@')
	if at == -1 || at == len(email)-1 {
		return ""
	}
	return "domain:" + strings.ToLower(email[at+1:])
}

func phoneLast7Key(r model.Record) string {
	phone, ok := r.Get("phone")
	if !ok {
		return ""
	}
	var digits []byte
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) < 7 {
		return ""
	}
	return "phone:" + string(digits[len(digits)-7:])
}

func normalizeToken(s string) string {
	var b strings.Builder
	for _, c := range strings.ToLower(s) {
		if c >= 'a' && c <= 'z' {
			b.WriteRune(c)
		}
	}
	return b.String()
}
