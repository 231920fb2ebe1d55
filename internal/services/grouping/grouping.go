// Package grouping derives the "base product" of a free-text product
// label so size and variant versions of one product take a single slot
// of the per-supplier product quota.
package grouping

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Windi-Fikriyansyah/bazaar_be/internal/models"
)

type Policy string

const (
	// Static applies the positional label rules.
	Static Policy = "static"
	// Dynamic groups on fragments shared with other labels of the selection.
	Dynamic Policy = "dynamic"
	// ProductType groups on the declared jenisProduk of the product.
	ProductType Policy = "product_type"
)

// UntypedPrefix marks ProductType keys that fell back to the label.
const UntypedPrefix = "label:"

func (p Policy) Valid() bool {
	switch p {
	case Static, Dynamic, ProductType:
		return true
	}
	return false
}

// ParsePolicy maps a configured name to a Policy. Empty means Static.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return Static, nil
	}
	if !p.Valid() {
		return "", fmt.Errorf("unknown grouping policy %q", s)
	}
	return p, nil
}

var (
	pcsSuffix = regexp.MustCompile(`(?i)\s*\d*\s*Pcs$`)
	alnumWord = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// normalize collapses whitespace and strips a trailing "<n> Pcs".
func normalize(label string) string {
	label = strings.Join(strings.Fields(label), " ")
	label = pcsSuffix.ReplaceAllString(label, "")
	return strings.TrimSpace(label)
}

// StaticBaseProduct applies the first matching rule:
// up to the last ")", before the last "-", before " size", all but a
// trailing alphanumeric word (3+ words), before the last space, or the
// label itself.
func StaticBaseProduct(label string) string {
	label = normalize(label)
	if label == "" {
		return ""
	}
	if i := strings.LastIndex(label, ")"); i != -1 {
		return strings.TrimSpace(label[:i+1])
	}
	if i := strings.LastIndex(label, "-"); i != -1 {
		return strings.TrimSpace(label[:i])
	}
	if i := indexFold(label, " size"); i != -1 {
		return strings.TrimSpace(label[:i])
	}
	words := strings.Split(label, " ")
	if len(words) > 2 && alnumWord.MatchString(words[len(words)-1]) {
		return strings.TrimSpace(strings.Join(words[:len(words)-1], " "))
	}
	if i := strings.LastIndex(label, " "); i != -1 {
		return strings.TrimSpace(label[:i])
	}
	return label
}

func indexFold(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}

type fragment struct {
	pick func(words []string) (string, bool)
	fold bool
}

func firstN(n int) func([]string) (string, bool) {
	return func(w []string) (string, bool) {
		if len(w) < n {
			return "", false
		}
		return strings.Join(w[:n], " "), true
	}
}

func lastN(n int) func([]string) (string, bool) {
	return func(w []string) (string, bool) {
		if len(w) < n {
			return "", false
		}
		return strings.Join(w[len(w)-n:], " "), true
	}
}

// Tried in this order; the last entry repeats the first word
// case-insensitively.
var dynamicFragments = []fragment{
	{pick: firstN(1)},
	{pick: lastN(2)},
	{pick: lastN(1)},
	{pick: firstN(3)},
	{pick: firstN(2)},
	{pick: firstN(1), fold: true},
}

// DynamicBaseProduct keys label on the first fragment it shares with at
// least one other label of selection. Keys are lower-cased. A label
// sharing nothing is its own group.
func DynamicBaseProduct(label string, selection []string) string {
	label = normalize(label)
	if label == "" {
		return ""
	}
	words := strings.Fields(label)

	pool := make([][]string, 0, len(selection)+1)
	seen := false
	for _, s := range selection {
		n := normalize(s)
		if n == "" {
			continue
		}
		if n == label {
			seen = true
		}
		pool = append(pool, strings.Fields(n))
	}
	if !seen {
		pool = append(pool, words)
	}

	for _, f := range dynamicFragments {
		want, ok := f.pick(words)
		if !ok {
			continue
		}
		count := 0
		for _, other := range pool {
			got, ok := f.pick(other)
			if !ok {
				continue
			}
			if got == want || (f.fold && strings.EqualFold(got, want)) {
				count++
			}
		}
		if count > 1 {
			return strings.ToLower(want)
		}
	}
	return strings.ToLower(label)
}

// Canonicalize produces the grouping key of a label under p. The
// ProductType policy needs product data; for bare labels it behaves
// like Static.
func Canonicalize(p Policy, label string, selection []string) string {
	if p == Dynamic {
		return DynamicBaseProduct(label, selection)
	}
	return StaticBaseProduct(label)
}

// Key is Canonicalize for a selected product.
func Key(p Policy, item models.SelectedProduct, selection []models.SelectedProduct) string {
	switch p {
	case ProductType:
		if item.Data != nil {
			if t := strings.ToLower(strings.TrimSpace(item.Data.JenisProduk)); t != "" {
				return t
			}
		}
		// Untyped items keep their own key space so a label can never
		// merge with a declared type.
		if k := StaticBaseProduct(item.Label); k != "" {
			return UntypedPrefix + k
		}
		return ""
	case Dynamic:
		return DynamicBaseProduct(item.Label, models.Labels(selection))
	default:
		return StaticBaseProduct(item.Label)
	}
}

// Groups maps each key to the labels that fall under it.
func Groups(p Policy, items []models.SelectedProduct) map[string][]string {
	out := make(map[string][]string)
	for _, it := range items {
		k := Key(p, it, items)
		if k == "" {
			continue
		}
		out[k] = append(out[k], it.Label)
	}
	return out
}

func DistinctGroups(p Policy, items []models.SelectedProduct) int {
	return len(Groups(p, items))
}
