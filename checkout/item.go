package checkout

import (
	"regexp"
	"strconv"
	"strings"

	contractx "github.com/grubgather/grubgather/agent/contract"
)

// cartItem is one add-to-cart unit derived from a collected free-form item.
type cartItem struct {
	Owner    string
	Raw      string
	Name     string
	Quantity int
}

var leadingQty = regexp.MustCompile(`^(\d+)\s*[xX]?\s+(.+)$`)

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1,
	"two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// parseItem splits an opaque item descriptor into quantity and menu name.
// Items are free-form ("2 Tacos", "two tacos", "Large Pizza - no onions");
// anything without a recognizable leading quantity defaults to 1.
func parseItem(raw string) (name string, quantity int) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", 0
	}

	if m := leadingQty.FindStringSubmatch(trimmed); m != nil {
		if qty, err := strconv.Atoi(m[1]); err == nil && qty > 0 {
			return strings.TrimSpace(m[2]), qty
		}
	}

	if first, rest, ok := strings.Cut(trimmed, " "); ok {
		if qty, found := numberWords[strings.ToLower(first)]; found {
			if rest = strings.TrimSpace(rest); rest != "" {
				return rest, qty
			}
		}
	}

	return trimmed, 1
}

// flattenItems expands the per-user snapshot into a single add-to-cart
// sequence, preserving collection order.
func flattenItems(orders []contractx.UserItems) []cartItem {
	var out []cartItem
	for _, uo := range orders {
		for _, raw := range uo.Items {
			name, qty := parseItem(raw)
			if name == "" {
				continue
			}
			out = append(out, cartItem{
				Owner:    uo.User,
				Raw:      raw,
				Name:     name,
				Quantity: qty,
			})
		}
	}
	return out
}

// textXPath builds an XPath matching any element whose text contains s,
// quoting s safely even when it holds both quote characters.
func textXPath(s string) string {
	return "//*[contains(text(), " + xpathLiteral(s) + ")]"
}

func buttonXPath(label string) string {
	return "//button[contains(., " + xpathLiteral(label) + ")]"
}

func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		quoted = append(quoted, "'"+p+"'")
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}
