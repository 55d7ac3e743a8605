package util

import "strings"

// ArticleFor returns "a" or "an" as appropriate for the given word, for use
// in human-readable messages such as "expected an identifier".
func ArticleFor(word string, capital bool) string {
	a := "a"
	if capital {
		a = "A"
	}
	an := "an"
	if capital {
		an = "An"
	}

	if word == "" {
		return a
	}

	switch strings.ToLower(word)[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return an
	default:
		return a
	}
}

// TextList renders items as a human-readable comma/"and"-joined list,
// mirroring how a grammar-conflict or expected-token message is built up.
func TextList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	if len(items) == 1 {
		return items[0]
	}
	if len(items) == 2 {
		return items[0] + " and " + items[1]
	}

	out := make([]string, len(items))
	copy(out, items)
	out[len(out)-1] = "and " + out[len(out)-1]
	return strings.Join(out, ", ")
}
