package text

import "strings"

// nameReplacer turns " - " into "-" and any other space into "_". At each
// position the longer pattern is tried first.
var nameReplacer = strings.NewReplacer(" - ", "-", " ", "_")

// NormalizeName makes a quadrangle name usable as a file name stem:
// runs of spaces collapse to one, "A - B" becomes "A-B" and the remaining
// spaces become underscores.
func NormalizeName(name string) string {
	name = strings.TrimRight(name, " \t\r\n\x00")

	var b strings.Builder
	b.Grow(len(name))
	prevSpace := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == ' ' && prevSpace {
			continue
		}
		prevSpace = c == ' '
		b.WriteByte(c)
	}

	return nameReplacer.Replace(b.String())
}
