package ipam

import "strings"

// MaxDescription is the NetBox description field limit.
const MaxDescription = 200

// FormatDescription builds "name [tag1, tag2] - comment", dropping the tag
// bracket without tags and the comment segment without a comment.
func FormatDescription(name string, tags []TagRef, comment string) string {
	var b strings.Builder
	b.WriteString(name)
	if names := TagNames(tags); len(names) > 0 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("[" + strings.Join(names, ", ") + "]")
	}
	if comment != "" {
		if b.Len() > 0 {
			b.WriteString(" - ")
		}
		b.WriteString(comment)
	}
	return Truncate(b.String(), MaxDescription)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
