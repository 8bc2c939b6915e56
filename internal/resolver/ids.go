package resolver

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/specnode/internal/config"
	"github.com/funvibe/specnode/internal/specialization"
)

// assignIDs derives stable ids from declared names: a leading "do" is
// dropped, the first letter is upper-cased and duplicates are numbered.
func assignIDs(ds []*specialization.Descriptor) {
	ids := make([]string, len(ds))
	for i, d := range ds {
		ids[i] = idFromName(d.Name, i)
	}
	ids = renameDuplicates(ids)
	for i, d := range ds {
		d.ID = ids[i]
	}
}

func idFromName(name string, index int) string {
	if rest, ok := strings.CutPrefix(name, "do"); ok && rest != "" {
		if r, _ := utf8.DecodeRuneInString(rest); unicode.IsUpper(r) || r == '_' {
			name = rest
		}
	}
	name = strings.TrimLeft(name, "_")
	if name == "" {
		return fmt.Sprintf("S%d", index)
	}
	r, size := utf8.DecodeRuneInString(name)
	id := string(unicode.ToUpper(r)) + name[size:]
	if id == config.GenericID || id == config.UninitializedID || id == config.PolymorphicID {
		id += "Case"
	}
	return id
}

// renameDuplicates suffixes every repeated id with its occurrence number
// among the repeats, until all ids are distinct.
func renameDuplicates(ids []string) []string {
	out := append([]string(nil), ids...)
	for {
		counts := make(map[string]int, len(out))
		for _, id := range out {
			counts[id]++
		}
		changed := false
		seen := make(map[string]int, len(out))
		for i, id := range out {
			if counts[id] > 1 {
				out[i] = fmt.Sprintf("%s%d", id, seen[id])
				seen[id]++
				changed = true
			}
		}
		if !changed {
			return out
		}
	}
}
