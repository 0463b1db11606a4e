package builtin

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"etlgate/internal/config"
	"etlgate/internal/dataset"
)

// Normalize cleans string cells. Every cell gets NBSP (including the
// mis-decoded "\u00c2\u00a0" form) replaced by a space, surrounding white space
// trimmed and NFC composition applied. The flags add optional steps.
type Normalize struct {
	FoldAccents   bool // "Příliš" -> "Prilis"
	StripHTML     bool // drop <...> tags
	CollapseSpace bool // runs of white space -> one space
	EmptyAsNull   bool // "" after cleaning -> nil
}

// NewNormalize reads fold_accents, strip_html, collapse_space and
// empty_as_null (all default false).
func NewNormalize(o config.Options) Normalize {
	return Normalize{
		FoldAccents:   o.Bool("fold_accents", false),
		StripHTML:     o.Bool("strip_html", false),
		CollapseSpace: o.Bool("collapse_space", false),
		EmptyAsNull:   o.Bool("empty_as_null", false),
	}
}

// Apply implements transformer.Transformer.
func (n Normalize) Apply(in *dataset.Frame) (*dataset.Frame, error) {
	out := clone(in)
	for _, r := range out.Rows {
		for k, v := range r {
			s, ok := v.(string)
			if !ok {
				continue
			}
			s = n.clean(s)
			if s == "" && n.EmptyAsNull {
				r[k] = nil
				continue
			}
			r[k] = s
		}
	}
	return out, nil
}

func (n Normalize) clean(s string) string {
	s = strings.ReplaceAll(s, mojibakeNBSP, " ")
	s = strings.ReplaceAll(s, nbsp, " ")
	if n.StripHTML {
		s = stripTags(s)
	}
	if n.CollapseSpace {
		s = collapseSpace(s)
	}
	s = strings.TrimSpace(s)
	if n.FoldAccents {
		return foldAccents(s)
	}
	return norm.NFC.String(s)
}
