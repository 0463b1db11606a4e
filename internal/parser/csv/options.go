package csv

import (
	"github.com/rs/zerolog"

	"etlgate/internal/config"
)

// DefaultNullValues are the cell values read as null when the options do not
// say otherwise.
var DefaultNullValues = []string{"", "NA", "NaN", "null"}

// Options configures ReadFrame. Use FromConfigOptions to build it from a
// pipeline step's options bag.
type Options struct {
	// HasHeader treats the first record as column names.
	HasHeader bool

	// Columns names the columns when HasHeader is false. Missing names become
	// col_1, col_2, ...
	Columns []string

	// Comma is the field delimiter; ',' when zero.
	Comma rune

	// TrimSpace trims surrounding white space from every cell.
	TrimSpace bool

	// LazyQuotes relaxes quote handling (encoding/csv LazyQuotes).
	LazyQuotes bool

	// HeaderMap renames source headers. Unmapped headers are lower-cased with
	// spaces replaced by underscores.
	HeaderMap map[string]string

	// NullValues are cell values read as nil. Compared after trimming when
	// TrimSpace is set.
	NullValues []string

	// Replace rewrites byte sequences in the raw stream before parsing, in
	// key order of application as given by ReplaceOrder. It exists for known
	// broken-quote sequences in real exports.
	Replace      map[string]string
	ReplaceOrder []string

	// SkipBadRows drops rows that fail to parse or have the wrong width
	// instead of failing the read.
	SkipBadRows bool

	// Logger receives one line per skipped row (up to a limit).
	Logger zerolog.Logger
}

// FromConfigOptions reads:
//
//	has_header (bool, default true), columns ([]string), comma (string),
//	trim_space (bool, default true), lazy_quotes (bool), header_map (object),
//	null_values ([]string), replace (object), skip_bad_rows (bool)
func FromConfigOptions(o config.Options) Options {
	opt := Options{
		HasHeader:   o.Bool("has_header", true),
		Columns:     o.StringSlice("columns"),
		Comma:       o.Rune("comma", ','),
		TrimSpace:   o.Bool("trim_space", true),
		LazyQuotes:  o.Bool("lazy_quotes", false),
		HeaderMap:   o.StringMap("header_map"),
		NullValues:  DefaultNullValues,
		Replace:     o.StringMap("replace"),
		SkipBadRows: o.Bool("skip_bad_rows", false),
		Logger:      zerolog.Nop(),
	}
	if o.Has("null_values") {
		opt.NullValues = o.StringSlice("null_values")
	}
	for from := range opt.Replace {
		opt.ReplaceOrder = append(opt.ReplaceOrder, from)
	}
	sortByLengthDesc(opt.ReplaceOrder)
	return opt
}

// sortByLengthDesc orders replacement patterns longest first so that a
// pattern is never pre-empted by one of its own substrings.
func sortByLengthDesc(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && less(s[j], s[j-1]); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func less(a, b string) bool {
	if len(a) != len(b) {
		return len(a) > len(b)
	}
	return a < b
}
