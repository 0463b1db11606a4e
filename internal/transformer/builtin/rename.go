package builtin

import (
	"strconv"

	"etlgate/internal/config"
	"etlgate/internal/dataset"
)

// Rename renames columns. Map entries apply first; with SnakeASCII every
// column not named in Map is then turned into a lowercase ASCII identifier
// ("Datum od" -> "datum_od"). Names that collide get a numeric suffix.
type Rename struct {
	Map        map[string]string
	SnakeASCII bool
}

// NewRename reads map and snake_ascii.
func NewRename(o config.Options) Rename {
	return Rename{
		Map:        o.StringMap("map"),
		SnakeASCII: o.Bool("snake_ascii", false),
	}
}

// Apply implements transformer.Transformer.
func (rn Rename) Apply(in *dataset.Frame) (*dataset.Frame, error) {
	out := clone(in)
	names := rn.names(out.Columns)

	for i, r := range out.Rows {
		moved := make(dataset.Record, len(r))
		for k, v := range r {
			if to, ok := names[k]; ok {
				k = to
			}
			moved[k] = v
		}
		out.Rows[i] = moved
	}
	for i, c := range out.Columns {
		out.Columns[i] = names[c]
	}
	return out, nil
}

// names maps every current column to its new, unique name.
func (rn Rename) names(cols []string) map[string]string {
	out := make(map[string]string, len(cols))
	used := make(map[string]int, len(cols))
	for _, c := range cols {
		name := c
		if to, ok := rn.Map[c]; ok {
			name = to
		} else if rn.SnakeASCII {
			name = snakeASCII(c)
		}
		used[name]++
		if n := used[name]; n > 1 {
			name = suffixed(name, n)
		}
		out[c] = name
	}
	return out
}

func suffixed(name string, n int) string {
	return name + "_" + strconv.Itoa(n)
}
