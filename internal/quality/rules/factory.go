package rules

import (
	"sort"

	"github.com/pkg/errors"

	"etlgate/internal/config"
	"etlgate/internal/schema"
)

// Factory builds a rule from a config step. name may be empty.
type Factory func(name string, o config.Options) (Check, error)

var factories = map[string]Factory{
	"completion": func(name string, o config.Options) (Check, error) {
		cols := o.StringSlice("columns")
		if len(cols) == 0 {
			return nil, errors.New("completion: columns are required")
		}
		r := NewCompletion(cols, o.Float("threshold", 0))
		r.RuleName = name
		return r, nil
	},
	"outlier": func(name string, o config.Options) (Check, error) {
		cols := o.StringSlice("columns")
		if len(cols) == 0 {
			return nil, errors.New("outlier: columns are required")
		}
		r := NewOutlier(cols...)
		r.RuleName = name
		r.K = o.Float("k", r.K)
		return r, nil
	},
	"uniqueness": func(name string, o config.Options) (Check, error) {
		r := NewUniqueness(o.StringSlice("columns")...)
		r.RuleName = name
		return r, nil
	},
	"value_range": func(name string, o config.Options) (Check, error) {
		col := o.String("column", "")
		if col == "" {
			return nil, errors.New("value_range: column is required")
		}
		lo, _ := o.FloatPtr("min")
		hi, _ := o.FloatPtr("max")
		r, err := NewValueRange(col, lo, hi)
		if err != nil {
			return nil, err
		}
		r.RuleName = name
		return r, nil
	},
	"contract": func(name string, o config.Options) (Check, error) {
		var c schema.Contract
		found, err := o.DecodeInto("contract", &c)
		if err != nil {
			return nil, errors.Wrap(err, "contract")
		}
		if !found {
			return nil, errors.New("contract: contract is required")
		}
		r := NewContract(c, o.String("date_layout", ""))
		r.RuleName = name
		return r, nil
	},
}

// FromConfig builds the rule registered for kind.
func FromConfig(kind, name string, o config.Options) (Check, error) {
	f, ok := factories[kind]
	if !ok {
		return nil, errors.Errorf("unknown quality check kind %q (known: %v)", kind, Kinds())
	}
	c, err := f(name, o)
	if err != nil {
		return nil, errors.Wrapf(err, "build %s check", kind)
	}
	return c, nil
}

// Kinds lists the registered rule kinds, sorted.
func Kinds() []string {
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
