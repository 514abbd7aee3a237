// filter.go registers and reads the record-selection flags shared by ls
// and search, so both commands parse --type, --where and paging the same
// way.

package extension

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpl-au/docstore/internal/query"
	"github.com/jpl-au/docstore/internal/store"
)

// AddFilterFlags registers --type, --where, --limit and --offset on c.
func AddFilterFlags(c *cobra.Command) {
	c.Flags().StringSlice(FlagType, nil, "Only records of this type (repeatable)")
	c.Flags().StringArray(FlagWhere, nil, "Data predicate path=value (repeatable, all must match)")
	c.Flags().Int(FlagLimit, 0, "Maximum records to return (0 = all)")
	c.Flags().Int(FlagOffset, 0, "Skip this many records")
}

// ReadFilter builds a store.Filter from the flags AddFilterFlags registered.
func ReadFilter(c *cobra.Command) (store.Filter, error) {
	var f store.Filter
	f.Types, _ = c.Flags().GetStringSlice(FlagType)
	f.Limit, _ = c.Flags().GetInt(FlagLimit)
	f.Offset, _ = c.Flags().GetInt(FlagOffset)
	if f.Limit < 0 || f.Offset < 0 {
		return f, fmt.Errorf("--%s and --%s must be >= 0", FlagLimit, FlagOffset)
	}

	where, _ := c.Flags().GetStringArray(FlagWhere)
	preds, err := query.ParsePredicates(where)
	if err != nil {
		return f, err
	}
	f.Where = preds
	return f, nil
}
