package reconcile

import (
	"fmt"
	"strings"

	"github.com/fulldump/rowsetdb/rowset"
	"github.com/fulldump/rowsetdb/utils"
)

const DefaultStrategy = "optimistic"

var strategies = map[string]func() rowset.SyncStrategy{
	"optimistic": func() rowset.SyncStrategy { return NewOptimistic() },
	"overwrite":  func() rowset.SyncStrategy { return NewOverwrite() },
}

// ByName returns the strategy registered as name. An empty name selects the
// default strategy.
func ByName(name string) (rowset.SyncStrategy, error) {
	if name == "" {
		name = DefaultStrategy
	}
	f, exists := strategies[strings.ToLower(name)]
	if !exists {
		return nil, fmt.Errorf("unknown sync strategy '%s', must be [%s]", name, strings.Join(utils.GetKeys(strategies), "|"))
	}
	return f(), nil
}
