package rowset_test

import (
	"context"

	"github.com/fulldump/rowsetdb/backing"
	"github.com/fulldump/rowsetdb/backing/memstore"
	"github.com/fulldump/rowsetdb/reconcile"
	"github.com/fulldump/rowsetdb/rowset"
)

var letterColumns = []backing.Column{
	{Name: "id", Type: backing.TypeInteger, Key: true},
	{Name: "letter", Type: backing.TypeString, Nullable: true},
}

// Environment gives f a backing table "letters" with rows
// (1,a) (2,b) (3,c) (4,d) and a row set fetched from it.
func Environment(f func(st *memstore.Store, rs *rowset.RowSet)) {
	st := memstore.New()
	st.CreateTable("letters", letterColumns)
	st.Load("letters",
		[]any{1, "a"},
		[]any{2, "b"},
		[]any{3, "c"},
		[]any{4, "d"},
	)

	rs := rowset.NewWithStrategy(reconcile.NewOptimistic())
	rs.SetTableName("letters")
	rs.SetStore(st)
	err := rs.Execute(context.Background(), nil)
	if err != nil {
		panic(err)
	}

	f(st, rs)
}

func currentRow(rs *rowset.RowSet) []any {
	id, _ := rs.GetObject(1)
	letter, _ := rs.GetObject(2)
	return []any{id, letter}
}
