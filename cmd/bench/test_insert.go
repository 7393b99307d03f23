package main

import (
	"fmt"
	"sync/atomic"
	"time"
)

// TestInsert stages N inserts from concurrent clients into one row set.
func TestInsert(c Config) {

	rowset := CreateRowSet(c.Base)

	items := c.N
	t0 := time.Now()
	Parallel(c.Workers, func() {
		for {
			n := atomic.AddInt64(&items, -1)
			if n < 0 {
				return
			}
			Post(c.Base+"/v1/rowsets/"+rowset+":insert", JSON{"id": n, "n": fmt.Sprint(n)})
		}
	})
	report("insert", c.N, time.Since(t0))
}
