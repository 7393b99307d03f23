package main

import (
	"encoding/json"
	"fmt"
	"time"
)

// TestSync measures how long one synchronization pass takes to write N
// inserted rows and then N updated rows.
func TestSync(c Config) {

	rowset := CreateRowSet(c.Base)
	url := c.Base + "/v1/rowsets/" + rowset

	for i := int64(0); i < c.N; i++ {
		Post(url+":insert", JSON{"id": i, "n": fmt.Sprint(i)})
	}

	t0 := time.Now()
	Post(url+":synchronize", nil)
	report("sync inserts", c.N, time.Since(t0))

	for i := int64(1); i <= c.N; i++ {
		Post(url+":update", JSON{"row": i, "values": JSON{"n": "updated"}})
	}

	t0 = time.Now()
	result := struct {
		Synchronized int64 `json:"synchronized"`
	}{}
	json.Unmarshal(Post(url+":synchronize", nil), &result)
	report("sync updates", result.Synchronized, time.Since(t0))
}
