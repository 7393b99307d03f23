package service

import (
	"net/http"

	"github.com/fulldump/apitest"
	"github.com/fulldump/biff"
)

type JSON = map[string]interface{}

// Acceptance walks the HTTP API over a fresh, empty database. apiRequest
// builds requests relative to the API version root.
func Acceptance(a *biff.A, apiRequest func(method, path string) *apitest.Request) {

	resp := apiRequest("POST", "/tables").
		WithBodyJson(JSON{
			"name": "people",
			"columns": []JSON{
				{"name": "id", "type": "integer", "key": true},
				{"name": "name", "type": "string"},
				{"name": "age", "type": "integer", "nullable": true},
			},
		}).Do()
	Save(resp, "Create table", ``)
	biff.AssertEqual(resp.StatusCode, http.StatusCreated)

	a.Alternative("Create table twice", func(a *biff.A) {
		resp := apiRequest("POST", "/tables").
			WithBodyJson(JSON{
				"name":    "people",
				"columns": []JSON{{"name": "id", "type": "integer"}},
			}).Do()
		biff.AssertEqual(resp.StatusCode, http.StatusConflict)
	})

	a.Alternative("Create row set", func(a *biff.A) {
		resp := apiRequest("POST", "/rowsets").
			WithBodyJson(JSON{
				"name":  "people",
				"table": "people",
			}).Do()
		Save(resp, "Create row set", `
			Fetches the rows of a table (or the result of a command) into a new
			named row set.
		`)

		biff.AssertEqual(resp.StatusCode, http.StatusCreated)
		body := resp.BodyJson().(JSON)
		biff.AssertEqual(body["name"], "people")
		biff.AssertEqual(body["table"], "people")
		biff.AssertEqual(body["strategy"], "optimistic")
		biff.AssertEqualJson(body["size"], 0)

		a.Alternative("Create it again", func(a *biff.A) {
			resp := apiRequest("POST", "/rowsets").
				WithBodyJson(JSON{
					"name":  "people",
					"table": "people",
				}).Do()
			biff.AssertEqual(resp.StatusCode, http.StatusConflict)
		})

		a.Alternative("List row sets", func(a *biff.A) {
			resp := apiRequest("GET", "/rowsets").Do()
			Save(resp, "List row sets", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			list := resp.BodyJson().([]interface{})
			biff.AssertEqual(len(list), 1)
			biff.AssertEqual(list[0].(JSON)["name"], "people")
		})

		a.Alternative("Retrieve row set", func(a *biff.A) {
			resp := apiRequest("GET", "/rowsets/people").Do()
			Save(resp, "Retrieve row set", ``)

			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			body := resp.BodyJson().(JSON)
			biff.AssertEqual(len(body["columns"].([]interface{})), 3)
		})

		a.Alternative("Drop row set", func(a *biff.A) {
			resp := apiRequest("POST", "/rowsets/people:drop").Do()
			Save(resp, "Drop row set", ``)
			biff.AssertEqual(resp.StatusCode, http.StatusOK)

			resp = apiRequest("GET", "/rowsets/people").Do()
			biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
		})

		a.Alternative("Insert missing a required column", func(a *biff.A) {
			resp := apiRequest("POST", "/rowsets/people:insert").
				WithBodyJson(JSON{"id": 1}).Do()
			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Insert with a wrong type", func(a *biff.A) {
			resp := apiRequest("POST", "/rowsets/people:insert").
				WithBodyJson(JSON{"id": 1, "name": "alice", "age": "thirty"}).Do()
			biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
		})

		a.Alternative("Insert and synchronize", func(a *biff.A) {
			resp := apiRequest("POST", "/rowsets/people:insert").
				WithBodyJson(JSON{"id": 1, "name": "alice", "age": 30}).Do()
			Save(resp, "Insert", `
				Appends a row to the row set. It reaches the backing store on the
				next synchronization.
			`)
			biff.AssertEqual(resp.StatusCode, http.StatusCreated)
			biff.AssertEqualJson(resp.BodyJson(), JSON{
				"row":    1,
				"status": "inserted",
				"values": JSON{"id": 1, "name": "alice", "age": 30},
			})

			apiRequest("POST", "/rowsets/people:insert").
				WithBodyJson(JSON{"id": 2, "name": "bob"}).Do()

			resp = apiRequest("POST", "/rowsets/people:synchronize").Do()
			Save(resp, "Synchronize", ``)
			biff.AssertEqual(resp.StatusCode, http.StatusOK)
			biff.AssertEqualJson(resp.BodyJson(), JSON{
				"synchronized": 2,
				"pending":      0,
				"conflicts":    []JSON{},
			})

			a.Alternative("Find", func(a *biff.A) {
				resp := apiRequest("POST", "/rowsets/people:find").
					WithBodyJson(JSON{
						"filter": JSON{"age": JSON{"$gte": 18}},
					}).Do()
				Save(resp, "Find", `
					Filters the rows of the row set with a Mongo style document.
				`)
				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), []JSON{
					{"row": 1, "status": "unchanged", "values": JSON{"id": 1, "name": "alice", "age": 30}},
				})
			})

			a.Alternative("Find with skip and limit", func(a *biff.A) {
				resp := apiRequest("POST", "/rowsets/people:find").
					WithBodyJson(JSON{"skip": 1, "limit": 1}).Do()
				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqual(len(resp.BodyJson().([]interface{})), 1)
				biff.AssertEqualJson(resp.BodyJson().([]interface{})[0].(JSON)["row"], 2)
			})

			a.Alternative("Update, delete and undo", func(a *biff.A) {
				resp := apiRequest("POST", "/rowsets/people:update").
					WithBodyJson(JSON{"row": 1, "values": JSON{"age": 31}}).Do()
				Save(resp, "Update", ``)
				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqual(resp.BodyJson().(JSON)["status"], "updated")

				resp = apiRequest("POST", "/rowsets/people:delete").
					WithBodyJson(JSON{"row": 2}).Do()
				Save(resp, "Delete", ``)
				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqual(resp.BodyJson().(JSON)["status"], "deleted")

				resp = apiRequest("POST", "/rowsets/people:find").
					WithBodyJson(JSON{}).Do()
				biff.AssertEqual(len(resp.BodyJson().([]interface{})), 1)

				resp = apiRequest("POST", "/rowsets/people:undo").
					WithBodyJson(JSON{"row": 1}).Do()
				Save(resp, "Undo", ``)
				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{
					"row":    1,
					"status": "unchanged",
					"values": JSON{"id": 1, "name": "alice", "age": 30},
				})

				resp = apiRequest("POST", "/rowsets/people:synchronize").Do()
				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson().(JSON)["synchronized"], 1)

				resp = apiRequest("GET", "/rowsets/people").Do()
				biff.AssertEqualJson(resp.BodyJson().(JSON)["size"], 1)
			})

			a.Alternative("Row out of range", func(a *biff.A) {
				resp := apiRequest("POST", "/rowsets/people:delete").
					WithBodyJson(JSON{"row": 9}).Do()
				biff.AssertEqual(resp.StatusCode, http.StatusBadRequest)
			})

			a.Alternative("Concurrent change", func(a *biff.A) {
				apiRequest("POST", "/rowsets").
					WithBodyJson(JSON{"name": "other", "table": "people"}).Do()
				apiRequest("POST", "/rowsets/other:update").
					WithBodyJson(JSON{"row": 1, "values": JSON{"age": 40}}).Do()
				resp := apiRequest("POST", "/rowsets/other:synchronize").Do()
				biff.AssertEqual(resp.StatusCode, http.StatusOK)

				apiRequest("POST", "/rowsets/people:update").
					WithBodyJson(JSON{"row": 1, "values": JSON{"age": 31}}).Do()
				resp = apiRequest("POST", "/rowsets/people:synchronize").Do()
				Save(resp, "Synchronize - conflict", `
					Rows changed in the backing store since they were fetched are
					reported as conflicts and keep their pending change.
				`)
				biff.AssertEqual(resp.StatusCode, http.StatusConflict)
				biff.AssertEqualJson(resp.BodyJson(), JSON{
					"synchronized": 0,
					"pending":      1,
					"conflicts": []JSON{
						{"row": 1, "kind": "update", "values": []interface{}{1, "alice", 40}, "known": true},
					},
				})
			})

			a.Alternative("Snapshot and restore", func(a *biff.A) {
				apiRequest("POST", "/rowsets/people:delete").
					WithBodyJson(JSON{"row": 2}).Do()

				resp := apiRequest("POST", "/rowsets/people:snapshot").Do()
				Save(resp, "Snapshot", ``)
				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				snapshot := resp.BodyJson()

				resp = apiRequest("POST", "/rowsets:restore").
					WithBodyJson(JSON{"name": "copy", "snapshot": snapshot}).Do()
				Save(resp, "Restore", ``)
				biff.AssertEqual(resp.StatusCode, http.StatusCreated)
				biff.AssertEqualJson(resp.BodyJson().(JSON)["pending"], 1)

				resp = apiRequest("POST", "/rowsets/copy:synchronize").Do()
				biff.AssertEqual(resp.StatusCode, http.StatusOK)

				apiRequest("POST", "/rowsets/people:drop").Do()
				resp = apiRequest("POST", "/rowsets").
					WithBodyJson(JSON{"name": "people", "table": "people"}).Do()
				biff.AssertEqualJson(resp.BodyJson().(JSON)["size"], 1)
			})

			a.Alternative("Page", func(a *biff.A) {
				resp := apiRequest("POST", "/rowsets/people:page").
					WithBodyJson(JSON{"pageSize": 1}).Do()
				Save(resp, "Page", `
					Reads the source of the row set from the backing store, one block
					at a time.
				`)
				biff.AssertEqual(resp.StatusCode, http.StatusOK)
				biff.AssertEqualJson(resp.BodyJson(), JSON{
					"page":        1,
					"offset":      0,
					"pageSize":    1,
					"hasNext":     true,
					"hasPrevious": false,
					"rows":        []JSON{{"id": 1, "name": "alice", "age": 30}},
				})

				resp = apiRequest("POST", "/rowsets/people:page").
					WithBodyJson(JSON{"move": "next"}).Do()
				biff.AssertEqualJson(resp.BodyJson().(JSON)["offset"], 1)
				biff.AssertEqualJson(resp.BodyJson().(JSON)["rows"], []JSON{{"id": 2, "name": "bob", "age": nil}})

				resp = apiRequest("POST", "/rowsets/people:page").
					WithBodyJson(JSON{"move": "previous"}).Do()
				biff.AssertEqualJson(resp.BodyJson().(JSON)["offset"], 0)
				biff.AssertEqual(resp.BodyJson().(JSON)["hasPrevious"], false)
			})
		})
	})

	a.Alternative("Row set over a missing table", func(a *biff.A) {
		resp := apiRequest("POST", "/rowsets").
			WithBodyJson(JSON{"table": "nobody"}).Do()
		biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
	})

	a.Alternative("Unknown row set", func(a *biff.A) {
		resp := apiRequest("POST", "/rowsets/nobody:find").
			WithBodyJson(JSON{}).Do()
		Save(resp, "Find - row set not found", ``)
		biff.AssertEqual(resp.StatusCode, http.StatusNotFound)
	})
}
