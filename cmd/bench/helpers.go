package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/fulldump/rowsetdb/bootstrap"
	"github.com/fulldump/rowsetdb/configuration"
)

type JSON = map[string]any

var client = &http.Client{
	Transport: &http.Transport{
		MaxConnsPerHost:     1024,
		MaxIdleConnsPerHost: 1024,
		MaxIdleConns:        1024,
	},
}

func Parallel(workers int, f func()) {
	wg := &sync.WaitGroup{}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f()
		}()
	}
	wg.Wait()
}

// Post sends body as JSON and fails hard on anything but a 2xx.
func Post(url string, body any) []byte {
	payload, _ := json.Marshal(body)
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.WithError(err).Fatal("post " + url)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode/100 != 2 {
		log.Fatalf("post %s: %s %s", url, resp.Status, data)
	}
	return data
}

// CreateRowSet creates a fresh table and a row set over it.
func CreateRowSet(base string) string {
	name := "bench-" + strconv.FormatInt(time.Now().UnixNano(), 10)

	Post(base+"/v1/tables", JSON{
		"name": name,
		"columns": []JSON{
			{"name": "id", "type": "integer", "key": true},
			{"name": "n", "type": "string"},
		},
	})
	Post(base+"/v1/rowsets", JSON{"name": name, "table": name})

	return name
}

func CreateServer(c *Config) (start, stop func()) {
	conf := configuration.Default()
	conf.HttpAddr = "127.0.0.1:18080"
	conf.EnableCompression = false
	log.SetLevel(log.WarnLevel)
	c.Base = "http://" + conf.HttpAddr

	return bootstrap.Bootstrap(&conf)
}

func WaitReady(base string) {
	for i := 0; i < 100; i++ {
		resp, err := client.Get(base + "/v1/rowsets")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	fmt.Println("server not ready")
}
