package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fulldump/goconfig"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Test    string `usage:"name of the test: ALL | INSERT | SYNC"`
	Base    string `usage:"base URL, an embedded server is started when empty"`
	N       int64  `usage:"number of rows"`
	Workers int    `usage:"number of workers"`
}

func main() {

	c := Config{
		Test:    "ALL",
		Base:    "",
		N:       100_000,
		Workers: 16,
	}
	goconfig.Read(&c)

	if c.Base == "" {
		start, stop := CreateServer(&c)
		defer stop()
		go start()
		WaitReady(c.Base)
	}

	switch strings.ToUpper(c.Test) {
	case "ALL":
		TestInsert(c)
		TestSync(c)
	case "INSERT":
		TestInsert(c)
	case "SYNC":
		TestSync(c)
	default:
		log.Fatalf("Unknown test %s", c.Test)
	}
}

func report(name string, n int64, took time.Duration) {
	fmt.Printf("%s: %d rows, %.2f rows/sec\n", name, n, float64(n)/took.Seconds())
}
