package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fulldump/goconfig"
	log "github.com/sirupsen/logrus"

	"github.com/fulldump/rowsetdb/bootstrap"
	"github.com/fulldump/rowsetdb/configuration"
)

var banner = `
  ____                        _   ____  ____  
 |  _ \ _____      _____  ___| |_|  _ \| __ ) 
 | |_) / _ \ \ /\ / / __|/ _ \ __| | | |  _ \ 
 |  _ < (_) \ V  V /\__ \  __/ |_| |_| | |_) |
 |_| \_\___/ \_/\_/ |___/\___|\__|____/|____/ 
                              version ` + bootstrap.VERSION + `
`

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", bootstrap.VERSION)
		return
	}

	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("log level")
	}
	log.SetLevel(level)

	if c.ShowBanner {
		fmt.Println(banner)
	}

	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "    ")
		e.Encode(c)
	}

	start, _ := bootstrap.Bootstrap(&c)
	start()
}
