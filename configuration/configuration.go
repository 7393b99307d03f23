package configuration

type Configuration struct {
	HttpAddr          string `usage:"HTTP address"`
	Driver            string `usage:"backing store driver [memory|sqlite3|postgres]"`
	Dsn               string `usage:"data source name for the sql drivers"`
	SyncStrategy      string `usage:"default sync strategy [optimistic|overwrite]"`
	PageSize          int    `usage:"default page size"`
	MaxRowSets        int    `usage:"max open row sets, least recently used are released first"`
	EnableCompression bool   `usage:"gzip responses when the client accepts it"`
	LogLevel          string `usage:"log level [debug|info|warn|error]"`
	Version           bool   `usage:"show version and exit"`
	ShowBanner        bool   `usage:"show big banner"`
	ShowConfig        bool   `usage:"print config"`
}

func Default() Configuration {
	return Configuration{
		HttpAddr:          "127.0.0.1:8080",
		Driver:            "memory",
		Dsn:               "",
		SyncStrategy:      "optimistic",
		PageSize:          100,
		MaxRowSets:        1000,
		EnableCompression: true,
		LogLevel:          "info",
		ShowBanner:        true,
	}
}
