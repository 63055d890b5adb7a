package main

import "strings"

type Settings struct {
	Port        int    `env:"PORT,default=8000"`
	BasePath    string `env:"BASE_PATH,default=/chatrelay"`
	LogEncoding string `env:"LOG_ENCODING,default=console"`

	StorageDriver   string `env:"STORAGE_DRIVER,default=memory"`
	MongoDBURI      string `env:"MONGODB_URI,default=mongodb://localhost:27017"`
	MongoDBDatabase string `env:"MONGODB_DATABASE,default=chatrelay"`
	SQLitePath      string `env:"SQLITE_PATH,default=chatrelay.db"`

	DispatchConcurrency int    `env:"DISPATCH_CONCURRENCY,default=16"`
	AppendMaxAttempts   int    `env:"APPEND_MAX_ATTEMPTS,default=8"`
	RecentLimit         int    `env:"RECENT_LIMIT,default=10"`
	AllowedOrigins      string `env:"ALLOWED_ORIGINS"`
}

func (s Settings) AllowedOriginList() []string {
	if s.AllowedOrigins == "" {
		return nil
	}

	return strings.Split(s.AllowedOrigins, ",")
}
