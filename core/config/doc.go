// Package config loads application settings.
//
// Values come from environment variables, optionally seeded from a .env file,
// with defaults taken from each field's `default` tag. Nested keys map to
// upper-case env names joined by underscores: storage.bucket is STORAGE_BUCKET.
//
// # Sections
//
//   - server: HTTP port and API key
//   - log: level and format
//   - database: catalog connection (mysql or sqlite)
//   - storage: bucket endpoint and credentials
//   - ledger: upload ledger file
//   - upload: concurrency, attempts and retry delay
//   - export: output root, project, converter tools and option defaults
//   - sync: reconciliation interval and listing cache TTL
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Storage.Bucket)
package config
