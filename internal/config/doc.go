// Package config provides configuration management for the SPARQL proxy.
//
// Configuration is loaded once at startup from environment variables using the
// env package. The resulting Config is never mutated afterwards and is passed
// explicitly to every component that needs it.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
