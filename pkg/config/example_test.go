package config_test

import (
	"fmt"
	"log"

	"github.com/stratoseis/dasio/pkg/config"
)

// ExampleNewConfig demonstrates creating a new configuration
// with default values.
func ExampleNewConfig() {
	cfg := config.NewConfig()

	// The configuration comes with working defaults
	fmt.Printf("Log Level: %s\n", cfg.Logging.Level)
	fmt.Printf("Encoding: %s\n", cfg.Logging.Encoding)
	fmt.Printf("Metrics Listen: %s\n", cfg.Metrics.Listen)

	// Output:
	// Log Level: info
	// Encoding: json
	// Metrics Listen: :9090
}

// ExampleConfig_Validate shows how to validate a configuration
// before using it.
func ExampleConfig_Validate() {
	cfg := config.NewConfig()

	// Modify some values
	cfg.Logging.Level = "debug"
	cfg.Read.Aliases["das"] = "h5"

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("Configuration is valid!")

	// Output:
	// Configuration is valid!
}

// ExampleLoadFile demonstrates loading configuration from a YAML file
// with environment variable substitution.
func ExampleLoadFile() {
	// In practice, you would load from a file:
	// cfg, err := config.LoadFile("dasio.yaml")
	// if err != nil {
	//     log.Fatal(err)
	// }

	// For this example, we'll create one manually
	cfg := config.NewConfig()
	cfg.Read.MetadataOnly = true
	cfg.Read.Aliases["iq"] = "npy"

	fmt.Printf("Metadata Only: %v\n", cfg.Read.MetadataOnly)
	fmt.Printf("Alias iq -> %s\n", cfg.Read.Aliases["iq"])

	// Output:
	// Metadata Only: true
	// Alias iq -> npy
}
