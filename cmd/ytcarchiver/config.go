package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"ytcarchiver/pkg/config"
	"ytcarchiver/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage archiver configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (YTCARCHIVER_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.ytcarchiver.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Run:   runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = ".ytcarchiver.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		os.Exit(1)
	}

	exampleConfig := `# YouTube Community Posts Archiver configuration
#
# All options can also be set via environment variables prefixed with
# YTCARCHIVER_, for example YTCARCHIVER_OUTPUT_DIR.

youtube:
  # Netscape cookies.txt file, needed for members-only content
  cookie_file: ""

  # User agent string (leave empty for default)
  user_agent: ""

rate_limit:
  # Requests per minute against the upstream API
  requests_per_minute: 60

  # Retry attempts for transient network failures
  max_retries: 3

output:
  # Directory the post directories are created in
  base_directory: "./posts"

  # Archive file tracking exported posts
  # (default: <base_directory>/archive.json)
  archive_file: ""

download:
  # Concurrent image downloads per post (1-10)
  concurrent_downloads: 3

  # Per-request timeout
  request_timeout: 30s

logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (empty logs to stdout only)
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file as needed")
	fmt.Println("2. Start archiving with 'ytcarchiver export --url <channel-community-url>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (YTCARCHIVER_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (auto-detected)")
	}
	fmt.Println("4. Default values")
}
