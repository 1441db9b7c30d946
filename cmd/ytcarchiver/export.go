package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"ytcarchiver/pkg/archiver"
	"ytcarchiver/pkg/config"
	"ytcarchiver/pkg/logger"
	"ytcarchiver/pkg/ui"
)

var (
	// Export command flags
	channelURL  string
	postsFile   string
	outputDir   string
	archiveFile string
	cookieFile  string
	concurrent  int
	rateLimit   int
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export community posts from a channel or post id list",
	Long: `Export community posts to disk.

Posts come from a channel's community feed (--url) and/or from a file
listing post ids or direct post URLs (--post-ids-file). At least one
of the two is required.

Each new post gets its own directory containing post.txt, post.json
and any attached images. The archive file records exported posts so
re-running the command only exports what is new.`,
	Example: `  # Archive a channel's community feed
  ytcarchiver export --url https://www.youtube.com/@channel/community --output ./posts

  # Export specific posts by id
  ytcarchiver export --post-ids-file ids.txt --output ./posts

  # Include members-only posts using browser cookies
  ytcarchiver export --url https://www.youtube.com/@channel/community \
    --output ./posts --cookie-file cookies.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		runExport()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&channelURL, "url", "u", "", "channel community feed URL")
	exportCmd.Flags().StringVarP(&postsFile, "post-ids-file", "p", "", "file containing post ids or URLs, one per line")
	exportCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for exported posts")
	exportCmd.Flags().StringVarP(&archiveFile, "archive-file", "a", "", "archive json file (default: <output>/archive.json)")
	exportCmd.Flags().StringVar(&cookieFile, "cookie-file", "", "Netscape cookies.txt file for members-only content")
	exportCmd.Flags().IntVar(&concurrent, "concurrent", 3, "number of concurrent image downloads")
	exportCmd.Flags().IntVar(&rateLimit, "rate-limit", 60, "requests per minute")
}

func runExport() {
	if channelURL == "" && postsFile == "" {
		ui.PrintError("At least one of '--url' or '--post-ids-file' is required")
		os.Exit(1)
	}

	flags := make(map[string]interface{})
	if cookieFile != "" {
		flags["cookie-file"] = cookieFile
	}
	if outputDir != "" {
		flags["output"] = outputDir
	}
	if archiveFile != "" {
		flags["archive-file"] = archiveFile
	}
	if concurrent != 3 {
		flags["concurrent"] = concurrent
	}
	if rateLimit != 60 {
		flags["rate-limit"] = rateLimit
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	logger.Initialize(&cfg.Logging)
	logger.WithField("version", version).Info("archiver starting")

	var postIDs []string
	if postsFile != "" {
		postIDs, err = loadPostsFile(postsFile)
		if err != nil {
			logger.WithError(err).Warn("post ids file could not be read")
			ui.PrintWarning("Post ids file could not be read", postsFile)
		}
	}

	a, err := archiver.New(cfg)
	if err != nil {
		ui.PrintError("Failed to initialize archiver", err.Error())
		os.Exit(1)
	}

	stats, err := a.Run(channelURL, postIDs)
	if err != nil {
		logger.WithError(err).Error("export failed")
		ui.PrintError("Export failed", err.Error())
		os.Exit(1)
	}

	logger.WithFields(map[string]interface{}{
		"total":    stats.Total,
		"exported": stats.Exported,
		"skipped":  stats.Skipped,
		"failed":   stats.Failed,
	}).Info("export finished")

	ui.PrintSuccess(fmt.Sprintf("Done: %d exported, %d skipped, %d failed",
		stats.Exported, stats.Skipped, stats.Failed))
}

// loadPostsFile reads post ids or URLs, one per line, skipping blanks
func loadPostsFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, line := range strings.Split(string(content), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			ids = append(ids, line)
		}
	}

	return ids, nil
}
