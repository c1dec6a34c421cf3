package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var indexWatch bool

var indexCmd = &cobra.Command{
	Use:   "index [dir]",
	Short: "Sync a documentation directory into the vector index",
	Long: `Walk a directory of .md, .txt and .pdf files and sync it into the vector
index: new and changed files are embedded, unchanged ones skipped and deleted
ones removed. Defaults to INDEX_PATH.

Examples:
  docchat index ./docs
  docchat index ./docs --watch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "keep running and re-index on changes")
}

func runIndex(cmd *cobra.Command, args []string) error {
	dir := cfg.IndexPath
	if len(args) == 1 {
		dir = args[0]
	}
	if dir == "" {
		return fmt.Errorf("no directory given and INDEX_PATH is not set")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, _, indexer, closeStore, err := openIndex(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	report, err := indexer.ScanAndIndexDirectory(ctx, dir)
	if err != nil {
		return err
	}
	fmt.Printf("Indexed %d, unchanged %d, removed %d, failed %d\n",
		report.Indexed, report.Unchanged, report.Removed, report.Failed)

	if indexWatch {
		fmt.Printf("Watching %s (Ctrl-C to stop)\n", dir)
		return indexer.WatchDirectory(ctx, dir)
	}
	return nil
}
