package cmd

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"
)

var tocCmd = &cobra.Command{
	Use:   "toc <doc-index>",
	Short: "Print a documentation site's table of contents",
	Args:  cobra.ExactArgs(1),
	Run:   runTOC,
}

func runTOC(cmd *cobra.Command, args []string) {
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("doc-index must be an integer: %v", err)
	}

	a, err := newApp()
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer a.close()

	entries, err := a.service.GetTOC(context.Background(), idx)
	if err != nil {
		log.Fatalf("fetching table of contents: %v", err)
	}
	for _, e := range entries {
		fmt.Printf("%s\t%s\n", e.URL, e.Title)
	}
}
