package cmd

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/spf13/cobra"
)

var pageCmd = &cobra.Command{
	Use:   "page <doc-index> <url>",
	Short: "Fetch a documentation page and print it as markdown",
	Args:  cobra.ExactArgs(2),
	Run:   runPage,
}

func runPage(cmd *cobra.Command, args []string) {
	idx, err := strconv.Atoi(args[0])
	if err != nil {
		log.Fatalf("doc-index must be an integer: %v", err)
	}

	a, err := newApp()
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer a.close()

	content, err := a.service.GetPage(context.Background(), idx, args[1])
	if err != nil {
		log.Fatalf("fetching page: %v", err)
	}
	fmt.Println(content)
}
