package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the configured documentation sites",
	Run:   runSites,
}

func runSites(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer a.close()

	sites := a.service.ListDocumentation()
	if len(sites) == 0 {
		fmt.Println("no documentation sites configured (set DOCPORT_DOCUMENTATION_URLS)")
		return
	}
	for _, s := range sites {
		fmt.Printf("%3d  %-24s %s\n", s.Index, s.Name, s.URL)
	}
}
