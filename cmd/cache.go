package cmd

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/atessier/docport/internal/cache"
	"github.com/atessier/docport/internal/config"
	"github.com/spf13/cobra"
)

var expiredOnly bool

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Clear the rendered-document cache",
	Run:   runClearCache,
}

func init() {
	clearCacheCmd.Flags().BoolVar(&expiredOnly, "expired", false, "only remove expired entries")
}

func runClearCache(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	setupLogging(cfg)

	if !expiredOnly {
		if err := os.RemoveAll(cacheDBDir(cfg)); err != nil {
			log.Fatalf("removing cache: %v", err)
		}
		fmt.Println("document cache cleared")
		return
	}

	store, err := cache.OpenLevelStore(cacheDBDir(cfg))
	if err != nil {
		log.Fatalf("opening cache: %v", err)
	}
	defer store.Close()

	purged := cache.New(store, time.Duration(cfg.CacheTTL)*time.Second).PurgeExpired()
	fmt.Printf("purged %d expired entries\n", purged)
}
