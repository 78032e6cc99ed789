// Command migrate_stv applies a one-time SevenTV emote id remap to every
// stored slot and swap-emote row, recording each migration so re-running
// the command is a no-op for rows already migrated.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nerix-tools/redemptiond/internal/config"
	"github.com/nerix-tools/redemptiond/internal/store"
)

func main() {
	var dryRun bool

	root := &cobra.Command{
		Use:   "migrate_stv",
		Short: "Remap legacy SevenTV emote ids across stored slots and swap history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			remap := cfg.IDRemap[string(store.PlatformSevenTV)]
			if len(remap) == 0 {
				fmt.Println("no seventv entries in ID_REMAP, nothing to do")
				return nil
			}

			db, err := store.Open(cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer db.Close()

			return run(db, remap, dryRun)
		},
	}
	root.Flags().BoolVar(&dryRun, "dry-run", false, "report what would change without writing")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(db *store.DB, remap map[string]string, dryRun bool) error {
	slots, err := db.ListSlotsByPlatform(store.PlatformSevenTV)
	if err != nil {
		return fmt.Errorf("listing seventv slots: %w", err)
	}
	for _, slot := range slots {
		if slot.EmoteID == nil {
			continue
		}
		newID, ok := remap[*slot.EmoteID]
		if !ok {
			continue
		}
		if err := migrateOne(db, *slot.EmoteID, newID, dryRun); err != nil {
			return err
		}
		if dryRun {
			fmt.Printf("slot %d: %s -> %s\n", slot.ID, *slot.EmoteID, newID)
			continue
		}
		if err := db.RemapSlotEmoteID(slot.ID, newID); err != nil {
			return fmt.Errorf("remapping slot %d: %w", slot.ID, err)
		}
	}

	swaps, err := db.ListSwapEmotesByPlatform(store.PlatformSevenTV)
	if err != nil {
		return fmt.Errorf("listing seventv swap emotes: %w", err)
	}
	for _, swap := range swaps {
		newID, ok := remap[swap.EmoteID]
		if !ok {
			continue
		}
		if err := migrateOne(db, swap.EmoteID, newID, dryRun); err != nil {
			return err
		}
		if dryRun {
			fmt.Printf("swap emote %d: %s -> %s\n", swap.ID, swap.EmoteID, newID)
			continue
		}
		if err := db.RemapSwapEmoteID(swap.ID, newID); err != nil {
			return fmt.Errorf("remapping swap emote %d: %w", swap.ID, err)
		}
	}
	return nil
}

// migrateOne records the migration so a subsequent run skips ids
// already handled; a dry run records nothing.
func migrateOne(db *store.DB, oldID, newID string, dryRun bool) error {
	if dryRun {
		return nil
	}
	already, err := db.IsSevenTVIDMigrated(oldID)
	if err != nil {
		return fmt.Errorf("checking migration state for %s: %w", oldID, err)
	}
	if already {
		return nil
	}
	return db.RecordSevenTVIDMigration(oldID, newID)
}
