package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"expose/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Drop cached check results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cache, err := driver.OpenDiskCache("expose")
		if err != nil {
			return fmt.Errorf("failed to open disk cache: %w", err)
		}
		if err := cache.DropAll(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(cmd.OutOrStdout(), "cache already empty")
				return nil
			}
			return fmt.Errorf("failed to drop cache: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "cache dropped")
		return nil
	},
}
