package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voltwrench/faultbot/pkg/packs"
	"github.com/voltwrench/faultbot/pkg/preview"
	"github.com/voltwrench/faultbot/pkg/schema"
)

var previewPackDir string

var previewCmd = &cobra.Command{
	Use:   "preview <manufacturer>",
	Short: "Walk a pack's decision trees in the terminal",
	Long: `Opens an interactive terminal walkthrough of one manufacturer's fault
trees, with the same option guards and route handling the bot applies.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

var packsCmd = &cobra.Command{
	Use:   "packs",
	Short: "List loaded packs and their fault counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		repo := packs.NewRepository(previewPackDir, logger)
		for _, m := range schema.Manufacturers() {
			p := repo.Pack(m)
			trees := 0
			for _, f := range p.Faults {
				if f.Tree != nil {
					trees++
				}
			}
			cmd.Printf("%-12s %3d faults, %3d with trees\n", m, len(p.Faults), trees)
		}
		return nil
	},
}

func init() {
	previewCmd.Flags().StringVar(&previewPackDir, "packs", envOr("FAULTBOT_PACK_DIR", "packs"), "pack directory")
	packsCmd.Flags().StringVar(&previewPackDir, "packs", envOr("FAULTBOT_PACK_DIR", "packs"), "pack directory")
	rootCmd.AddCommand(previewCmd, packsCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	m, ok := schema.ParseManufacturer(args[0])
	if !ok {
		return fmt.Errorf("unknown manufacturer %q (one of %v)", args[0], schema.Manufacturers())
	}

	repo := packs.NewRepository(previewPackDir, logger)
	pack := repo.Pack(m)
	if len(pack.Faults) == 0 {
		return fmt.Errorf("no faults loaded for %s from %s", m, previewPackDir)
	}
	return preview.Run(repo, pack)
}
