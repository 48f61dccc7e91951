package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/voltwrench/faultbot/pkg/schema"
)

var validateCmd = &cobra.Command{
	Use:   "validate [pack.yaml | pack directory]",
	Short: "Validate fault packs against the schema and domain rules",
	Long: `Validates pack YAML in three phases: structural (strict YAML decode),
semantic (JSON schema) and domain (tree reachability, route targets, option
guards). Given a directory, all packs are validated together so cross-pack
routes are checked too.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}

	var files []string
	if info.IsDir() {
		for _, m := range schema.Manufacturers() {
			p := filepath.Join(args[0], string(m)+".yaml")
			if _, err := os.Stat(p); err == nil {
				files = append(files, p)
			}
		}
		if len(files) == 0 {
			return fmt.Errorf("no <manufacturer>.yaml packs in %s", args[0])
		}
	} else {
		files = []string{args[0]}
	}

	loaded := map[schema.Manufacturer]*schema.Pack{}
	var errCount, warnCount int
	for _, f := range files {
		pack, findings := schema.ValidateFile(f)
		e, w := report(f, findings)
		errCount += e
		warnCount += w
		if pack != nil {
			loaded[pack.Manufacturer] = pack
		}
	}

	if len(loaded) > 1 {
		e, w := report("cross-pack routes", schema.CrossCheckRoutes(loaded))
		errCount += e
		warnCount += w
	}

	if errCount > 0 {
		return fmt.Errorf("validation failed: %d error(s), %d warning(s)", errCount, warnCount)
	}
	fmt.Printf("✓ %d pack(s) valid (%d warning(s))\n", len(loaded), warnCount)
	return nil
}

func report(source string, findings []*schema.ValidationError) (errs, warns int) {
	for _, f := range findings {
		mark := "✗"
		if f.Severity == "warning" {
			mark = "⚠"
			warns++
		} else {
			errs++
		}
		fmt.Fprintf(os.Stderr, "  %s [%s] %s: %s\n", mark, f.Phase, source, f.Message)
		if f.Path != "" {
			fmt.Fprintf(os.Stderr, "    at: %s\n", f.Path)
		}
	}
	return errs, warns
}
