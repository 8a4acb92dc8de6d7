// Command rv32cmp diffs a results directory against a sample-output
// directory, line by line, reporting mismatched trace files.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rv32lockstep/sim/pkg/cmp"
	"github.com/spf13/cobra"
)

func main() {
	var resultsDir, sampleDir string
	var resultsRoot, sampleRoot, testcase string
	var maxDiffsPerFile int
	var workers int

	rootCmd := &cobra.Command{
		Use:   "rv32cmp",
		Short: "Compare simulator results against sample outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			left := resultsDir
			if left == "" {
				left = filepath.Join(resultsRoot, testcase)
			}
			right := sampleDir
			if right == "" {
				right = filepath.Join(sampleRoot, testcase)
			}

			if fi, err := os.Stat(left); err != nil || !fi.IsDir() {
				fmt.Fprintf(os.Stderr, "rv32cmp: results directory not found: %s\n", left)
				os.Exit(2)
			}
			if fi, err := os.Stat(right); err != nil || !fi.IsDir() {
				fmt.Fprintf(os.Stderr, "rv32cmp: sample directory not found: %s\n", right)
				os.Exit(2)
			}

			fmt.Printf("Comparing\n  results: %s\n  sample : %s\n\n", left, right)

			diff, err := cmp.CompareDirs(left, right, workers)
			if err != nil {
				return fmt.Errorf("rv32cmp: %w", err)
			}
			report(diff, maxDiffsPerFile)

			if diff.Mismatched() {
				return fmt.Errorf("rv32cmp: results do not match sample output")
			}
			return nil
		},
	}

	rootCmd.Flags().StringVar(&resultsDir, "results-dir", "", "path to the results testcase directory")
	rootCmd.Flags().StringVar(&sampleDir, "sample-dir", "", "path to the sample-output testcase directory")
	rootCmd.Flags().StringVar(&resultsRoot, "results-root", filepath.Join("results"), "root folder containing results per testcase")
	rootCmd.Flags().StringVar(&sampleRoot, "sample-root", filepath.Join("sample_output"), "root folder containing sample outputs per testcase")
	rootCmd.Flags().StringVar(&testcase, "testcase", "testcase0", "testcase folder name under the roots")
	rootCmd.Flags().IntVar(&maxDiffsPerFile, "max-diffs-per-file", 10, "limit of differing lines to display per file")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "number of diff workers (0 = NumCPU)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func report(d cmp.DirDiff, maxDiffs int) {
	if len(d.OnlyInLeft) > 0 {
		fmt.Println("Files only in results:")
		for _, f := range d.OnlyInLeft {
			fmt.Printf("  %s\n", f)
		}
		fmt.Println()
	}
	if len(d.OnlyInRight) > 0 {
		fmt.Println("Files only in sample_output:")
		for _, f := range d.OnlyInRight {
			fmt.Printf("  %s\n", f)
		}
		fmt.Println()
	}

	for _, fr := range d.Files {
		if fr.Err != nil {
			fmt.Printf("[ERROR] Failed reading %s: %v\n", fr.Name, fr.Err)
			continue
		}
		if len(fr.Diffs) == 0 {
			fmt.Printf("[OK] %s\n", fr.Name)
			continue
		}
		fmt.Printf("[DIFF] %s - %d differing line(s)\n", fr.Name, len(fr.Diffs))
		shown := fr.Diffs
		if len(shown) > maxDiffs {
			shown = shown[:maxDiffs]
		}
		for _, ld := range shown {
			fmt.Printf("  L%d:\n", ld.Line)
			fmt.Printf("    results: %s\n", ld.Left)
			fmt.Printf("    sample : %s\n", ld.Right)
		}
		if len(fr.Diffs) > maxDiffs {
			fmt.Printf("  ... and %d more differing line(s)\n", len(fr.Diffs)-maxDiffs)
		}
		fmt.Println()
	}

	if !d.Mismatched() {
		fmt.Println("All files match.")
	}
}
