// Command rv32sim runs the lockstep RV32I simulator over one test case and
// writes its trace files under results/<testcase>/.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rv32lockstep/sim/pkg/driver"
	"github.com/spf13/cobra"
)

func main() {
	var iodir string

	rootCmd := &cobra.Command{
		Use:   "rv32sim",
		Short: "Lockstep single-stage / five-stage RV32I cycle simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			if iodir == "" {
				return fmt.Errorf("rv32sim: --iodir is required")
			}

			testcase := filepath.Base(filepath.Clean(iodir))
			outDir := filepath.Join("results", testcase)
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("rv32sim: creating %s: %w", outDir, err)
			}

			if err := driver.Run(iodir, outDir); err != nil {
				return fmt.Errorf("rv32sim: %w", err)
			}
			fmt.Printf("rv32sim: wrote results for %q to %s\n", testcase, outDir)
			return nil
		},
	}
	rootCmd.Flags().StringVar(&iodir, "iodir", "", "directory containing imem.txt and dmem.txt")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
