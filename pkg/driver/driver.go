// Package driver wires together the shared instruction memory, the two
// private data memories, the single-stage and five-stage cores, and their
// trace writers, and runs both cores to completion in lockstep.
package driver

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rv32lockstep/sim/pkg/fs"
	"github.com/rv32lockstep/sim/pkg/mem"
	"github.com/rv32lockstep/sim/pkg/ss"
	"github.com/rv32lockstep/sim/pkg/trace"
)

// Run loads imem.txt/dmem.txt from iodir, runs both cores to completion,
// and writes every output file under outDir.
func Run(iodir, outDir string) error {
	im, err := mem.LoadIMEM(filepath.Join(iodir, "imem.txt"))
	if err != nil {
		return fmt.Errorf("driver: loading instruction memory: %w", err)
	}

	ssDM, err := mem.LoadDMEM(filepath.Join(iodir, "dmem.txt"))
	if err != nil {
		return fmt.Errorf("driver: loading single-stage data memory: %w", err)
	}
	fsDM, err := mem.LoadDMEM(filepath.Join(iodir, "dmem.txt"))
	if err != nil {
		return fmt.Errorf("driver: loading five-stage data memory: %w", err)
	}

	ssRFW, err := trace.CreateRFWriter(filepath.Join(outDir, "SS_RFResult.txt"))
	if err != nil {
		return err
	}
	defer ssRFW.Close()
	ssSW, err := trace.CreateStateWriter(filepath.Join(outDir, "StateResult_SS.txt"))
	if err != nil {
		return err
	}
	defer ssSW.Close()

	fsRFW, err := trace.CreateRFWriter(filepath.Join(outDir, "FS_RFResult.txt"))
	if err != nil {
		return err
	}
	defer fsRFW.Close()
	fsSW, err := trace.CreateStateWriter(filepath.Join(outDir, "StateResult_FS.txt"))
	if err != nil {
		return err
	}
	defer fsSW.Close()

	ssCore := ss.New(im, ssDM, ssRFW, ssSW)
	fsCore := fs.New(im, fsDM, fsRFW, fsSW)

	if err := ssCore.WriteInitialRF(); err != nil {
		return fmt.Errorf("driver: writing initial single-stage RF snapshot: %w", err)
	}
	if err := fsCore.WriteInitialRF(); err != nil {
		return fmt.Errorf("driver: writing initial five-stage RF snapshot: %w", err)
	}

	for !ssCore.Halted() || !fsCore.Halted() {
		if !ssCore.Halted() {
			if err := ssCore.Step(); err != nil {
				return fmt.Errorf("driver: single-stage core: %w", err)
			}
		}
		if !fsCore.Halted() {
			if err := fsCore.Step(); err != nil {
				return fmt.Errorf("driver: five-stage core: %w", err)
			}
		}
	}

	ssDMEMFile, err := os.Create(filepath.Join(outDir, "SS_DMEMResult.txt"))
	if err != nil {
		return fmt.Errorf("driver: creating SS_DMEMResult.txt: %w", err)
	}
	defer ssDMEMFile.Close()
	if err := ssCore.DM().Dump(ssDMEMFile); err != nil {
		return fmt.Errorf("driver: writing single-stage DMEM dump: %w", err)
	}

	fsDMEMFile, err := os.Create(filepath.Join(outDir, "FS_DMEMResult.txt"))
	if err != nil {
		return fmt.Errorf("driver: creating FS_DMEMResult.txt: %w", err)
	}
	defer fsDMEMFile.Close()
	if err := fsCore.DM().Dump(fsDMEMFile); err != nil {
		return fmt.Errorf("driver: writing five-stage DMEM dump: %w", err)
	}

	ssMetrics := trace.Metrics{Cycles: ssCore.Cycle(), Instructions: ssCore.Retired()}
	fsMetrics := trace.Metrics{Cycles: fsCore.Cycle(), Instructions: fsCore.Retired()}
	if err := trace.WriteMetrics(filepath.Join(outDir, "PerformanceMetrics.txt"), ssMetrics, fsMetrics); err != nil {
		return fmt.Errorf("driver: writing performance metrics: %w", err)
	}
	return nil
}
