// stepsim exercises the step-timing engine from the command line.
// It builds a representative move of the selected style, prepares the
// affected drives from the object pool, iterates the step-time solver
// to completion and prints one line per step.
//
// Usage:
//
//	stepsim -move delta [options]
//
// Options:
//
//	-config string     Configuration file (optional)
//	-move string       Move style: cart, extruder or delta (default "cart")
//	-steps int         Stop after this many steps per drive (0 = run the whole move)
//	-clockrate float   Clock ticks per second for planned moves (default 1000000)
//	-diag              Keep serving diagnostics over HTTP after the run
//	-lock              Lock process memory before generating steps
//	-logfile string    Log file path (default: stderr)
//
// Examples:
//
//	# Print the step stream of a pressure-advance extruder move
//	stepsim -move extruder
//
//	# Run a delta move with configured geometry and inspect it over HTTP
//	stepsim -config printer.cfg -move delta -diag
//
// Copyright (C) 2026 Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"drivestep/pkg/config"
	"drivestep/pkg/deltageom"
	"drivestep/pkg/diag"
	"drivestep/pkg/log"
	"drivestep/pkg/realtime"
	"drivestep/pkg/stepgen"
)

func main() {
	configFile := flag.String("config", "", "Configuration file (optional)")
	moveStyle := flag.String("move", "cart", "Move style: cart, extruder or delta")
	maxSteps := flag.Int("steps", 0, "Stop after this many steps per drive (0 = whole move)")
	clockRate := flag.Float64("clockrate", 1000000.0, "Clock ticks per second for planned moves")
	serveDiag := flag.Bool("diag", false, "Keep serving diagnostics over HTTP after the run")
	lockMem := flag.Bool("lock", false, "Lock process memory before generating steps")
	logFile := flag.String("logfile", "", "Log file path (default: stderr)")
	flag.Parse()

	logger := log.GetLogger("stepsim")
	if *logFile != "" {
		fileLogger, writer, err := log.NewFileLogger("stepsim", log.RotationConfig{Filename: *logFile}, false)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			os.Exit(1)
		}
		defer writer.Close()
		log.SetDefaultLogger(fileLogger)
		logger = log.GetLogger("stepsim")
	}

	cfg := config.New()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			logger.WithError(err).Error("cannot load config %s", *configFile)
			os.Exit(1)
		}
	}

	rtOpts, err := realtime.OptionsFromConfig(cfg)
	if err != nil {
		logger.WithError(err).Error("bad [realtime] section")
		os.Exit(1)
	}
	if *lockMem {
		rtOpts.LockMemory = true
	}
	if err := realtime.Apply(rtOpts); err != nil {
		logger.WithError(err).Warn("process tuning incomplete")
	}

	tuning, err := stepgen.TuningFromConfig(cfg)
	if err != nil {
		logger.WithError(err).Error("bad [steptuning] section")
		os.Exit(1)
	}
	warmCount := 4
	if sec := cfg.Section("pool"); sec != nil {
		warmCount, err = sec.GetIntDefault("warm_count", warmCount)
		if err != nil {
			logger.WithError(err).Error("bad [pool] section")
			os.Exit(1)
		}
	}
	pool := stepgen.NewPool(tuning)
	pool.Warm(uint32(warmCount))

	mv, drives, err := buildMove(cfg, *moveStyle, *clockRate, pool)
	if err != nil {
		logger.WithError(err).Error("cannot build %s move", *moveStyle)
		os.Exit(1)
	}

	server := startDiag(cfg, *serveDiag, pool, drives, logger)

	faulted := false
	for _, dm := range drives {
		if !runDrive(dm, mv, *maxSteps, server) {
			faulted = true
		}
		fmt.Print(dm.DebugString())
	}

	if server != nil {
		logger.Info("diagnostics at /status, /debug/drives and /ws; interrupt to exit")
		waitForInterrupt()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
	for _, dm := range drives {
		pool.Release(dm)
	}
	if faulted {
		os.Exit(1)
	}
}

// buildMove constructs the selected move and prepares one drive per
// affected motor. Delta moves run the reversal solver per tower; the
// other styles prepare a single drive.
func buildMove(cfg *config.Config, style string, clockRate float64, pool *stepgen.Pool) (*stepgen.Move, []*stepgen.DriveMovement, error) {
	switch style {
	case "cart":
		mv := cartesianDemoMove()
		dm := pool.Acquire(0, stepgen.StateIdle)
		if _, err := dm.PrepareCartesianAxis(mv); err != nil {
			return nil, nil, err
		}
		return mv, []*stepgen.DriveMovement{dm}, nil

	case "extruder":
		mv := extruderDemoMove()
		dm := pool.Acquire(0, stepgen.StateIdle)
		if _, err := dm.PrepareExtruder(mv, 500.0, 0.0); err != nil {
			return nil, nil, err
		}
		return mv, []*stepgen.DriveMovement{dm}, nil

	case "delta":
		geom, err := deltaGeometry(cfg)
		if err != nil {
			return nil, nil, err
		}
		planner := deltageom.NewPlanner(geom, clockRate)
		mv, err := planner.PlanMove(deltageom.MoveSpec{
			Start: [3]float64{-40.0, 0.0, 20.0},
			End:   [3]float64{40.0, 30.0, 20.0},
			Speed: 100.0,
			Accel: 1000.0,
		})
		if err != nil {
			return nil, nil, err
		}
		drives := make([]*stepgen.DriveMovement, 3)
		for tower := 0; tower < 3; tower++ {
			dm := pool.Acquire(uint8(tower), stepgen.StateIdle)
			if _, err := dm.PrepareDelta(mv); err != nil {
				return nil, nil, err
			}
			drives[tower] = dm
		}
		return mv, drives, nil
	}
	return nil, nil, fmt.Errorf("unknown move style %q", style)
}

// cartesianDemoMove is a 90mm X-axis trapezoid at 20mm/s with
// 10mm/s² ramps, on a 1kHz clock for readable tick numbers.
func cartesianDemoMove() *stepgen.Move {
	head := stepgen.NewAccelSegment(20.0, 2000.0, 0.0, 1e-5)
	head.Append(stepgen.NewLinearSegment(50.0, 2500.0)).
		Append(stepgen.NewDecelSegment(20.0, 2000.0, 0.02, 1e-5))
	return &stepgen.Move{
		DirectionVector: []float64{1.0, 0.0, 0.0},
		TotalDistance:   90.0,
		ClocksNeeded:    6500,
		AxisSegments:    head,
		StepsPerMM:      []float64{100.0},
		TotalSteps:      []uint32{9000},
	}
}

// extruderDemoMove decelerates hard enough that pressure advance pulls
// the filament back, exercising the direction-reversal phase.
func extruderDemoMove() *stepgen.Move {
	head := stepgen.NewAccelSegment(800.0, 40000.0, 0.0, 1e-6)
	head.Append(stepgen.NewDecelSegment(400.0, 20000.0, 0.04, 2e-6)).
		Append(stepgen.NewReverseSegment(50.0, 10000.0, 0.0, 1e-6))
	return &stepgen.Move{
		DirectionVector:  []float64{1.0},
		TotalDistance:    1250.0,
		ClocksNeeded:     70000,
		ExtruderSegments: head,
		StepsPerMM:       []float64{1.0},
		TotalSteps:       []uint32{1250},
	}
}

func deltaGeometry(cfg *config.Config) (*deltageom.Geometry, error) {
	if cfg.HasSection("delta") {
		return deltageom.FromConfig(cfg)
	}
	return deltageom.New(deltageom.Params{
		Radius:     140.0,
		ArmLengths: [3]float64{250.0, 250.0, 250.0},
		StepsPerMM: [3]float64{80.0, 80.0, 80.0},
	})
}

// runDrive iterates the solver to the end of the move (or the step
// cap), printing one line per step. Returns false when the drive ends
// in the fault state.
func runDrive(dm *stepgen.DriveMovement, mv *stepgen.Move, maxSteps int, server *diag.Server) bool {
	prevTime := uint32(0)
	step := 0
	for {
		dir := 'B'
		if dm.Direction() {
			dir = 'F'
		}
		fmt.Printf("drive=%d step=%6d dir=%c clock=%10d interval=%8d\n",
			dm.Drive(), dm.NextStep(), dir, dm.NextStepTime(), dm.NextStepTime()-prevTime)
		if server != nil {
			server.Intervals().Record(dm.NextStepTime() - prevTime)
		}
		prevTime = dm.NextStepTime()
		step++
		if maxSteps > 0 && step >= maxSteps {
			return true
		}
		if !dm.CalcNextStepTime(mv) {
			break
		}
	}
	return dm.State() != stepgen.StateStepError
}

// startDiag brings up the diagnostic HTTP server when enabled by flag
// or config. Returns nil when disabled.
func startDiag(cfg *config.Config, flagEnabled bool, pool *stepgen.Pool, drives []*stepgen.DriveMovement, logger *log.Logger) *diag.Server {
	opts, cfgEnabled, err := diag.OptionsFromConfig(cfg)
	if err != nil {
		logger.WithError(err).Error("bad [diag] section")
		os.Exit(1)
	}
	if !flagEnabled && !cfgEnabled {
		return nil
	}
	server := diag.NewServer(opts, func() []stepgen.Snapshot {
		snaps := make([]stepgen.Snapshot, len(drives))
		for i, dm := range drives {
			snaps[i] = dm.TakeSnapshot()
		}
		return snaps
	})
	server.AddStatusSection("pool", pool.Status)
	go func() {
		if err := server.Start(); err != nil {
			logger.WithError(err).Error("diagnostic server failed")
		}
	}()
	return server
}

func waitForInterrupt() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}
