// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/coinselect/coinselect"
	"github.com/btcsuite/coinselect/pkg/btcunit"
	"github.com/btcsuite/coinselect/txsizes"
	"github.com/jessevdk/go-flags"
)

const (
	defaultLogLevel    = "info"
	defaultLogDirname  = "logs"
	defaultLogFilename = "coinselect.log"
	defaultFeeRate     = "1"
	defaultSweep       = sweepMajority

	defaultMaxLogFiles    = 3
	defaultMaxLogFileSize = 10

	sweepMajority = "majority"
	sweepAll      = "all"
	sweepNever    = "never"
)

var (
	defaultAppDir = btcutil.AppDataDir("coinselect", false)
	defaultLogDir = filepath.Join(defaultAppDir, defaultLogDirname)

	// errShowSubsystems is returned after the supported subsystems were
	// printed in response to --debuglevel=show.
	errShowSubsystems = errors.New("subsystems shown")
)

// config defines the configuration options for coinselect.
//
// See loadConfig for details on the configuration load process.
type config struct {
	FeeRate    string `long:"feerate" description:"Fee rate in sat/byte for requests that do not carry their own"`
	MaxTxBytes uint64 `long:"maxtxbytes" description:"Maximum estimated size in bytes of a transaction built by a sweep or break"`
	Sweep      string `long:"sweep" description:"When fee absorbing outputs turn a selection into a sweep {majority, all, never}"`
	ChangeKind string `long:"changekind" description:"Script class of coin change outputs {legacy, p2sh, bech32}"`
	AssetKind  string `long:"assetkind" description:"Script class of asset outputs {legacy, p2sh, bech32}"`
	BlobWeight string `long:"blobweight" description:"Factor applied to the size of data attached out of band, as a decimal or fraction"`

	Jobs int `short:"j" long:"jobs" description:"Number of requests evaluated concurrently"`

	DebugLevel     string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	LogDir         string `long:"logdir" description:"Directory to log output."`
	NoLogFile      bool   `long:"nologfile" description:"Only log to standard error"`
	MaxLogFiles    int    `long:"maxlogfiles" description:"Maximum logfiles to keep (0 for no rotation)"`
	MaxLogFileSize int    `long:"maxlogfilesize" description:"Maximum logfile size in MB"`

	// feeRate is the parsed default fee rate.
	feeRate btcunit.SatPerByte

	// selector is the engine config assembled from the options above.
	selector coinselect.Config
}

// defaultConfig returns all default values for the config struct.
func defaultConfig() config {
	cfg := coinselect.DefaultConfig()

	return config{
		FeeRate:        defaultFeeRate,
		MaxTxBytes:     uint64(cfg.MaxTxBytes),
		Sweep:          defaultSweep,
		ChangeKind:     cfg.ChangeKind.String(),
		AssetKind:      cfg.AssetOutputKind.String(),
		BlobWeight:     cfg.BlobWeight.String(),
		Jobs:           runtime.NumCPU(),
		DebugLevel:     defaultLogLevel,
		LogDir:         defaultLogDir,
		MaxLogFiles:    defaultMaxLogFiles,
		MaxLogFileSize: defaultMaxLogFileSize,
	}
}

// loadConfig initializes and parses the config using command line options.
// The remaining positional arguments are the request files to evaluate.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Parse CLI options and overwrite/add any specified options
//  3. Validate the options and build the engine config
//  4. Set up logging
func loadConfig(args []string) (*config, []string, error) {
	cfg := defaultConfig()

	parser := flags.NewParser(&cfg, flags.Default)
	parser.Usage = "[OPTIONS] [request.json...]"

	files, err := parser.ParseArgs(args)
	if err != nil {
		return nil, nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", supportedSubsystems())
		return nil, nil, errShowSubsystems
	}

	// The debug levels are checked before the log file is opened, so a
	// bad level never leaves a rotator behind.
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, nil, fmt.Errorf("error parsing debug level: %w",
			err)
	}

	if !cfg.NoLogFile {
		cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
		err := initLogRotator(
			filepath.Join(cfg.LogDir, defaultLogFilename),
			cfg.MaxLogFileSize, cfg.MaxLogFiles,
		)
		if err != nil {
			return nil, nil, err
		}
	}

	return &cfg, files, nil
}

// validate checks the options and assembles the engine config from them.
func (c *config) validate() error {
	var err error

	c.feeRate, err = btcunit.ParseSatPerByte(c.FeeRate)
	if err != nil {
		return fmt.Errorf("invalid --feerate: %w", err)
	}

	c.selector = coinselect.DefaultConfig()
	c.selector.MaxTxBytes = btcunit.ByteSize(c.MaxTxBytes)

	c.selector.ChangeKind, err = txsizes.ParseOutputKind(c.ChangeKind)
	if err != nil {
		return fmt.Errorf("invalid --changekind: %w", err)
	}

	c.selector.AssetOutputKind, err = txsizes.ParseOutputKind(c.AssetKind)
	if err != nil {
		return fmt.Errorf("invalid --assetkind: %w", err)
	}

	c.selector.BlobWeight, err = btcunit.ParseRate(c.BlobWeight)
	if err != nil {
		return fmt.Errorf("invalid --blobweight: %w", err)
	}

	switch strings.ToLower(c.Sweep) {
	case sweepMajority:
		c.selector.SweepPolicy = coinselect.SweepMajority

	case sweepAll:
		c.selector.SweepPolicy = coinselect.SweepAllFlagged

	case sweepNever:
		c.selector.SweepPolicy = coinselect.SweepDisabled

	default:
		return fmt.Errorf("invalid --sweep %q, want one of %s, %s, %s",
			c.Sweep, sweepMajority, sweepAll, sweepNever)
	}

	if c.Jobs < 1 {
		return fmt.Errorf("--jobs must be at least 1, got %d", c.Jobs)
	}

	return c.selector.Validate()
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if path == "" {
		return ""
	}

	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		var homeDir string
		u, err := user.Current()
		if err == nil {
			homeDir = u.HomeDir
		} else {
			homeDir = os.Getenv("HOME")
		}

		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}
