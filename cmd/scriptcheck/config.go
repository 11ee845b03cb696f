// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcscript/internal/log"
	"github.com/btcsuite/btcscript/internal/version"
	"github.com/btcsuite/btcscript/txscript"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultLogLevel    = "info"
	defaultLogFilename = "scriptcheck.log"
	defaultScriptFlags = "STANDARD"
)

var (
	scriptcheckHomeDir = btcutil.AppDataDir("scriptcheck", false)
	defaultLogDir      = filepath.Join(scriptcheckHomeDir, "logs")
)

// config defines the configuration options for scriptcheck.
//
// See loadConfig for details on the configuration load process.
type config struct {
	Tx          string  `short:"t" long:"tx" description:"Raw transaction in hex whose input is checked"`
	Input       int     `short:"i" long:"input" description:"Index of the input to check"`
	PkScript    string  `short:"p" long:"pkscript" description:"Hex public key script of the output spent by the input"`
	Amount      float64 `short:"a" long:"amount" description:"Value in BTC of the output spent by the input"`
	Flags       string  `short:"f" long:"flags" description:"Comma separated verification flags, or STANDARD, MANDATORY or NONE"`
	Combine     string  `short:"c" long:"combine" description:"Second raw transaction in hex whose signatures for the input are merged with --tx"`
	Disasm      bool    `long:"disasm" description:"Print the disassembly of the scripts involved"`
	SigLog      bool    `long:"siglog" description:"Dump every signature check performed"`
	DebugLevel  string  `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	LogDir      string  `long:"logdir" description:"Directory to log output"`
	ShowVersion bool    `short:"V" long:"version" description:"Display version information and exit"`

	// Decoded forms of the options above.
	scriptFlags txscript.ScriptFlags
	amount      btcutil.Amount
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(scriptcheckHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		// Validate debug log level.
		if !log.ValidLogLevel(debugLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		// Change the logging level for all subsystems.
		log.SetLogLevels(debugLevel)

		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "the specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		// Validate subsystem.
		if !supportedSubsystem(subsysID) {
			str := "the specified subsystem [%v] is invalid -- " +
				"supported subsytems %v"
			return fmt.Errorf(str, subsysID, log.SupportedSubsystems())
		}

		// Validate log level.
		if !log.ValidLogLevel(logLevel) {
			str := "the specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		log.SetLogLevel(subsysID, logLevel)
	}

	return nil
}

// supportedSubsystem returns whether the passed subsystem has a logger.
func supportedSubsystem(subsysID string) bool {
	for _, id := range log.SupportedSubsystems() {
		if id == subsysID {
			return true
		}
	}
	return false
}

// newConfigParser returns a new command line flags parser.
func newConfigParser(cfg *config, options flags.Options) *flags.Parser {
	return flags.NewParser(cfg, options)
}

// loadConfig initializes and parses the config using command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Parse the command line options and validate them
//
// The above results in scriptcheck functioning properly without any options
// other than the transaction, the spent script and, for witness spends, the
// amount.
func loadConfig(args []string) (*config, error) {
	// Default config.
	cfg := config{
		Flags:      defaultScriptFlags,
		DebugLevel: defaultLogLevel,
		LogDir:     defaultLogDir,
	}

	// Parse command line options.
	parser := newConfigParser(&cfg, flags.Default)
	_, err := parser.ParseArgs(args)
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, err
	}

	// Show the version and exit if the version flag was specified.
	if cfg.ShowVersion {
		appName := filepath.Base(os.Args[0])
		appName = strings.TrimSuffix(appName, filepath.Ext(appName))
		fmt.Println(appName, "version", version.String())
		os.Exit(0)
	}

	// Special show command to list supported subsystems and exit.
	if cfg.DebugLevel == "show" {
		fmt.Println("Supported subsystems", log.SupportedSubsystems())
		os.Exit(0)
	}

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("loadConfig: %w", err)
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, err
	}

	if cfg.Tx == "" {
		err := fmt.Errorf("loadConfig: a transaction must be specified " +
			"with --tx")
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, err
	}
	if cfg.Input < 0 {
		err := fmt.Errorf("loadConfig: the input index may not be "+
			"negative -- parsed [%d]", cfg.Input)
		fmt.Fprintln(os.Stderr, err)
		return nil, err
	}

	cfg.scriptFlags, err = txscript.ParseScriptFlags(cfg.Flags)
	if err != nil {
		err := fmt.Errorf("loadConfig: %w", err)
		fmt.Fprintln(os.Stderr, err)
		return nil, err
	}

	cfg.amount, err = btcutil.NewAmount(cfg.Amount)
	if err != nil {
		err := fmt.Errorf("loadConfig: invalid amount: %w", err)
		fmt.Fprintln(os.Stderr, err)
		return nil, err
	}

	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	return &cfg, nil
}
