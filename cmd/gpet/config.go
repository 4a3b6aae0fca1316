// Copyright 2025 The go-petstake Authors
// This file is part of go-petstake.
//
// go-petstake is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-petstake is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-petstake. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"unicode"

	"github.com/naoina/toml"
	"github.com/petstake/go-petstake/common"
	"github.com/petstake/go-petstake/core/activity"
	"github.com/petstake/go-petstake/core/ledger"
	"github.com/petstake/go-petstake/params"
	"github.com/petstake/go-petstake/petdb"
	"github.com/petstake/go-petstake/petdb/leveldb"
	"gopkg.in/urfave/cli.v1"
)

var (
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "[<filename>]",
		Category:    "MISCELLANEOUS COMMANDS",
		Description: `The dumpconfig command shows configuration values.`,
	}

	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	ownerFlag = cli.StringFlag{
		Name:  "owner",
		Usage: "Address of the ledger owner",
	}
	signerFlag = cli.StringFlag{
		Name:  "signer",
		Usage: "Address expected to sign relayed action intents",
	}
	chainIDFlag = cli.Uint64Flag{
		Name:  "chainid",
		Usage: "Chain identifier bound into the signing domain",
		Value: 1,
	}
	ledgerAddrFlag = cli.StringFlag{
		Name:  "ledgeraddr",
		Usage: "Ledger address bound into the signing domain",
	}
	ratioFlag = cli.StringFlag{
		Name:  "ratio",
		Usage: "Liveness ratio in actions per second, 18 decimal fixed point",
		Value: params.RatioPrecision.String(),
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		var link string
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type ledgerConfig struct {
	Owner         common.Address
	MainSigner    common.Address
	ChainID       uint64
	LedgerAddress common.Address
}

type activityConfig struct {
	LivenessRatio       string
	MinActionsPerPeriod string `toml:",omitempty"`
	MaxInactivity       uint64 `toml:",omitempty"`
}

type gpetConfig struct {
	Ledger   ledgerConfig
	Activity activityConfig
	DataDir  string
}

func defaultConfig() gpetConfig {
	return gpetConfig{
		Ledger:   ledgerConfig{ChainID: 1},
		Activity: activityConfig{LivenessRatio: params.RatioPrecision.String()},
		DataDir:  defaultDataDir(),
	}
}

func loadConfig(file string, cfg *gpetConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig assembles the effective configuration from defaults, an optional
// config file and command line flags, in increasing precedence.
func makeConfig(ctx *cli.Context) gpetConfig {
	cfg := defaultConfig()

	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			Fatalf("%v", err)
		}
	}
	if ctx.GlobalIsSet(dataDirFlag.Name) {
		cfg.DataDir = ctx.GlobalString(dataDirFlag.Name)
	}
	if ctx.GlobalIsSet(ownerFlag.Name) {
		cfg.Ledger.Owner = common.HexToAddress(ctx.GlobalString(ownerFlag.Name))
	}
	if ctx.GlobalIsSet(signerFlag.Name) {
		cfg.Ledger.MainSigner = common.HexToAddress(ctx.GlobalString(signerFlag.Name))
	}
	if ctx.GlobalIsSet(chainIDFlag.Name) {
		cfg.Ledger.ChainID = ctx.GlobalUint64(chainIDFlag.Name)
	}
	if ctx.GlobalIsSet(ledgerAddrFlag.Name) {
		cfg.Ledger.LedgerAddress = common.HexToAddress(ctx.GlobalString(ledgerAddrFlag.Name))
	}
	if ctx.GlobalIsSet(ratioFlag.Name) {
		cfg.Activity.LivenessRatio = ctx.GlobalString(ratioFlag.Name)
	}
	return cfg
}

// makeLedger opens the ledger database under the data directory and constructs
// the ledger on top of it. The caller owns the returned database handle.
func makeLedger(ctx *cli.Context) (*ledger.Ledger, petdb.Database) {
	cfg := makeConfig(ctx)
	if cfg.Ledger.Owner.IsZero() {
		Fatalf("No ledger owner configured, set --%s or the config file", ownerFlag.Name)
	}
	db, err := leveldb.New(filepath.Join(cfg.DataDir, clientIdentifier), 0, 0, false)
	if err != nil {
		Fatalf("Failed to open ledger database: %v", err)
	}
	l, err := ledger.New(db, ledger.Config{
		Owner:         cfg.Ledger.Owner,
		MainSigner:    cfg.Ledger.MainSigner,
		ChainID:       new(big.Int).SetUint64(cfg.Ledger.ChainID),
		LedgerAddress: cfg.Ledger.LedgerAddress,
	})
	if err != nil {
		db.Close()
		Fatalf("Failed to open ledger: %v", err)
	}
	return l, db
}

// makeEvaluator constructs the activity evaluator from the configuration.
func makeEvaluator(ctx *cli.Context) *activity.Evaluator {
	cfg := makeConfig(ctx)

	ratio, ok := new(big.Int).SetString(cfg.Activity.LivenessRatio, 10)
	if !ok {
		Fatalf("Invalid liveness ratio %q", cfg.Activity.LivenessRatio)
	}
	acfg := activity.Config{
		Owner:         cfg.Ledger.Owner,
		LivenessRatio: ratio,
		MaxInactivity: cfg.Activity.MaxInactivity,
	}
	if cfg.Activity.MinActionsPerPeriod != "" {
		min, ok := new(big.Int).SetString(cfg.Activity.MinActionsPerPeriod, 10)
		if !ok {
			Fatalf("Invalid min actions per period %q", cfg.Activity.MinActionsPerPeriod)
		}
		acfg.MinActionsPerPeriod = min
	}
	e, err := activity.New(acfg)
	if err != nil {
		Fatalf("Failed to create evaluator: %v", err)
	}
	return e
}

// dumpConfig is the dumpconfig command.
func dumpConfig(ctx *cli.Context) error {
	cfg := makeConfig(ctx)

	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	dump := os.Stdout
	if ctx.NArg() > 0 {
		dump, err = os.OpenFile(ctx.Args().Get(0), os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
		if err != nil {
			return err
		}
		defer dump.Close()
	}
	dump.Write(out)

	return nil
}

// defaultDataDir returns the platform-specific default data directory.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "PetStake")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "PetStake")
	default:
		return filepath.Join(home, ".petstake")
	}
}

func osArch() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}
