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
	crand "crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/petstake/go-petstake/common"
	"github.com/petstake/go-petstake/core/activity"
	"github.com/petstake/go-petstake/core/verify"
	"github.com/petstake/go-petstake/crypto"
	"github.com/petstake/go-petstake/params"
	"gopkg.in/urfave/cli.v1"
)

var (
	keyFileFlag = cli.StringFlag{
		Name:  "keyfile",
		Usage: "File containing the hex-encoded signing key",
	}
	timestampFlag = cli.Uint64Flag{
		Name:  "timestamp",
		Usage: "Unix timestamp to embed in the intent (0 means now)",
	}

	recordCommand = cli.Command{
		Name:        "record",
		Usage:       "Record actions of one type for an agent",
		ArgsUsage:   "<agent> <type> <amount>",
		Category:    "LEDGER COMMANDS",
		Description: `Credits <amount> actions of <type> (e.g. walk, feed, play) to <agent>.`,
	}
	batchCommand = cli.Command{
		Name:        "batch",
		Usage:       "Record several action credits for an agent atomically",
		ArgsUsage:   "<agent> <type:amount>...",
		Category:    "LEDGER COMMANDS",
		Description: `Applies every <type:amount> pair as one all-or-nothing unit.`,
	}
	setStatusCommand = cli.Command{
		Name:      "set-status",
		Usage:     "Set an agent's active flag",
		ArgsUsage: "<agent> <true|false>",
		Category:  "LEDGER COMMANDS",
	}
	statusCommand = cli.Command{
		Name:        "status",
		Usage:       "Show an agent's ledger state",
		ArgsUsage:   "<agent> [<type>...]",
		Category:    "LEDGER COMMANDS",
		Description: `Prints the aggregate state of <agent> plus the counter of every named action type.`,
	}
	evaluateCommand = cli.Command{
		Name:        "evaluate",
		Usage:       "Check an agent's throughput against the liveness ratio",
		ArgsUsage:   "<agent> <previousTotal> <elapsedSeconds>",
		Category:    "ACTIVITY COMMANDS",
		Description: `Compares the agent's current snapshot against a checkpoint taken <elapsedSeconds> ago with <previousTotal> actions.`,
	}
	requiredCommand = cli.Command{
		Name:      "required",
		Usage:     "Show the action count needed to stay live over a period",
		ArgsUsage: "<periodSeconds>",
		Category:  "ACTIVITY COMMANDS",
	}
	signIntentCommand = cli.Command{
		Name:        "sign-intent",
		Usage:       "Sign an action intent for relayed submission",
		ArgsUsage:   "<actionID>",
		Flags:       []cli.Flag{keyFileFlag, timestampFlag},
		Category:    "SIGNER COMMANDS",
		Description: `Produces a fresh nonce and a signature over the typed intent, bound to the configured chain id and ledger address.`,
	}
	verifyRecordCommand = cli.Command{
		Name:        "verify-record",
		Usage:       "Submit a signed action intent",
		ArgsUsage:   "<actionID> <nonce> <timestamp> <signature>",
		Category:    "SIGNER COMMANDS",
		Description: `Verifies the signature, consumes the nonce and credits one action to the recovered signer.`,
	}
)

// The actions are wired up here rather than in the declarations above to avoid
// an initialization cycle: each action references its command's ArgsUsage.
func init() {
	recordCommand.Action = record
	batchCommand.Action = batch
	setStatusCommand.Action = setStatus
	statusCommand.Action = status
	evaluateCommand.Action = evaluate
	requiredCommand.Action = required
	signIntentCommand.Action = signIntent
	verifyRecordCommand.Action = verifyRecord
}

// callerAddress resolves the acting identity: the --caller flag if given, the
// configured owner otherwise.
func callerAddress(ctx *cli.Context) common.Address {
	if ctx.GlobalIsSet(callerFlag.Name) {
		return common.HexToAddress(ctx.GlobalString(callerFlag.Name))
	}
	return makeConfig(ctx).Ledger.Owner
}

func record(ctx *cli.Context) error {
	if ctx.NArg() != 3 {
		Fatalf("Usage: %s record %s", clientIdentifier, recordCommand.ArgsUsage)
	}
	agent := common.HexToAddress(ctx.Args().Get(0))
	actionType := common.StringToActionType(ctx.Args().Get(1))
	amount, ok := new(big.Int).SetString(ctx.Args().Get(2), 10)
	if !ok {
		Fatalf("Invalid amount %q", ctx.Args().Get(2))
	}
	l, db := makeLedger(ctx)
	defer db.Close()

	count, err := l.RecordAction(callerAddress(ctx), agent, actionType, amount)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded. %s count for agent %s is now %s, total %s\n",
		ctx.Args().Get(1), agent, count, l.TotalActions(agent))
	return nil
}

func batch(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		Fatalf("Usage: %s batch %s", clientIdentifier, batchCommand.ArgsUsage)
	}
	agent := common.HexToAddress(ctx.Args().Get(0))

	var (
		types   []common.ActionType
		amounts []*big.Int
	)
	for _, arg := range ctx.Args().Tail() {
		parts := strings.SplitN(arg, ":", 2)
		if len(parts) != 2 {
			Fatalf("Invalid pair %q, want <type:amount>", arg)
		}
		amount, ok := new(big.Int).SetString(parts[1], 10)
		if !ok {
			Fatalf("Invalid amount %q in pair %q", parts[1], arg)
		}
		types = append(types, common.StringToActionType(parts[0]))
		amounts = append(amounts, amount)
	}
	l, db := makeLedger(ctx)
	defer db.Close()

	added, err := l.RecordActionsBatch(callerAddress(ctx), agent, types, amounts)
	if err != nil {
		return err
	}
	fmt.Printf("Recorded %d items, %s actions added, total %s\n", len(types), added, l.TotalActions(agent))
	return nil
}

func setStatus(ctx *cli.Context) error {
	if ctx.NArg() != 2 {
		Fatalf("Usage: %s set-status %s", clientIdentifier, setStatusCommand.ArgsUsage)
	}
	agent := common.HexToAddress(ctx.Args().Get(0))
	active, err := strconv.ParseBool(ctx.Args().Get(1))
	if err != nil {
		Fatalf("Invalid status %q: %v", ctx.Args().Get(1), err)
	}
	l, db := makeLedger(ctx)
	defer db.Close()

	if err := l.SetAgentStatus(callerAddress(ctx), agent, active); err != nil {
		return err
	}
	fmt.Printf("Agent %s active=%v\n", agent, active)
	return nil
}

func status(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		Fatalf("Usage: %s status %s", clientIdentifier, statusCommand.ArgsUsage)
	}
	agent := common.HexToAddress(ctx.Args().Get(0))
	l, db := makeLedger(ctx)
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.Append([]string{"Agent", agent.Hex()})
	table.Append([]string{"Total actions", l.TotalActions(agent).String()})
	table.Append([]string{"Last action at", strconv.FormatUint(l.LastActionTimestamp(agent), 10)})
	table.Append([]string{"Active", strconv.FormatBool(l.IsAgentActive(agent))})
	for _, name := range ctx.Args().Tail() {
		count := l.ActionCount(agent, common.StringToActionType(name))
		table.Append([]string{"Count " + name, count.String()})
	}
	table.Render()
	return nil
}

func evaluate(ctx *cli.Context) error {
	if ctx.NArg() != 3 {
		Fatalf("Usage: %s evaluate %s", clientIdentifier, evaluateCommand.ArgsUsage)
	}
	agent := common.HexToAddress(ctx.Args().Get(0))
	prevTotal, ok := new(big.Int).SetString(ctx.Args().Get(1), 10)
	if !ok {
		Fatalf("Invalid previous total %q", ctx.Args().Get(1))
	}
	elapsed, err := strconv.ParseUint(ctx.Args().Get(2), 10, 64)
	if err != nil {
		Fatalf("Invalid elapsed seconds %q: %v", ctx.Args().Get(2), err)
	}
	l, db := makeLedger(ctx)
	defer db.Close()
	e := makeEvaluator(ctx)

	current := activity.Snapshot(l, agent)
	previous := []*big.Int{prevTotal, big.NewInt(0), big.NewInt(1)}
	if e.EvaluateRatio(current, previous, elapsed) {
		fmt.Printf("Agent %s PASSED: %s actions over %ds meets ratio %s\n",
			agent, new(big.Int).Sub(current[0], prevTotal), elapsed, e.LivenessRatio())
	} else {
		fmt.Printf("Agent %s FAILED the liveness check\n", agent)
	}
	return nil
}

func required(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		Fatalf("Usage: %s required %s", clientIdentifier, requiredCommand.ArgsUsage)
	}
	period, err := strconv.ParseUint(ctx.Args().Get(0), 10, 64)
	if err != nil {
		Fatalf("Invalid period %q: %v", ctx.Args().Get(0), err)
	}
	e := makeEvaluator(ctx)
	fmt.Printf("%s actions required over %d seconds at ratio %s\n",
		e.RequiredActions(period), period, e.LivenessRatio())
	return nil
}

func signIntent(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		Fatalf("Usage: %s sign-intent %s", clientIdentifier, signIntentCommand.ArgsUsage)
	}
	actionID, err := strconv.ParseUint(ctx.Args().Get(0), 10, 8)
	if err != nil {
		Fatalf("Invalid action id %q: %v", ctx.Args().Get(0), err)
	}
	keyfile := ctx.String(keyFileFlag.Name)
	if keyfile == "" {
		Fatalf("No signing key, set --%s", keyFileFlag.Name)
	}
	key, err := crypto.LoadECDSA(keyfile)
	if err != nil {
		Fatalf("Failed to load signing key: %v", err)
	}
	var nonce common.Hash
	if _, err := crand.Read(nonce[:]); err != nil {
		Fatalf("Failed to generate nonce: %v", err)
	}
	cfg := makeConfig(ctx)
	domain := verify.Domain{
		Name:              params.SigningDomainName,
		Version:           params.SigningDomainVersion,
		ChainID:           new(big.Int).SetUint64(cfg.Ledger.ChainID),
		VerifyingContract: cfg.Ledger.LedgerAddress,
	}
	intent := &verify.ActionIntent{
		ActionID:  uint8(actionID),
		Nonce:     nonce,
		Timestamp: ctx.Uint64(timestampFlag.Name),
	}
	if intent.Timestamp == 0 {
		intent.Timestamp = uint64(time.Now().Unix())
	}
	sig, err := verify.SignIntent(&domain, intent, key)
	if err != nil {
		Fatalf("Failed to sign intent: %v", err)
	}
	fmt.Printf("Signer:    %s\n", crypto.PubkeyToAddress(key.PublicKey))
	fmt.Printf("ActionID:  %d\n", intent.ActionID)
	fmt.Printf("Nonce:     %s\n", intent.Nonce.Hex())
	fmt.Printf("Timestamp: %d\n", intent.Timestamp)
	fmt.Printf("Signature: 0x%x\n", sig)
	return nil
}

func verifyRecord(ctx *cli.Context) error {
	if ctx.NArg() != 4 {
		Fatalf("Usage: %s verify-record %s", clientIdentifier, verifyRecordCommand.ArgsUsage)
	}
	actionID, err := strconv.ParseUint(ctx.Args().Get(0), 10, 8)
	if err != nil {
		Fatalf("Invalid action id %q: %v", ctx.Args().Get(0), err)
	}
	nonce := common.HexToHash(ctx.Args().Get(1))
	timestamp, err := strconv.ParseUint(ctx.Args().Get(2), 10, 64)
	if err != nil {
		Fatalf("Invalid timestamp %q: %v", ctx.Args().Get(2), err)
	}
	sig := common.FromHex(ctx.Args().Get(3))

	l, db := makeLedger(ctx)
	defer db.Close()

	count, err := l.RecordVerifiedAction(uint8(actionID), nonce, timestamp, sig)
	if err != nil {
		return err
	}
	fmt.Printf("Verified action credited to %s, count for action id %d is now %s\n",
		l.MainSigner(), actionID, count)
	return nil
}
