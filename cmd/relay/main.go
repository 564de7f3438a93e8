// Command relay is a demonstration of a relay's startup sequence: load its
// configuration, derive its current epoch-blinded identity, and report
// what it would register with each configured authority. It stops short
// of actually serving traffic; the original system's relay process talks
// to authorities over HTTPS, which is out of scope here.
package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kit-ps/aimless-onions-go/apitypes"
	"github.com/kit-ps/aimless-onions-go/config"
	"github.com/kit-ps/aimless-onions-go/relayid"
)

// epochLength is how often a relay's presented key rotates.
const epochLength = 24 * time.Hour

func main() {
	app := &cli.App{
		Name:  "relay",
		Usage: "report a relay's registration details derived from its configuration",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: "relay.toml",
				Usage: "path to the relay's TOML configuration file",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("relay failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	cfg, err := config.LoadRelay(ctx.String("config"))
	if err != nil {
		return err
	}

	longTerm, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generate long-term key: %w", err)
	}
	var longTermKey relayid.RelayKey
	copy(longTermKey[:], longTerm)

	epoch := uint64(time.Now().UTC().Unix()) / uint64(epochLength.Seconds())
	blinded, err := relayid.BlindedKey(longTermKey, epoch)
	if err != nil {
		return fmt.Errorf("derive blinded key: %w", err)
	}
	registrationKey := apitypes.RelayKey(relayid.Truncate(blinded))

	registration := apitypes.RegisterRelay{
		Key:     registrationKey,
		Address: cfg.PublicAddress,
		Port:    cfg.Port,
		Weight:  cfg.Weight,
	}

	body, err := json.Marshal(registration)
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}

	slog.Info("relay starting",
		"weight", cfg.Weight,
		"public_address", cfg.PublicAddress,
		"port", cfg.Port,
		"epoch", epoch,
		"blinded_key", hex.EncodeToString(blinded[:]),
	)

	for _, a := range cfg.Authority {
		fmt.Printf("would register with %s (cert %s): %s\n", a.Address, a.Cert, body)
	}

	return nil
}
