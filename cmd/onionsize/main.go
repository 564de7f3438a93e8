// Command onionsize prints how onion wire size scales with path length,
// authority count and payload size, across a swept range of each.
package main

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kit-ps/aimless-onions-go/bbg"
	"github.com/kit-ps/aimless-onions-go/nodename"
	"github.com/kit-ps/aimless-onions-go/onionformat"
)

const (
	maxAuthorities = 9
	maxPathLength  = 5
)

var payloadSizes = []int{1, 512, 1024, 2048, 4069}

func main() {
	app := &cli.App{
		Name:   "onionsize",
		Usage:  "sweep onion wire size across path length, authority count and payload size",
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("onionsize failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	rng := rand.Reader

	publicKeys := make([]*bbg.PublicParams, maxAuthorities)
	for i := range publicKeys {
		pp, _, err := bbg.Setup(rng, nodename.Depth)
		if err != nil {
			return fmt.Errorf("setup authority %d: %w", i, err)
		}
		publicKeys[i] = pp
	}

	path := make([]uint64, maxPathLength)
	delays := make([]uint32, maxPathLength)
	for i := range path {
		var idBuf [8]byte
		if _, err := rng.Read(idBuf[:]); err != nil {
			return fmt.Errorf("sample identity: %w", err)
		}
		path[i] = binary.LittleEndian.Uint64(idBuf[:])

		var delayBuf [4]byte
		if _, err := rng.Read(delayBuf[:]); err != nil {
			return fmt.Errorf("sample delay: %w", err)
		}
		delays[i] = binary.LittleEndian.Uint32(delayBuf[:])
	}

	payload := make([]byte, payloadSizes[len(payloadSizes)-1])
	if _, err := rng.Read(payload); err != nil {
		return fmt.Errorf("sample payload: %w", err)
	}

	fmt.Println("path_length,authorities,payload_size,onion_size")
	for pathLength := 1; pathLength <= maxPathLength; pathLength++ {
		for authorityCount := 1; authorityCount <= maxAuthorities; authorityCount++ {
			for _, payloadSize := range payloadSizes {
				onion, err := onionformat.Wrap(
					rng,
					path[:pathLength],
					delays[:pathLength],
					publicKeys[:authorityCount],
					payload[:payloadSize],
				)
				if err != nil {
					return fmt.Errorf("wrap: %w", err)
				}

				size := onionSize(onion, authorityCount)
				fmt.Printf("%d,%d,%d,%d\n", pathLength, authorityCount, payloadSize, size)
			}
		}
	}
	return nil
}

// onionSize mirrors the serialized size of an Onion: an 8-byte identity,
// an 8-byte share-count prefix plus one ShareSize per authority, an
// 8-byte header-length prefix plus the header bytes, and an 8-byte
// payload-length prefix plus the payload bytes.
func onionSize(onion onionformat.Onion, authorityCount int) int {
	return 8 +
		8 + authorityCount*onionformat.ShareSize +
		8 + len(onion.Header) +
		8 + len(onion.Payload)
}
