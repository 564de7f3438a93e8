// Command allocate runs the identity-tree allocator against a directory
// consensus file and prints a summary of how many subtree roots each
// relay ended up with.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/kit-ps/aimless-onions-go/allocation"
	"github.com/kit-ps/aimless-onions-go/consensus"
)

func main() {
	app := &cli.App{
		Name:  "allocate",
		Usage: "partition the identity tree across relays in a consensus file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "consensus",
				Value: "tor-consensus",
				Usage: "path to the consensus file to read relay weights from",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("allocate failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	relays, err := consensus.Read(ctx.String("consensus"))
	if err != nil {
		return fmt.Errorf("read consensus: %w", err)
	}

	requests := make([]allocation.AllocationRequest, len(relays))
	for i, r := range relays {
		requests[i] = allocation.AllocationRequest{
			ID:     uint32(i),
			Weight: uint64(r.Weight),
		}
	}

	allocations, err := allocation.Allocate(requests)
	if err != nil {
		return fmt.Errorf("allocate: %w", err)
	}

	var max, min, total int
	haveMin := false
	for i, a := range allocations {
		n := len(a.Nodes)
		total += n
		if i == 0 || n > max {
			max = n
		}
		if n != 0 && (!haveMin || n < min) {
			min = n
			haveMin = true
		}
	}

	fmt.Printf("Max: %d\n", max)
	fmt.Printf("Min: %d\n", min)
	if len(allocations) > 0 {
		fmt.Printf("Avg: %f\n", float64(total)/float64(len(allocations)))
	}
	fmt.Printf("#:   %d\n", len(allocations))

	return nil
}
