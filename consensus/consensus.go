// Package consensus extracts relay weight from a directory consensus
// document. This is a drastically simplified reader: it only cares about
// the field an allocation run needs, and tolerates any amount of
// unrecognized surrounding text.
package consensus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
)

var bandwidthPattern = regexp.MustCompile(`Bandwidth=(\d+)`)

// Relay is one line's worth of consensus data relevant to allocation.
type Relay struct {
	Weight uint32
}

// Read scans every line of path for a Bandwidth=<value> field and returns
// one Relay per match, in file order.
func Read(path string) ([]Relay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("consensus: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadFrom(f)
}

// ReadFrom is Read against an already-open reader, for callers that have
// the document in memory or are streaming it from elsewhere.
func ReadFrom(r io.Reader) ([]Relay, error) {
	var relays []Relay
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		match := bandwidthPattern.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}
		weight, err := strconv.ParseUint(match[1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("consensus: parse bandwidth %q: %w", match[1], err)
		}
		relays = append(relays, Relay{Weight: uint32(weight)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("consensus: scan: %w", err)
	}
	return relays, nil
}
