package main

import (
	"bufio"
	"io"
	"strings"

	"github.com/Carmen-Shannon/veil/common"
)

// submitter queues one utterance. engine.Engine satisfies it.
type submitter interface {
	Submit(utterance string) bool
}

// readCommands forwards each non-empty line of r as one utterance until r is exhausted.
//
// Returns:
//   - int: the number of utterances submitted
func readCommands(r io.Reader, s submitter) int {
	n := 0
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if s.Submit(line) {
			n++
		}
	}
	if err := scanner.Err(); err != nil {
		common.Logger().WithError(err).Warn("command input failed")
	} else {
		common.Logger().Debug("command input closed")
	}
	return n
}
