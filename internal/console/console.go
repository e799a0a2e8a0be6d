// Package console implements the line-oriented operator console. It reads
// commands from a serial port or stdin and hands the ones that need tracker
// state to the control loop over a channel.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Command is a parsed console command.
type Command int

const (
	CommandUnknown Command = iota
	CommandEmpty
	CommandDump
	CommandStatus
	CommandHelp
)

func (c Command) String() string {
	switch c {
	case CommandEmpty:
		return "empty"
	case CommandDump:
		return "dump"
	case CommandStatus:
		return "status"
	case CommandHelp:
		return "help"
	}
	return "unknown"
}

// Parse maps one input line to a Command. Matching ignores case and
// surrounding whitespace.
func Parse(line string) Command {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return CommandEmpty
	case "d", "dump":
		return CommandDump
	case "s", "status":
		return CommandStatus
	case "h", "help", "?":
		return CommandHelp
	}
	return CommandUnknown
}

const helpText = `commands:
  d, dump    print the full event log
  s, status  print the current state
  h, help    show this help
`

// Framing around a dump.
const (
	DumpStart = "--- DATA DUMP START ---"
	DumpEnd   = "--- DATA DUMP END ---"
)

// Console serves one operator connection. Writes are serialised so the
// control loop can answer while Run is reading.
type Console struct {
	r io.Reader

	mu sync.Mutex
	w  io.Writer
}

// New creates a console reading from r and answering on w.
func New(r io.Reader, w io.Writer) *Console {
	return &Console{r: r, w: w}
}

// Write implements io.Writer for replies from the control loop.
func (c *Console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}

// Run reads commands until r is exhausted or ctx is cancelled. Help and
// unrecognised input are answered directly; dump and status requests are
// sent on requests. Returns nil on EOF.
func (c *Console) Run(ctx context.Context, requests chan<- Command) error {
	scanner := bufio.NewScanner(c.r)
	for scanner.Scan() {
		cmd := Parse(scanner.Text())
		switch cmd {
		case CommandEmpty:
			continue
		case CommandHelp:
			io.WriteString(c, helpText)
			continue
		case CommandUnknown:
			fmt.Fprintf(c, "unknown command %q, type h for help\n", strings.TrimSpace(scanner.Text()))
			continue
		}

		select {
		case requests <- cmd:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("console read: %w", err)
	}
	return nil
}

// Dumper is anything that can replay the event log as CSV.
type Dumper interface {
	Dump(w io.Writer) error
}

// WriteDump writes the full log framed by DumpStart and DumpEnd. The end
// marker is written even when the dump fails part way.
func WriteDump(w io.Writer, d Dumper) error {
	if _, err := fmt.Fprintf(w, "\n%s\n", DumpStart); err != nil {
		return err
	}
	dumpErr := d.Dump(w)
	if dumpErr != nil {
		fmt.Fprintf(w, "error reading datalog: %v\n", dumpErr)
	}
	if _, err := fmt.Fprintf(w, "%s\n", DumpEnd); err != nil {
		return err
	}
	return dumpErr
}
