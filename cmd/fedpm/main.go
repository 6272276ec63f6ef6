// Command fedpm runs the two-party federated process discovery engine
// end to end against two event logs and writes the resulting DFG.
//
// This binary is a thin exercise harness around the core, not the
// CLI spec.md §1 places out of scope: real XES ingestion, log
// splitting, and Graphviz image rendering are external collaborators
// this repository does not implement. loadLog below reads a minimal
// stand-in log format (one "case,activity,unixSeconds" line per
// event) so the pipeline in party.Run can be driven from the command
// line without pretending to parse XES; loadLog and writeDOT are
// explicitly placeholders for those out-of-scope components.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tuneinsight/fedpm/alphabet"
	"github.com/tuneinsight/fedpm/dfg"
	"github.com/tuneinsight/fedpm/eventlog"
	"github.com/tuneinsight/fedpm/party"
	"github.com/tuneinsight/fedpm/smallint"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: fedpm <log-a-path> <log-b-path> <output-dfg-path>")
		os.Exit(1)
	}

	logA, err := loadLog(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "fedpm: reading log A: %v\n", err)
		os.Exit(1)
	}
	logB, err := loadLog(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "fedpm: reading log B: %v\n", err)
		os.Exit(1)
	}

	graph, err := party.Run(logA, logB, smallint.Secure, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fedpm: running protocol: %v\n", err)
		os.Exit(1)
	}

	if err := writeDOT(os.Args[3], graph); err != nil {
		fmt.Fprintf(os.Stderr, "fedpm: writing output: %v\n", err)
		os.Exit(1)
	}
}

// loadLog reads the placeholder ingestion format described above. A
// real deployment replaces this with an XES reader; that component is
// out of scope here (spec.md §1).
func loadLog(path string) (eventlog.MemoryLog, error) {
	f, err := os.Open(path)
	if err != nil {
		return eventlog.MemoryLog{}, err
	}
	defer f.Close()

	cases := make(map[string][]eventlog.Event)
	order := make([]string, 0)

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 3 {
			return eventlog.MemoryLog{}, fmt.Errorf("%s:%d: expected 3 comma-separated fields, got %d", path, lineNo, len(fields))
		}
		caseID := strings.TrimSpace(fields[0])
		activity := strings.TrimSpace(fields[1])
		unixSeconds, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
		if err != nil {
			return eventlog.MemoryLog{}, fmt.Errorf("%s:%d: parsing timestamp: %w", path, lineNo, err)
		}

		if _, ok := cases[caseID]; !ok {
			order = append(order, caseID)
		}
		cases[caseID] = append(cases[caseID], eventlog.Event{
			Activity:  activity,
			Timestamp: time.Unix(unixSeconds, 0),
		})
	}
	if err := scanner.Err(); err != nil {
		return eventlog.MemoryLog{}, err
	}

	log := eventlog.MemoryLog{CaseList: make([]eventlog.Case, 0, len(order))}
	for _, id := range order {
		log.CaseList = append(log.CaseList, eventlog.Case{ID: id, Events: cases[id]})
	}
	return log, nil
}

// writeDOT writes the DFG as a Graphviz DOT source file. Rendering
// that DOT source to an image is the external renderer's job (spec.md
// §6: "The final DFG is serialised by an external renderer"); this
// only exposes nodes/edges in a format that renderer can consume.
func writeDOT(path string, graph *dfg.Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "digraph dfg {")
	for _, e := range graph.Edges() {
		fmt.Fprintf(w, "  %q -> %q [label=%q];\n", displayLabel(e.From), displayLabel(e.To), strconv.FormatUint(e.Freq, 10))
	}
	fmt.Fprintln(w, "}")
	return w.Flush()
}

// displayLabel maps the alphabet package's internal sentinel labels
// to human-readable names for the DOT output; real activity labels
// pass through unchanged.
func displayLabel(label string) string {
	switch label {
	case alphabet.Start:
		return "START"
	case alphabet.End:
		return "END"
	case alphabet.Bottom:
		return "BOTTOM"
	default:
		return label
	}
}
