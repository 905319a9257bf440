package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/OCAP2/orbat/internal/battle"
	"github.com/OCAP2/orbat/internal/recorder"
)

// writeReport prints the per-side outcome of b.
func writeReport(w io.Writer, b *battle.Battle, stats recorder.Stats) {
	fmt.Fprintf(w, "%s: %d frames, %.1fs simulated\n", b.Name(), b.Frame(), b.Clock())

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SIDE\tHEALTH\tALIVE\tPLATOONS\tACTIVE")
	for _, s := range b.Sides() {
		fmt.Fprintf(tw, "%d\t%.1f\t%d\t%d\t%d\n", s.Side, s.Health, s.Alive, s.Platoons, s.Active)
	}
	_ = tw.Flush()

	if winner, ok := b.Winner(); ok {
		fmt.Fprintf(w, "winner: side %d\n", winner)
	} else {
		fmt.Fprintln(w, "winner: undecided")
	}
	fmt.Fprintf(w, "recorded: %d units, %d samples, %d deaths, %d discoveries\n",
		stats.Units, stats.Samples, stats.Deaths, stats.Discoveries)
}
