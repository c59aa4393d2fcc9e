// Package report renders sweep summaries as a console table, CSV or JSON.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/runningwild/iosweep/pkg/analyze"
	"github.com/runningwild/iosweep/pkg/stats"
)

var columns = []string{
	"Variable", "Value", "Access Size", "Ops",
	"Mean (us)", "StdDev (us)", "P50 (us)", "P99 (us)", "Throughput", "Unit",
}

func row(s stats.Summary) []string {
	return []string{
		s.Variable,
		fmt.Sprintf("%g", s.Value),
		fmt.Sprintf("%d", s.AccessSize),
		fmt.Sprintf("%d", s.Operations),
		fmt.Sprintf("%.2f", s.MeanLatencyUs),
		fmt.Sprintf("%.2f", s.StdDevLatencyUs),
		fmt.Sprintf("%.2f", micros(s.P50Latency)),
		fmt.Sprintf("%.2f", micros(s.P99Latency)),
		fmt.Sprintf("%.2f", s.Throughput),
		string(s.Unit),
	}
}

// Table writes one row per summary.
func Table(w io.Writer, summaries []stats.Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(columns)
	for _, s := range summaries {
		table.Append(row(s))
	}
	table.Render()
}

// Knee prints the knee of a sweep, or a note that none was found.
func Knee(w io.Writer, variable string, knee analyze.Point, unit stats.Unit) {
	if knee == (analyze.Point{}) {
		fmt.Fprintln(w, "Could not identify a distinct knee.")
		return
	}
	fmt.Fprintf(w, "Knee found at %s=%g (%.2f %s)\n", variable, knee.X, knee.Y, unit)
}

// WriteCSV writes a header followed by one record per summary.
func WriteCSV(w io.Writer, summaries []stats.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, s := range summaries {
		if err := cw.Write(row(s)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the summaries as an indented JSON array.
func WriteJSON(w io.Writer, summaries []stats.Summary) error {
	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal report")
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteFile creates path and writes the summaries with fn.
func WriteFile(path string, summaries []stats.Summary, fn func(io.Writer, []stats.Summary) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create report %s", path)
	}
	if err := fn(f, summaries); err != nil {
		f.Close()
		return errors.Wrapf(err, "write report %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close report %s", path)
	}
	log.Infof("Report written to %s", path)
	return nil
}

func micros(d time.Duration) float64 {
	return float64(d) / float64(time.Microsecond)
}
