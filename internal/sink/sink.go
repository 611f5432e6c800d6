// Package sink writes per-step records as CSV while a run progresses.
//
// Sinks are dynamo.Observer values. A write failure does not stop the run;
// the first error is kept and returned by Err and Flush. The caller owns the
// underlying writer.
package sink

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/dynstep/internal/dynamo"
)

// FormatFloat renders values so they parse back to the same float64.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

type csvSink struct {
	w      *csv.Writer
	err    error
	header []string
	wrote  bool
}

func (s *csvSink) write(record []string) {
	if s.err != nil {
		return
	}
	if !s.wrote {
		s.wrote = true
		if s.header != nil {
			if err := s.w.Write(s.header); err != nil {
				s.err = err
				return
			}
		}
	}
	if err := s.w.Write(record); err != nil {
		s.err = err
	}
}

// Err returns the first write error, if any.
func (s *csvSink) Err() error { return s.err }

// Flush flushes buffered rows and reports the first error seen.
func (s *csvSink) Flush() error {
	s.w.Flush()
	if s.err == nil {
		s.err = s.w.Error()
	}
	return s.err
}

// StateCSV writes one row per recorded state: step, time, then components.
type StateCSV struct {
	csvSink
}

// NewStateCSV writes a header from labels, or x0..xn when labels is nil and
// the dimension is known from the first state.
func NewStateCSV(w io.Writer, labels []string) *StateCSV {
	s := &StateCSV{csvSink: csvSink{w: csv.NewWriter(w)}}
	if labels != nil {
		s.header = append([]string{"step", "time"}, labels...)
	}
	return s
}

func (s *StateCSV) OnStep(step int, t float64, x dynamo.State) {
	if s.header == nil && !s.wrote {
		s.header = append([]string{"step", "time"}, ComponentLabels(len(x))...)
	}
	row := make([]string, 0, len(x)+2)
	row = append(row, strconv.Itoa(step), FormatFloat(t))
	for _, v := range x {
		row = append(row, FormatFloat(v))
	}
	s.write(row)
}

// ComponentLabels returns x0..x{n-1}.
func ComponentLabels(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("x%d", i)
	}
	return labels
}

// EnergySplit is implemented by systems that separate kinetic and potential
// energy.
type EnergySplit interface {
	Kinetic(x dynamo.State) float64
	Potential(x dynamo.State) float64
}

// EnergyCSV writes step, time, Ep, Ek, E per recorded state.
type EnergyCSV struct {
	csvSink
	split EnergySplit
}

func NewEnergyCSV(w io.Writer, split EnergySplit) *EnergyCSV {
	return &EnergyCSV{
		csvSink: csvSink{
			w:      csv.NewWriter(w),
			header: []string{"step", "time", "Ep", "Ek", "E"},
		},
		split: split,
	}
}

func (e *EnergyCSV) OnStep(step int, t float64, x dynamo.State) {
	ep := e.split.Potential(x)
	ek := e.split.Kinetic(x)
	e.write([]string{
		strconv.Itoa(step),
		FormatFloat(t),
		FormatFloat(ep),
		FormatFloat(ek),
		FormatFloat(ep + ek),
	})
}

var (
	_ dynamo.Observer = (*StateCSV)(nil)
	_ dynamo.Observer = (*EnergyCSV)(nil)
)
