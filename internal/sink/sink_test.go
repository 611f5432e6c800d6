package sink

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/dynstep/internal/dynamo"
	"github.com/san-kum/dynstep/internal/integrators"
	"github.com/san-kum/dynstep/internal/physics"
)

func TestStateCSV(t *testing.T) {
	var buf bytes.Buffer
	s := NewStateCSV(&buf, []string{"x", "v"})

	s.OnStep(0, 0, dynamo.State{1, 0})
	s.OnStep(1, 0.1, dynamo.State{0.995, -0.1})
	require.NoError(t, s.Flush())

	assert.Equal(t, "step,time,x,v\n0,0,1,0\n1,0.1,0.995,-0.1\n", buf.String())
}

func TestStateCSVDefaultLabels(t *testing.T) {
	var buf bytes.Buffer
	s := NewStateCSV(&buf, nil)

	s.OnStep(0, 0, dynamo.State{1, 2, 3})
	require.NoError(t, s.Flush())

	assert.True(t, strings.HasPrefix(buf.String(), "step,time,x0,x1,x2\n"))
}

func TestEnergyCSVDuringRun(t *testing.T) {
	var buf bytes.Buffer
	p := physics.NewPendulum()
	e := NewEnergyCSV(&buf, p)

	tr, err := dynamo.Run(context.Background(), p, integrators.NewMidpoint(), p.DefaultState(),
		dynamo.Config{Dt: 0.025, Steps: 20}, e.OnStep)
	require.NoError(t, err)
	require.NoError(t, e.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, tr.Len()+1)
	assert.Equal(t, "step,time,Ep,Ek,E", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0,0,"))
}

type failWriter struct{ n int }

var errDiskFull = errors.New("disk full")

func (f *failWriter) Write(p []byte) (int, error) {
	f.n++
	return 0, errDiskFull
}

func TestSinkKeepsFirstError(t *testing.T) {
	fw := &failWriter{}
	s := NewStateCSV(fw, nil)

	for i := range 3 {
		s.OnStep(i, float64(i), dynamo.State{1})
	}

	err := s.Flush()
	assert.ErrorIs(t, err, errDiskFull)
	assert.ErrorIs(t, s.Err(), errDiskFull)
	assert.Equal(t, 1, fw.n)
}
