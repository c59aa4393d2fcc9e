package progress

import (
	"fmt"
	"io"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/fatih/color"
	"github.com/minio/pkg/console"

	"github.com/runningwild/iosweep/pkg/stats"
)

// Bar tracks completed sweep points.
type Bar struct {
	*pb.ProgressBar
}

// New starts a bar over total points. Output goes to w, or stderr when w is nil.
func New(total int, w io.Writer) *Bar {
	console.SetColor("Bar", color.New(color.FgGreen, color.Bold))

	bar := pb.New(total)
	if w != nil {
		bar.SetWriter(w)
	}
	bar.SetRefreshRate(time.Millisecond * 125)
	bar.SetTemplateString(`{{string . "prefix"}} {{counters . }} {{bar . }} {{percent . }} {{etime . }}`)
	bar.Start()

	return &Bar{ProgressBar: bar}
}

// SetCaption sets the text shown before the bar.
func (b *Bar) SetCaption(caption string) *Bar {
	b.ProgressBar.Set("prefix", console.Colorize("Bar", caption))
	return b
}

// Point advances the bar for a finished point. It matches sweep.Sweeper.OnPoint.
func (b *Bar) Point(i, n int, s stats.Summary) {
	b.SetCaption(fmt.Sprintf("%s=%g %.0f %s", s.Variable, s.Value, s.Throughput, s.Unit))
	b.Increment()
}
