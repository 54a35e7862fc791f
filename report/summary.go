package report

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/olekukonko/tablewriter"
)

// ResolutionStat is one row of the per-resolution admission table.
type ResolutionStat struct {
	Resolution     string
	Active         int
	Rejected       int
	EstimatedBytes int64
}

// Summary aggregates the run's observable health for a human-facing report:
// what got subscribed, what got rejected by the admission limiter, and how
// the synchronizer's merge loop performed.
type Summary struct {
	Resolutions   []ResolutionStat
	SliceLatency  []float64// per-TimeSlice merge wall-clock cost, seconds
	SlicesEmitted int
	Started       time.Time
	Finished      time.Time
}

// Print renders the resolution/admission table followed by a latency
// histogram and a bootstrap confidence interval on mean slice latency,
// mirroring the run-summary report the teacher prints at the end of a
// backtest.
func (s Summary) Print() {
	buffer := bytes.NewBuffer(nil)
	table := tablewriter.NewWriter(buffer)
	table.SetHeader([]string{"RESOLUTION", "ACTIVE", "REJECTED", "EST. BYTES"})
	table.SetFooterAlignment(tablewriter.ALIGN_RIGHT)

	for _, r := range s.Resolutions {
		table.Append([]string{
			r.Resolution,
			fmt.Sprintf("%d", r.Active),
			fmt.Sprintf("%d", r.Rejected),
			fmt.Sprintf("%d", r.EstimatedBytes),
		})
	}
	table.Render()
	fmt.Println(buffer.String())

	fmt.Printf("SLICES EMITTED: %d\n", s.SlicesEmitted)
	fmt.Printf("WALL CLOCK: %s\n", s.Finished.Sub(s.Started))

	if len(s.SliceLatency) == 0 {
		return
	}

	hist := histogram.Hist(15, s.SliceLatency)
	_ = histogram.Fprint(os.Stdout, hist, histogram.Linear(10))

	ci := Bootstrap(s.SliceLatency, Mean, 1000, 0.95)
	fmt.Printf("MEAN SLICE LATENCY: %.6fs (95%% CI %.6f-%.6f)\n", ci.Mean, ci.Lower, ci.Upper)
}
