package migrate

import (
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
)

// Stats counts the outcome of one step's records.
type Stats struct {
	Step    string
	Created int
	Skipped int
	Failed  int
}

func (s *Stats) fields() logrus.Fields {
	return logrus.Fields{"step": s.Step, "created": s.Created, "skipped": s.Skipped, "failed": s.Failed}
}

type Report struct {
	Started  time.Time
	Duration time.Duration
	Steps    []*Stats
}

func (r *Report) add(step string) *Stats {
	st := &Stats{Step: step}
	r.Steps = append(r.Steps, st)
	return st
}

// Step returns the stats of the named step, or nil if it did not run.
func (r *Report) Step(name string) *Stats {
	for _, s := range r.Steps {
		if s.Step == name {
			return s
		}
	}
	return nil
}

func (r *Report) Totals() Stats {
	t := Stats{Step: "total"}
	for _, s := range r.Steps {
		t.Created += s.Created
		t.Skipped += s.Skipped
		t.Failed += s.Failed
	}
	return t
}

// Render writes the per-step counts as a table.
func (r *Report) Render(w io.Writer) error {
	row := func(s Stats) []string {
		return []string{
			s.Step,
			humanize.Comma(int64(s.Created)),
			humanize.Comma(int64(s.Skipped)),
			humanize.Comma(int64(s.Failed)),
		}
	}
	data := make([][]string, 0, len(r.Steps)+1)
	for _, s := range r.Steps {
		data = append(data, row(*s))
	}
	data = append(data, row(r.Totals()))

	table := tablewriter.NewTable(w)
	table.Header([]string{"Step", "Created", "Skipped", "Failed"})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
