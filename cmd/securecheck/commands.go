package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/pkordes/securecheck/internal/domain"
	"github.com/pkordes/securecheck/internal/filter"
	"github.com/pkordes/securecheck/internal/report"
	"github.com/pkordes/securecheck/internal/service"
)

// The CLI depends on these narrow views of the services so commands can be
// tested with fakes.
type stopService interface {
	PredictOutcome(ctx context.Context, violation string, drugs bool) string
	Insert(ctx context.Context, n domain.NewStop) (service.Confirmation, error)
	ListRecent(ctx context.Context, limit *int) ([]domain.StopRecord, error)
	Delete(ctx context.Context, vehicle string, at domain.TimeOfDay) (int64, error)
	Browse(ctx context.Context, c filter.Criteria) (service.Browse, error)
}

type reportService interface {
	List(ctx context.Context, tier string) ([]report.Definition, error)
	Run(ctx context.Context, id string) (report.Result, error)
}

type exporter interface {
	WriteCSV(ctx context.Context, w io.Writer, c filter.Criteria) (int, error)
}

type app struct {
	stops   stopService
	reports reportService
	export  exporter
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string, out io.Writer) error
}

var commands = map[string]command{
	"reports": {"list the report catalog", runReports},
	"run":     {"run one report by id", runReport},
	"browse":  {"list records matching a filter with headline counts", runBrowse},
	"recent":  {"list the most recently stopped records", runRecent},
	"predict": {"predict the outcome for a violation", runPredict},
	"add":     {"add a record; the outcome is predicted", runAdd},
	"delete":  {"delete records by vehicle number and stop time", runDelete},
	"export":  {"write records matching a filter as CSV", runExport},
}

var commandOrder = []string{"reports", "run", "browse", "recent", "predict", "add", "delete", "export"}

func dispatch(ctx context.Context, a *app, name string, args []string, out io.Writer) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	return cmd.run(ctx, a, args, out)
}

// newFlagSet returns a flag set that reports parse errors instead of exiting.
// -h prints the flags and surfaces as flag.ErrHelp, which exits cleanly.
func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("securecheck "+name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	return nil
}

// filterFlags registers the browse/export filter flags on fs. The returned
// function builds Criteria from the flags that were actually set, so unset
// flags keep filter.DefaultCriteria values.
func filterFlags(fs *flag.FlagSet) func() (filter.Criteria, error) {
	fs.String("start", "", "first stop date, YYYY-MM-DD")
	fs.String("end", "", "last stop date, YYYY-MM-DD")
	fs.String("gender", "", "All, Male or Female")
	fs.String("country", "", "comma-separated countries; empty selects none")
	fs.String("drugs", "", "All, true or false")
	fs.Bool("arrested-only", false, "only stops that ended in arrest")

	return func() (filter.Criteria, error) {
		q := url.Values{}
		fs.Visit(func(f *flag.Flag) {
			q.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
		})
		return filter.ParseCriteria(q)
	}
}

func runReports(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("reports", out)
	tier := fs.String("tier", "", "medium or complex")
	if err := parse(fs, args); err != nil {
		return err
	}

	defs, err := a.reports.List(ctx, *tier)
	if err != nil {
		return err
	}
	renderDefinitions(out, defs)
	return nil
}

func runReport(ctx context.Context, a *app, args []string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: run takes exactly one report id, one of: %s", errUsage, strings.Join(report.IDs(), ", "))
	}

	res, err := a.reports.Run(ctx, args[0])
	if err != nil {
		return err
	}

	heading := res.Definition.Label
	if res.Cached {
		heading += " (cached)"
	}
	color.New(color.FgYellow).Fprintf(out, "\n%s\n", heading)
	renderTable(out, res.Table)
	return nil
}

func runBrowse(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("browse", out)
	criteria := filterFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	c, err := criteria()
	if err != nil {
		return err
	}

	b, err := a.stops.Browse(ctx, c)
	if err != nil {
		return err
	}

	color.New(color.FgCyan).Fprintf(out, "\n%d of %d records match\n", b.Summary.Total, b.Total)
	fmt.Fprintf(out, "Filter: %s\n", c.Values().Encode())
	fmt.Fprintf(out, "Male: %d  Female: %d  Arrests: %d  Drug-related: %d\n",
		b.Summary.Male, b.Summary.Female, b.Summary.Arrests, b.Summary.DrugStops)
	renderRecords(out, b.Records)
	return nil
}

func runRecent(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("recent", out)
	limit := fs.Int("limit", 0, "number of records (default from RECENT_LIMIT)")
	if err := parse(fs, args); err != nil {
		return err
	}

	var lp *int
	if *limit > 0 {
		lp = limit
	}
	recs, err := a.stops.ListRecent(ctx, lp)
	if err != nil {
		return err
	}

	color.New(color.FgYellow).Fprintln(out, "\nRecently stopped")
	renderRecords(out, recs)
	return nil
}

func runPredict(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("predict", out)
	violation := fs.String("violation", "", "one of "+strings.Join(domain.Violations, ", "))
	drugs := fs.Bool("drugs", false, "drug-related stop")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !slices.Contains(domain.Violations, *violation) {
		return fmt.Errorf("%w: -violation must be one of %s", errUsage, strings.Join(domain.Violations, ", "))
	}

	outcome := a.stops.PredictOutcome(ctx, *violation, *drugs)
	fmt.Fprintf(out, "Predicted outcome: %s\n", color.New(color.Bold).Sprint(outcome))
	return nil
}

// stopFlags holds the add command's flag values.
type stopFlags struct {
	vehicle, date, at, country, gender, race, violation, searchType, duration string
	age                                                                       int
	searched, arrested, drugs                                                 bool
}

func (f *stopFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.vehicle, "vehicle", "", "vehicle number (required)")
	fs.StringVar(&f.date, "date", "", "stop date, YYYY-MM-DD (default today)")
	fs.StringVar(&f.at, "time", "", "stop time, HH:MM[:SS] (default now)")
	fs.StringVar(&f.country, "country", domain.Countries[0], strings.Join(domain.Countries, ", "))
	fs.StringVar(&f.gender, "gender", domain.Genders[0], strings.Join(domain.Genders, ", "))
	fs.IntVar(&f.age, "age", 18, "driver age, 18 to 100")
	fs.StringVar(&f.race, "race", domain.Races[0], strings.Join(domain.Races, ", "))
	fs.StringVar(&f.violation, "violation", domain.Violations[0], strings.Join(domain.Violations, ", "))
	fs.BoolVar(&f.searched, "searched", false, "a search was conducted")
	fs.StringVar(&f.searchType, "search-type", domain.SearchTypes[0], strings.Join(domain.SearchTypes, ", "))
	fs.BoolVar(&f.arrested, "arrested", false, "the driver was arrested")
	fs.BoolVar(&f.drugs, "drugs", false, "drug-related stop")
	fs.StringVar(&f.duration, "duration", domain.Durations[0], strings.Join(domain.Durations, ", "))
}

// newStop converts the flags to a domain.NewStop. A missing date or time
// defaults to now, the way the entry form prefills them.
func (f *stopFlags) newStop(now time.Time) (domain.NewStop, error) {
	n := domain.NewStop{
		VehicleNumber:    f.vehicle,
		Country:          f.country,
		StopDate:         time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		StopTime:         domain.TimeOfDay{Hour: now.Hour(), Minute: now.Minute()},
		DriverGender:     f.gender,
		DriverAge:        f.age,
		DriverRace:       f.race,
		Violation:        f.violation,
		SearchConducted:  f.searched,
		SearchType:       f.searchType,
		IsArrested:       f.arrested,
		DrugsRelatedStop: f.drugs,
		StopDuration:     f.duration,
	}
	if f.date != "" {
		d, err := time.Parse(domain.DateLayout, f.date)
		if err != nil {
			return domain.NewStop{}, fmt.Errorf("%w: -date must be YYYY-MM-DD", errUsage)
		}
		n.StopDate = d
	}
	if f.at != "" {
		t, err := domain.ParseTimeOfDay(f.at)
		if err != nil {
			return domain.NewStop{}, fmt.Errorf("%w: -time must be HH:MM or HH:MM:SS", errUsage)
		}
		n.StopTime = t
	}
	return n, nil
}

func runAdd(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("add", out)
	var f stopFlags
	f.register(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	n, err := f.newStop(time.Now())
	if err != nil {
		return err
	}

	conf, err := a.stops.Insert(ctx, n)
	if err != nil {
		return err
	}

	color.New(color.FgGreen).Fprintf(out, "Record added. Predicted outcome: %s\n", conf.Record.StopOutcome)
	fmt.Fprintln(out, conf.Narrative)
	if !conf.Confirmed {
		color.New(color.FgYellow).Fprintln(out, "The record was written but could not be read back.")
		return nil
	}
	renderRecords(out, conf.Rows)
	return nil
}

func runDelete(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("delete", out)
	vehicle := fs.String("vehicle", "", "vehicle number (required)")
	at := fs.String("time", "", "stop time, HH:MM[:SS] (required)")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *vehicle == "" || *at == "" {
		return fmt.Errorf("%w: delete requires -vehicle and -time", errUsage)
	}
	t, err := domain.ParseTimeOfDay(*at)
	if err != nil {
		return err
	}

	n, err := a.stops.Delete(ctx, *vehicle, t)
	if err != nil {
		return err
	}
	if n == 0 {
		color.New(color.FgYellow).Fprintf(out, "No records found for %s at %s\n", *vehicle, t)
		return nil
	}
	color.New(color.FgGreen).Fprintf(out, "Deleted %d record(s) for %s at %s\n", n, *vehicle, t)
	return nil
}

func runExport(ctx context.Context, a *app, args []string, out io.Writer) error {
	fs := newFlagSet("export", out)
	path := fs.String("o", service.ExportFilename, `output file, or "-" for stdout`)
	criteria := filterFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	c, err := criteria()
	if err != nil {
		return err
	}

	if *path == "-" {
		_, err := a.export.WriteCSV(ctx, out, c)
		return err
	}

	f, err := os.Create(*path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	n, err := a.export.WriteCSV(ctx, f, c)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(*path)
		return err
	}
	color.New(color.FgGreen).Fprintf(out, "Wrote %d records to %s\n", n, *path)
	return nil
}
