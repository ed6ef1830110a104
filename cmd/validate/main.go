// Command validate checks the configured input files before an analysis
// run: each file against its expected schema, the cross-file date
// intersection, and coverage of both averaging epochs. Phases report
// PASS/FAIL and the process exits non-zero when any phase fails.
//
// Usage:
//
//	go run ./cmd/validate [-data-dir data]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/lake-balance/internal/config"
	"github.com/couchcryptid/lake-balance/internal/domain"
	"github.com/couchcryptid/lake-balance/internal/pipeline"
	"github.com/couchcryptid/lake-balance/internal/source"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	dataDir := flag.String("data-dir", cfg.DataDir, "directory containing the input files")
	flag.Parse()
	cfg.DataDir = *dataDir

	if code := run(cfg); code != 0 {
		os.Exit(code)
	}
}

func run(cfg *config.Config) int {
	fmt.Println("=== Water-Balance Input Validation ===")
	fmt.Println()

	sources := pipeline.Sources(cfg)

	schemas := &phase{name: "source file schemas"}
	series := loadSeries(sources, schemas)

	alignment := &phase{name: "cross-file alignment"}
	coverage := &phase{name: "epoch coverage"}
	if schemas.passed() {
		table := checkAlignment(series, alignment)
		checkCoverage(table, cfg.Basin(), coverage)
	} else {
		alignment.errorf("skipped: schema phase failed")
		coverage.errorf("skipped: schema phase failed")
	}

	phases := []*phase{schemas, alignment, coverage}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-28s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Println()
		fmt.Printf("%s:\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}
	fmt.Println()
	fmt.Println("All inputs valid.")
	return 0
}

// loadSeries reads every source, collecting schema failures instead of
// stopping at the first, so one run reports every broken file.
func loadSeries(sources []pipeline.Source, p *phase) []domain.Series {
	var series []domain.Series
	for _, src := range sources {
		var (
			s       domain.Series
			skipped int
			err     error
		)
		switch src.Format {
		case pipeline.FormatMonthly:
			s, err = source.ReadMonthlyFile(src.Path, src.Column, src.SkipRows)
		case pipeline.FormatGauge:
			s, skipped, err = source.ReadGaugeFile(src.Path, src.Column)
		}
		if err != nil {
			p.errorf("%v", err)
			continue
		}
		if s.Len() == 0 {
			p.errorf("%s: no observations", src.Path)
			continue
		}
		if skipped > 0 {
			fmt.Printf("  note: %s has %d missing observations\n", src.Path, skipped)
		}
		series = append(series, s)
	}
	return series
}

func checkAlignment(series []domain.Series, p *phase) domain.Table {
	table, err := domain.Align(series...)
	if err != nil {
		p.errorf("align: %v", err)
		return domain.Table{}
	}
	if table.Len() == 0 {
		p.errorf("no shared dates across all %d series", len(series))
		return table
	}

	dates := table.Dates()
	fmt.Printf("  note: %d aligned rows, %s to %s\n",
		table.Len(), dates[0].Format("2006"), dates[len(dates)-1].Format("2006"))
	return table
}

func checkCoverage(table domain.Table, basin domain.Basin, p *phase) {
	if table.Len() == 0 {
		p.errorf("skipped: no aligned rows")
		return
	}
	if n := table.Between(basin.Reference.Start, basin.Reference.End).Len(); n == 0 {
		p.errorf("reference epoch %s to %s has no aligned rows",
			basin.Reference.Start.Format("2006-01-02"), basin.Reference.End.Format("2006-01-02"))
	}
	if n := table.Between(basin.Current.Start, basin.Current.End).Len(); n == 0 {
		p.errorf("current epoch %s to %s has no aligned rows",
			basin.Current.Start.Format("2006-01-02"), basin.Current.End.Format("2006-01-02"))
	}
}
