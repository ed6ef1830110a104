// Command gendata writes a synthetic five-file basin in the formats the
// pipeline reads: a NOAA-style precipitation CSV and four USGS-style RDB
// files for lake level and the three tributary discharges. The same seed
// always produces the same files, so generated fixtures are reproducible
// across machines.
//
// Usage:
//
//	go run ./cmd/gendata -out data [-start 1952] [-years 71] [-seed 1] [-decline]
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/couchcryptid/lake-balance/internal/fixture"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output directory for the generated files")
	start := flag.Int("start", 1952, "first year of the generated series")
	years := flag.Int("years", 71, "number of years to generate")
	seed := flag.Int64("seed", 1, "random seed")
	decline := flag.Bool("decline", true, "generate declining inputs so the current epoch runs a deficit")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	if *years < 2 {
		return fmt.Errorf("need at least 2 years, got %d", *years)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	precipTrend, levelTrend := 0.0, 0.0
	weberTrend, jordanTrend, bearTrend := 0.0, 0.0, 0.0
	if *decline {
		precipTrend, levelTrend = -0.04, -0.15
		weberTrend, jordanTrend, bearTrend = -12, -6, -16
	}

	type def struct {
		file  string
		write func(path string) error
		rows  int
	}

	yearsP, precip := fixture.Annual(*seed, *start, *years, 16, precipTrend, 2.5)
	_, level := fixture.Annual(*seed+1, *start, *years, 4205, levelTrend, 1.2)
	_, weber := fixture.Annual(*seed+2, *start, *years, 1600, weberTrend, 180)
	_, jordan := fixture.Annual(*seed+3, *start, *years, 700, jordanTrend, 90)
	_, bear := fixture.Annual(*seed+4, *start, *years, 2100, bearTrend, 240)

	defs := []def{
		{"GSL-precip.csv", func(p string) error {
			return fixture.WriteMonthlyFile(p, "Great Salt Lake Basin Precipitation", yearsP, precip)
		}, len(precip)},
		{"GSL-waterlevel.csv", func(p string) error {
			return fixture.WriteGaugeFile(p, "10010000", "00065", yearsP, level)
		}, len(level)},
		{"WeberRiver-Q.csv", func(p string) error {
			return fixture.WriteGaugeFile(p, "10141000", "00060", yearsP, weber)
		}, len(weber)},
		{"JordanRiver-Q.csv", func(p string) error {
			return fixture.WriteGaugeFile(p, "10171000", "00060", yearsP, jordan)
		}, len(jordan)},
		{"BearRiver-Q.csv", func(p string) error {
			return fixture.WriteGaugeFile(p, "10126000", "00060", yearsP, bear)
		}, len(bear)},
	}

	for _, d := range defs {
		path := filepath.Join(*out, d.file)
		if err := d.write(path); err != nil {
			return fmt.Errorf("writing %s: %w", d.file, err)
		}
		log.Printf("%s: %d rows", path, d.rows)
	}

	log.Printf("wrote %d files to %s (seed %d, %d-%d)",
		len(defs), *out, *seed, *start, *start+*years-1)
	return nil
}
