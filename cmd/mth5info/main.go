// Inspection tool for MTH5 container files
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-mth5/mth5"
)

func main() {
	var (
		showStandards = flag.Bool("standards", false, "print the metadata standards summary")
		filterName    = flag.String("filter", "", "decode one filter and print its fields")
		freqList      = flag.String("freqs", "", "comma-separated frequencies in Hz to evaluate -filter at")
		verbose       = flag.Bool("v", false, "enable debug logging")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: mth5info [flags] <file.h5>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	f, err := mth5.Open(flag.Arg(0), mth5.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	fmt.Printf("%s (MTH5 v%s)\n\n", f.Path(), f.Version())

	if err := printFilters(f); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}

	if *showStandards {
		if err := printStandards(f); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
	}

	if *filterName != "" {
		if err := printFilter(f, *filterName, *freqList); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
	}
}

func printFilters(f *mth5.File) error {
	dict, err := f.FiltersGroup().FilterDict()
	if err != nil {
		return fmt.Errorf("listing filters: %w", err)
	}

	names := make([]string, 0, len(dict))
	for name := range dict {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("Filters: %d\n", len(names))
	for _, name := range names {
		entry := dict[name]
		fmt.Printf("  %-30s %-12s %s\n", name, entry.Type, entry.Path)
	}
	return nil
}

func printStandards(f *mth5.File) error {
	entries, err := f.StandardsGroup().Summary()
	if err != nil {
		return fmt.Errorf("reading standards: %w", err)
	}

	fmt.Printf("\nStandards: %d attributes\n", len(entries))
	for _, e := range entries {
		required := "optional"
		if e.Required {
			required = "required"
		}
		fmt.Printf("  %-22s %-8s %-8s %s\n", e.Attribute, e.Type, required, e.Description)
	}
	return nil
}

func printFilter(f *mth5.File, name, freqList string) error {
	flt, err := f.FiltersGroup().GetFilter(name)
	if err != nil {
		return err
	}

	in, out := flt.Units()
	fmt.Printf("\nFilter %q:\n", flt.FilterName())
	fmt.Printf("  kind:      %s\n", flt.Kind())
	fmt.Printf("  units:     %s -> %s\n", in, out)

	if freqList == "" {
		return nil
	}

	var freqs []float64
	for _, part := range strings.Split(freqList, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return fmt.Errorf("parsing frequency %q: %w", part, err)
		}
		freqs = append(freqs, v)
	}

	response := flt.ComplexResponse(freqs)
	fmt.Println("  response:")
	for i, freq := range freqs {
		fmt.Printf("    %12.6g Hz: %v\n", freq, response[i])
	}
	return nil
}
