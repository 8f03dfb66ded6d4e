// Command productmix turns a dealer master export and a monthly sales
// extract into a per-account category mix: totals and percentages for
// Adura, Wood & Laminate, Sundries, NS & Resp and Sheet.
//
// It prints a dealer summary, data-quality warnings, the top accounts by
// sales, a percentage validation and sample SQL, then writes the mix table
// to CSV (and optionally XLSX).
//
// Exit codes:
//
//	0  success
//	1  usage or configuration error
//	2  input file not found
//	3  malformed input
//	4  output write failure
//	5  -strict and the run produced warnings (unmapped product groups,
//	   duplicate dealer accounts, percentage sums out of tolerance)
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"productmix/internal/config"
	"productmix/internal/metrics"
	"productmix/internal/metrics/datadog"
	"productmix/internal/metrics/prompush"
	pcsv "productmix/internal/parser/csv"
)

const (
	exitOK = iota
	exitUsage
	exitNotFound
	exitMalformed
	exitWrite
	exitStrict
)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

// cliFlags holds raw flag values. Only flags the user actually set are
// layered over the config; see applyFlags.
type cliFlags struct {
	cfgPath  string
	envFile  string
	validate bool
	verbose  bool

	dealers, sales  string
	out, xlsx       string
	mapping         string
	encoding, comma string
	repID           string
	year, month     int
	dialect         string
	sqlAll, sqlDDL  bool
	noSQL           bool
	top             int
	tolMin, tolMax  float64
	strict          bool
	metricsBackend  string
	pushgatewayURL  string
	datadogAddr     string
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, *flag.FlagSet, error) {
	f := &cliFlags{}
	fset := flag.NewFlagSet("productmix", flag.ContinueOnError)
	fset.SetOutput(stderr)

	fset.StringVar(&f.cfgPath, "config", "", "run config JSON path (optional)")
	fset.StringVar(&f.envFile, "env-file", ".env", "dotenv file with PRODUCTMIX_* defaults; ignored when absent")
	fset.BoolVar(&f.validate, "validate", false, "validate the configuration and exit")
	fset.BoolVar(&f.verbose, "v", false, "enable verbose logs")

	fset.StringVar(&f.dealers, "dealers", "", "dealer/account export CSV (4 columns)")
	fset.StringVar(&f.sales, "sales", "", "monthly sales extract CSV")
	fset.StringVar(&f.out, "out", "", "output CSV path (default "+config.DefaultOutputCSV+")")
	fset.StringVar(&f.xlsx, "xlsx", "", "optional XLSX workbook path")
	fset.StringVar(&f.mapping, "mapping", "", "YAML/JSON product-group mapping replacing the built-in table")
	fset.StringVar(&f.encoding, "encoding", "", "input encoding: utf-8 (default) or windows-1252")
	fset.StringVar(&f.comma, "comma", "", "input field delimiter (default ,)")
	fset.StringVar(&f.repID, "rep-id", "", "rep_id stamped on SQL rows (default "+config.DefaultRepID+")")
	fset.IntVar(&f.year, "year", 0, "reporting year (default current)")
	fset.IntVar(&f.month, "month", 0, "reporting month 1-12 (default current)")
	fset.StringVar(&f.dialect, "dialect", "", "SQL dialect: postgres, sqlite, mssql")
	fset.BoolVar(&f.sqlAll, "sql-all", false, "emit INSERTs for every record instead of the first")
	fset.BoolVar(&f.sqlDDL, "sql-ddl", false, "print CREATE TABLE statements before the INSERTs")
	fset.BoolVar(&f.noSQL, "no-sql", false, "skip the SQL section")
	fset.IntVar(&f.top, "top", 0, "accounts in the sales summary (default 10)")
	fset.Float64Var(&f.tolMin, "tolerance-min", 0, "lowest accepted percentage sum (default 99)")
	fset.Float64Var(&f.tolMax, "tolerance-max", 0, "highest accepted percentage sum (default 101)")
	fset.BoolVar(&f.strict, "strict", false, "exit 5 when the run produced data-quality warnings")
	fset.StringVar(&f.metricsBackend, "metrics-backend", "", "metrics backend: none, pushgateway, datadog")
	fset.StringVar(&f.pushgatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	fset.StringVar(&f.datadogAddr, "datadog-addr", "", "DogStatsD address, e.g. 127.0.0.1:8125")

	fset.Usage = func() {
		fmt.Fprintf(stderr, "usage: productmix -dealers FILE -sales FILE [flags]\n\n")
		fset.PrintDefaults()
		fmt.Fprintf(stderr, "\nexit codes: 0 ok, 1 usage/config, 2 input not found, 3 malformed input, 4 write failure, 5 strict warnings\n")
	}

	if err := fset.Parse(args); err != nil {
		return nil, nil, err
	}
	if fset.NArg() > 0 {
		return nil, nil, fmt.Errorf("unexpected arguments: %v", fset.Args())
	}
	return f, fset, nil
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(cfg *config.Run, f *cliFlags, fset *flag.FlagSet) {
	fset.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "dealers":
			cfg.Inputs.Dealers = f.dealers
		case "sales":
			cfg.Inputs.Sales = f.sales
		case "out":
			cfg.Output.CSV = f.out
		case "xlsx":
			cfg.Output.XLSX = f.xlsx
		case "mapping":
			cfg.Mapping = f.mapping
		case "encoding":
			cfg.Inputs.Encoding = f.encoding
		case "comma":
			cfg.Inputs.Comma = f.comma
		case "rep-id":
			cfg.Period.RepID = f.repID
		case "year":
			cfg.Period.Year = f.year
		case "month":
			cfg.Period.Month = f.month
		case "dialect":
			cfg.SQL.Dialect = f.dialect
		case "sql-all":
			cfg.SQL.All = f.sqlAll
		case "sql-ddl":
			cfg.SQL.DDL = f.sqlDDL
		case "no-sql":
			cfg.SQL.Disabled = f.noSQL
		case "top":
			cfg.Report.Top = f.top
		case "tolerance-min":
			cfg.Tolerance.Min = f.tolMin
		case "tolerance-max":
			cfg.Tolerance.Max = f.tolMax
		case "strict":
			cfg.Strict = f.strict
		case "metrics-backend":
			cfg.Metrics.Backend = f.metricsBackend
		case "pushgateway-url":
			cfg.Metrics.PushgatewayURL = f.pushgatewayURL
		case "datadog-addr":
			cfg.Metrics.DatadogAddr = f.datadogAddr
		}
	})
}

// resolveConfig layers flags over the config file over the environment over
// defaults.
func resolveConfig(f *cliFlags, fset *flag.FlagSet, getenv func(string) string, now time.Time) (config.Run, error) {
	var cfg config.Run
	if f.cfgPath != "" {
		var err error
		if cfg, err = config.Load(f.cfgPath); err != nil {
			return config.Run{}, err
		}
	}
	applyFlags(&cfg, f, fset)
	cfg.ApplyEnv(getenv)
	cfg.ApplyDefaults(now)
	return cfg, nil
}

func realMain(args []string, stdout, stderr io.Writer) int {
	f, fset, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}

	if f.envFile != "" {
		if err := godotenv.Load(f.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Printf("env: load %s: %v", f.envFile, err)
		}
	}

	cfg, err := resolveConfig(f, fset, os.Getenv, time.Now())
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}

	issues := config.ValidateRun(cfg)
	for _, iss := range issues {
		fmt.Fprintf(stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("configuration is invalid")
		return exitUsage
	}
	if f.validate {
		log.Printf("configuration is valid")
		return exitOK
	}

	runID := uuid.NewString()
	log.SetPrefix("productmix " + runID[:8] + " ")

	flush := setupMetrics(cfg, runID, f.verbose)
	defer flush()

	start := time.Now()
	if f.verbose {
		log.Printf("run: id=%s job=%s dealers=%s sales=%s period=%s/%d-%02d",
			runID, cfg.Job, cfg.Inputs.Dealers, cfg.Inputs.Sales, cfg.Period.RepID, cfg.Period.Year, cfg.Period.Month)
	}

	out, err := run(context.Background(), cfg, stdout)
	if f.verbose {
		log.Printf("completed in %s", time.Since(start).Truncate(time.Millisecond))
	}
	return exitCode(out, err, cfg.Strict)
}

// setupMetrics installs the configured backend and returns its flush func.
// Backend failures never fail the run.
func setupMetrics(cfg config.Run, runID string, verbose bool) func() {
	noop := func() {}

	var b metrics.Backend
	switch cfg.Metrics.Backend {
	case "pushgateway":
		pb, err := prompush.NewBackend(cfg.Job, cfg.Metrics.PushgatewayURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
			return noop
		}
		log.Printf("metrics: url=%v, backend=pushgateway, job_name=%v", cfg.Metrics.PushgatewayURL, cfg.Job)
		b = pb

	case "datadog":
		tags := append([]string{"job:" + cfg.Job, "run_id:" + runID}, cfg.Metrics.DatadogTags...)
		db, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.DatadogAddr,
			Namespace:  cfg.Metrics.DatadogNamespace,
			GlobalTags: tags,
		})
		if err != nil {
			log.Printf("metrics: failed to init datadog backend: %v; using nop", err)
			return noop
		}
		log.Printf("metrics: addr=%v, backend=datadog", cfg.Metrics.DatadogAddr)
		b = db

	case "", "none":
		if verbose {
			log.Printf("metrics: disabled")
		}
		return noop

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", cfg.Metrics.Backend)
		return noop
	}

	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: flush error: %v", err)
		}
	}
}

// exitCode maps a run result to the documented exit status.
func exitCode(out outcome, err error, strict bool) int {
	switch {
	case err == nil:
		if strict && out.Warnings() > 0 {
			log.Printf("strict: %d warning(s)", out.Warnings())
			return exitStrict
		}
		return exitOK
	case errors.Is(err, config.ErrInvalid):
		log.Printf("%v", err)
		return exitUsage
	case errors.Is(err, errWrite):
		log.Printf("%v", err)
		return exitWrite
	case errors.Is(err, fs.ErrNotExist):
		log.Printf("%v", err)
		return exitNotFound
	case errors.Is(err, pcsv.ErrMalformed):
		log.Printf("%v", err)
		return exitMalformed
	default:
		log.Printf("%v", err)
		return exitUsage
	}
}
