package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"productmix/internal/category"
	"productmix/internal/config"
	"productmix/internal/datasource/file"
	"productmix/internal/dealer"
	"productmix/internal/export"
	"productmix/internal/metrics"
	"productmix/internal/mix"
	"productmix/internal/report"
	"productmix/internal/sqlgen"
	"productmix/internal/validate"
)

// errWrite marks failures writing output files.
var errWrite = errors.New("write output")

// Function variables used to introduce test seams.
var (
	openInputFn = func(ctx context.Context, path string) (io.ReadCloser, error) {
		return file.NewLocal(path).Open(ctx)
	}
	loadMappingFn = category.LoadFile
	writeCSVFn    = export.WriteCSVFile
	writeXLSXFn   = export.WriteXLSX
)

// outcome carries the data-quality findings of a completed run.
type outcome struct {
	Duplicates     int
	Unmapped       int
	OutOfTolerance int
}

// Warnings is the number of findings that fail a strict run.
func (o outcome) Warnings() int { return o.Duplicates + o.Unmapped + o.OutOfTolerance }

// run executes load → aggregate → report → validate → SQL → write. It stops
// at the first error; data-quality findings are returned in outcome.
func run(ctx context.Context, cfg config.Run, stdout io.Writer) (outcome, error) {
	var out outcome
	rep := report.New(stdout)

	// Both inputs must exist before anything is printed or written.
	for _, in := range []struct{ what, path string }{
		{"Dealer list CSV", cfg.Inputs.Dealers},
		{"Monthly sales CSV", cfg.Inputs.Sales},
	} {
		if err := file.NewLocal(in.path).Check(); err != nil {
			rep.Error("%s not found at %s", in.what, in.path)
			return out, err
		}
	}

	mp := category.Default()
	if cfg.Mapping != "" {
		m, err := loadMappingFn(cfg.Mapping)
		if err != nil {
			return out, fmt.Errorf("%w: %w", config.ErrInvalid, err)
		}
		mp = m
		log.Printf("mapping: %d labels from %s", mp.Len(), cfg.Mapping)
	}

	// Dealers.
	start := time.Now()
	dealers, err := loadDealers(ctx, cfg)
	metrics.RecordStep(cfg.Job, "load_dealers", err, time.Since(start))
	if err != nil {
		return out, err
	}
	metrics.RecordRow(cfg.Job, "dealers", int64(dealers.Len()))
	rep.Dealers(dealers, cfg.Report.DealerSample)
	rep.Duplicates(dealers.Duplicates)
	out.Duplicates = len(dealers.Duplicates)
	metrics.RecordWarning(cfg.Job, "duplicate_dealer", int64(out.Duplicates))

	// Sales.
	start = time.Now()
	ex, res, err := aggregate(ctx, cfg, mp, dealers)
	metrics.RecordStep(cfg.Job, "aggregate", err, time.Since(start))
	if err != nil {
		return out, err
	}
	rep.Sales(res, len(ex.Skipped))
	rep.Unmapped(res.Unmapped)
	out.Unmapped = len(res.Unmapped)

	unmappedRows := 0
	for _, u := range res.Unmapped {
		unmappedRows += u.Rows
	}
	metrics.RecordRow(cfg.Job, "sales_lines", int64(res.Lines))
	metrics.RecordRow(cfg.Job, "unmapped_rows", int64(unmappedRows))
	metrics.RecordRow(cfg.Job, "accounts", int64(len(res.Records)))
	metrics.RecordWarning(cfg.Job, "unmapped_label", int64(out.Unmapped))

	rep.Top(res.Records, cfg.Report.Top)

	// Validation.
	start = time.Now()
	tol, err := validate.NewTolerance(cfg.Tolerance.Min, cfg.Tolerance.Max)
	if err != nil {
		metrics.RecordStep(cfg.Job, "validate", err, time.Since(start))
		return out, fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}
	vr := validate.Check(res.Records, tol)
	metrics.RecordStep(cfg.Job, "validate", nil, time.Since(start))
	rep.Validation(vr)
	out.OutOfTolerance = len(vr.OutOfTolerance)
	metrics.RecordRow(cfg.Job, "out_of_tolerance", int64(out.OutOfTolerance))

	if !cfg.SQL.Disabled {
		if err := printSQL(rep, cfg, dealers, res.Records); err != nil {
			return out, err
		}
	}

	// Outputs.
	start = time.Now()
	err = writeOutputs(cfg, res.Records)
	metrics.RecordStep(cfg.Job, "write_output", err, time.Since(start))
	if err != nil {
		return out, err
	}

	rep.Summary(report.Summarize(dealers, res), cfg.Output.CSV, cfg.Output.XLSX)
	return out, nil
}

func loadDealers(ctx context.Context, cfg config.Run) (*dealer.Table, error) {
	rc, err := openInputFn(ctx, cfg.Inputs.Dealers)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	t, err := dealer.Load(rc, dealer.Options{Comma: cfg.Inputs.CommaRune(), Encoding: cfg.Inputs.Encoding})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.Inputs.Dealers, err)
	}
	if len(t.Skipped) > 0 {
		log.Printf("dealers: skipped %d row(s) with blank name or account", len(t.Skipped))
	}
	return t, nil
}

func aggregate(ctx context.Context, cfg config.Run, mp category.Mapping, dealers *dealer.Table) (*mix.Extract, mix.Result, error) {
	rc, err := openInputFn(ctx, cfg.Inputs.Sales)
	if err != nil {
		return nil, mix.Result{}, err
	}
	defer rc.Close()

	ex, err := mix.ReadSales(rc, mix.ReadOptions{Comma: cfg.Inputs.CommaRune(), Encoding: cfg.Inputs.Encoding})
	if err != nil {
		return nil, mix.Result{}, fmt.Errorf("%s: %w", cfg.Inputs.Sales, err)
	}
	if len(ex.Skipped) > 0 {
		log.Printf("sales: skipped %d row(s) with blank account number", len(ex.Skipped))
	}
	return ex, mix.Aggregate(ex.Lines, mp, dealers), nil
}

// printSQL renders sample statements: the first dealer and mix record, or
// every record with SQL.All.
func printSQL(rep *report.Reporter, cfg config.Run, dealers *dealer.Table, recs []mix.Record) error {
	d, err := sqlgen.ParseDialect(cfg.SQL.Dialect)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalid, err)
	}

	var ddl []string
	if cfg.SQL.DDL {
		if ddl, err = sqlgen.CreateTables(d); err != nil {
			return err
		}
	}

	drecs, mrecs := dealers.Records, recs
	if !cfg.SQL.All {
		drecs, mrecs = firstN(drecs, 1), firstN(mrecs, 1)
	}
	period := sqlgen.Period{RepID: cfg.Period.RepID, Year: cfg.Period.Year, Month: cfg.Period.Month}

	dstmts := make([]string, 0, len(drecs))
	for _, r := range drecs {
		dstmts = append(dstmts, sqlgen.DealerInsert(d, r, cfg.Period.RepID))
	}
	mstmts := make([]string, 0, len(mrecs))
	for _, r := range mrecs {
		mstmts = append(mstmts, sqlgen.MixInsert(d, r, period))
	}
	rep.SQL(ddl, dstmts, mstmts)
	return nil
}

func writeOutputs(cfg config.Run, recs []mix.Record) error {
	if cfg.Output.CSV != "" {
		if err := writeCSVFn(cfg.Output.CSV, recs); err != nil {
			return fmt.Errorf("%w: %w", errWrite, err)
		}
		log.Printf("output: wrote %d record(s) to %s", len(recs), cfg.Output.CSV)
	}
	if cfg.Output.XLSX != "" {
		if err := writeXLSXFn(cfg.Output.XLSX, recs); err != nil {
			return fmt.Errorf("%w: %w", errWrite, err)
		}
		log.Printf("output: wrote workbook %s", cfg.Output.XLSX)
	}
	return nil
}

func firstN[T any](xs []T, n int) []T {
	if len(xs) > n {
		return xs[:n]
	}
	return xs
}
