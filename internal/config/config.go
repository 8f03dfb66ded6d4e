// Package config defines the JSON run configuration of a product-mix run and
// the environment fallbacks beneath it.
//
// Precedence, highest first: command-line flags (applied by the caller),
// the config file, PRODUCTMIX_* environment variables, built-in defaults.
//
// Example:
//
//	{
//	  "job": "productmix",
//	  "inputs":  { "dealers": "data/account-number-group.csv", "sales": "data/monthly-sales.csv" },
//	  "output":  { "csv": "out/product_mix_output.csv", "xlsx": "out/product_mix.xlsx" },
//	  "period":  { "rep_id": "78", "year": 2025, "month": 11 },
//	  "sql":     { "dialect": "postgres", "all": false },
//	  "metrics": { "backend": "pushgateway", "pushgateway_url": "http://localhost:9091" }
//	}
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid is matched by every configuration failure: unreadable or
// undecodable files and error-severity issues.
var ErrInvalid = errors.New("invalid configuration")

// Run is the top-level config object.
type Run struct {
	// Job labels logs and metrics.
	Job string `json:"job"`

	Inputs    Inputs    `json:"inputs"`
	Output    Output    `json:"output"`
	Period    Period    `json:"period"`
	SQL       SQL       `json:"sql"`
	Report    Report    `json:"report"`
	Tolerance Tolerance `json:"tolerance"`
	Metrics   Metrics   `json:"metrics"`

	// Mapping is an optional YAML/JSON file replacing the built-in
	// product-group table.
	Mapping string `json:"mapping"`

	// Strict turns data-quality warnings into a failing exit status.
	Strict bool `json:"strict"`
}

// Inputs locates the two exports.
type Inputs struct {
	Dealers  string `json:"dealers"`
	Sales    string `json:"sales"`
	Encoding string `json:"encoding"`
	Comma    string `json:"comma"`
}

// Output names the files written. An empty path skips that output.
type Output struct {
	CSV  string `json:"csv"`
	XLSX string `json:"xlsx"`
}

// Period is the reporting month stamped on SQL rows.
type Period struct {
	RepID string `json:"rep_id"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
}

// SQL controls the sample statement output.
type SQL struct {
	Dialect string `json:"dialect"`

	// All emits an INSERT for every record instead of the first only.
	All bool `json:"all"`

	// DDL prefixes the statements with CREATE TABLE text.
	DDL bool `json:"ddl"`

	// Disabled suppresses the SQL section entirely.
	Disabled bool `json:"disabled"`
}

// Report sizes the console summary.
type Report struct {
	Top          int `json:"top"`
	DealerSample int `json:"dealer_sample"`
}

// Tolerance bounds the per-account percentage sum. Zero means unset.
type Tolerance struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Metrics selects an optional metrics backend.
type Metrics struct {
	// Backend is "none", "pushgateway" or "datadog".
	Backend          string   `json:"backend"`
	PushgatewayURL   string   `json:"pushgateway_url"`
	DatadogAddr      string   `json:"datadog_addr"`
	DatadogNamespace string   `json:"datadog_namespace"`
	DatadogTags      []string `json:"datadog_tags"`
}

// Built-in defaults.
const (
	DefaultJob          = "productmix"
	DefaultOutputCSV    = "product_mix_output.csv"
	DefaultRepID        = "78"
	DefaultDialect      = "postgres"
	DefaultTop          = 10
	DefaultDealerSample = 10
	DefaultToleranceMin = 99.0
	DefaultToleranceMax = 101.0
	DefaultMetrics      = "none"
	DefaultPushgateway  = "http://localhost:9091"
)

// Load reads and decodes a config file. Unknown fields are rejected.
func Load(path string) (Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return Run{}, fmt.Errorf("%w: open config: %w", ErrInvalid, err)
	}
	defer f.Close()
	r, err := Decode(f)
	if err != nil {
		return Run{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Decode parses a config document.
func Decode(rd io.Reader) (Run, error) {
	var r Run
	dec := json.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return Run{}, fmt.Errorf("%w: decode config: %v", ErrInvalid, err)
	}
	return r, nil
}

// ApplyEnv fills fields still unset from PRODUCTMIX_* variables read with
// getenv. PUSHGATEWAY_URL is honored as well.
func (r *Run) ApplyEnv(getenv func(string) string) {
	str := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := strings.TrimSpace(getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	str(&r.Job, "PRODUCTMIX_JOB")
	str(&r.Inputs.Dealers, "PRODUCTMIX_DEALERS")
	str(&r.Inputs.Sales, "PRODUCTMIX_SALES")
	str(&r.Inputs.Encoding, "PRODUCTMIX_ENCODING")
	str(&r.Output.CSV, "PRODUCTMIX_OUT")
	str(&r.Output.XLSX, "PRODUCTMIX_XLSX")
	str(&r.Mapping, "PRODUCTMIX_MAPPING")
	str(&r.Period.RepID, "PRODUCTMIX_REP_ID")
	str(&r.SQL.Dialect, "PRODUCTMIX_DIALECT")
	str(&r.Metrics.Backend, "PRODUCTMIX_METRICS_BACKEND", "METRICS_BACKEND")
	str(&r.Metrics.PushgatewayURL, "PRODUCTMIX_PUSHGATEWAY_URL", "PUSHGATEWAY_URL")
	str(&r.Metrics.DatadogAddr, "PRODUCTMIX_DATADOG_ADDR")

	r.Period.Year = pickInt(r.Period.Year, getenvInt(getenv, "PRODUCTMIX_YEAR", 0))
	r.Period.Month = pickInt(r.Period.Month, getenvInt(getenv, "PRODUCTMIX_MONTH", 0))
	r.Report.Top = pickInt(r.Report.Top, getenvInt(getenv, "PRODUCTMIX_TOP", 0))
	r.Tolerance.Min = pickFloat(r.Tolerance.Min, getenvFloat(getenv, "PRODUCTMIX_TOLERANCE_MIN", 0))
	r.Tolerance.Max = pickFloat(r.Tolerance.Max, getenvFloat(getenv, "PRODUCTMIX_TOLERANCE_MAX", 0))

	if !r.Strict {
		r.Strict, _ = strconv.ParseBool(getenv("PRODUCTMIX_STRICT"))
	}
}

// ApplyDefaults fills whatever is still unset. Year and month default to
// the month of now.
func (r *Run) ApplyDefaults(now time.Time) {
	def := func(dst *string, v string) {
		if *dst == "" {
			*dst = v
		}
	}
	def(&r.Job, DefaultJob)
	def(&r.Output.CSV, DefaultOutputCSV)
	def(&r.Period.RepID, DefaultRepID)
	def(&r.SQL.Dialect, DefaultDialect)
	def(&r.Metrics.Backend, DefaultMetrics)
	if r.Metrics.Backend == "pushgateway" {
		def(&r.Metrics.PushgatewayURL, DefaultPushgateway)
	}

	r.Period.Year = pickInt(r.Period.Year, now.Year())
	r.Period.Month = pickInt(r.Period.Month, int(now.Month()))
	r.Report.Top = pickInt(r.Report.Top, DefaultTop)
	r.Report.DealerSample = pickInt(r.Report.DealerSample, DefaultDealerSample)
	r.Tolerance.Min = pickFloat(r.Tolerance.Min, DefaultToleranceMin)
	r.Tolerance.Max = pickFloat(r.Tolerance.Max, DefaultToleranceMax)
}

// CommaRune returns the input delimiter rune, or 0 for the parser default.
func (i Inputs) CommaRune() rune {
	for _, c := range i.Comma {
		return c
	}
	return 0
}

func getenvInt(getenv func(string) string, k string, def int) int {
	if s := getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(getenv func(string) string, k string, def float64) float64 {
	if s := getenv(k); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return def
}

// pickInt chooses the first positive value 'a', otherwise returns 'b'.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}

func pickFloat(a, b float64) float64 {
	if a > 0 {
		return a
	}
	return b
}
