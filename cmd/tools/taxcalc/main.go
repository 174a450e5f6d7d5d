// Command taxcalc computes an income tax breakdown from flags.
//
//	taxcalc -salary 1200000 -regime new
//	taxcalc -salary 900000 -80c 150000 -80d 25000 -compare
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/taxcalc/internal/calculator"
	"github.com/noah-isme/taxcalc/internal/format"
	"github.com/noah-isme/taxcalc/internal/obs"
	"github.com/noah-isme/taxcalc/internal/tax"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	salary, other, sec80C, sec80D, hra, homeLoan string
	regime                                       string
	compare, asJSON                              bool
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("taxcalc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.StringVar(&opts.salary, "salary", "0", "annual salary income")
	fs.StringVar(&opts.other, "other", "0", "other annual income")
	fs.StringVar(&opts.regime, "regime", "new", "tax regime: old or new")
	fs.StringVar(&opts.sec80C, "80c", "0", "section 80C investments (max 150000)")
	fs.StringVar(&opts.sec80D, "80d", "0", "section 80D health insurance premium")
	fs.StringVar(&opts.hra, "hra", "0", "HRA exemption")
	fs.StringVar(&opts.homeLoan, "home-loan", "0", "home loan interest")
	fs.BoolVar(&opts.compare, "compare", false, "compute both regimes and recommend one")
	fs.BoolVar(&opts.asJSON, "json", false, "print JSON instead of a table")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	in, err := opts.inputs()
	if err != nil {
		fmt.Fprintln(stderr, "taxcalc:", err)
		if errors.Is(err, tax.ErrInvalidInput) || errors.Is(err, tax.ErrUnknownRegime) {
			return 1
		}
		return 2
	}

	logger := obs.NewLoggerTo(stderr, "console", "warn")
	svc := calculator.NewService(calculator.ServiceConfig{Logger: logger})
	ctx := context.Background()

	if opts.compare {
		c, err := svc.Compare(ctx, in)
		if err != nil {
			fmt.Fprintln(stderr, "taxcalc:", err)
			return 1
		}
		if opts.asJSON {
			return writeJSON(stdout, stderr, c)
		}
		printComparison(stdout, format.Default, c)
		return 0
	}

	b, err := svc.Compute(ctx, in)
	if err != nil {
		fmt.Fprintln(stderr, "taxcalc:", err)
		return 1
	}
	if opts.asJSON {
		return writeJSON(stdout, stderr, b)
	}
	printBreakdown(stdout, format.Default, b)
	return 0
}

func (o options) inputs() (tax.TaxInputs, error) {
	regime, err := tax.ParseRegime(o.regime)
	if err != nil && !o.compare {
		return tax.TaxInputs{}, err
	}
	in := tax.TaxInputs{Regime: regime}
	amounts := []struct {
		flag  string
		raw   string
		value *decimal.Decimal
	}{
		{"salary", o.salary, &in.SalaryIncome},
		{"other", o.other, &in.OtherIncome},
		{"80c", o.sec80C, &in.Deductions.Section80C},
		{"80d", o.sec80D, &in.Deductions.Section80D},
		{"hra", o.hra, &in.HRAExemption},
		{"home-loan", o.homeLoan, &in.HomeLoanInterest},
	}
	for _, a := range amounts {
		v, err := decimal.NewFromString(a.raw)
		if err != nil {
			return tax.TaxInputs{}, fmt.Errorf("-%s %q is not a number", a.flag, a.raw)
		}
		*a.value = v
	}
	if limit := tax.Section80CLimit(); in.Deductions.Section80C.GreaterThan(limit) {
		return tax.TaxInputs{}, fmt.Errorf("%w: -80c must not exceed %s", tax.ErrInvalidInput, limit)
	}
	return in, nil
}

func printBreakdown(w io.Writer, cur format.Currency, b tax.TaxBreakdown) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Regime\t%s\t\n", b.Regime)
	for _, f := range cur.Breakdown(b) {
		fmt.Fprintf(tw, "%s\t%s\t\n", f.Label, f.Value)
	}
	_ = tw.Flush()
	if b.IgnoredDeductions.IsPositive() {
		fmt.Fprintf(w, "%s of deductions not allowed under the %s regime\n", cur.Amount(b.IgnoredDeductions), b.Regime)
	}
	if b.RebateApplied {
		fmt.Fprintln(w, "Rebate applied: no tax payable")
	}
}

func printComparison(w io.Writer, cur format.Currency, c tax.Comparison) {
	oldFields := cur.Breakdown(c.Old)
	newFields := cur.Breakdown(c.New)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\t%s\t\n", tax.RegimeOld, tax.RegimeNew)
	for i := range oldFields {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", oldFields[i].Label, oldFields[i].Value, newFields[i].Value)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "Recommended: %s regime (saves %s)\n", c.Recommended, cur.Amount(c.Savings))
}

func writeJSON(stdout, stderr io.Writer, v any) int {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintln(stderr, "taxcalc:", err)
		return 1
	}
	return 0
}
