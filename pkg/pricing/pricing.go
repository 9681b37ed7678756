// Package pricing maps model identifiers to token prices and estimates the
// cost of a run from its token counts.
package pricing

import (
	"errors"
	"io"
	"sort"

	pkgerrors "github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidModel = errors.New("invalid model")
	ErrInvalidInput = errors.New("invalid input")
)

// Price is the USD cost of a single input and output token.
type Price struct {
	Input  decimal.Decimal
	Output decimal.Decimal
}

// PerMillion builds a Price from USD per one million tokens.
func PerMillion(input, output float64) Price {
	return Price{
		Input:  decimal.NewFromFloat(input).Shift(-6),
		Output: decimal.NewFromFloat(output).Shift(-6),
	}
}

// Table is an immutable model -> Price lookup. It is safe for concurrent use.
type Table struct {
	prices map[string]Price
}

func NewTable(prices map[string]Price) *Table {
	t := &Table{prices: make(map[string]Price, len(prices))}
	for model, p := range prices {
		t.prices[model] = p
	}
	return t
}

// DefaultTable returns the built-in prices for the OpenAI models the assistant
// runner is allowed to use.
func DefaultTable() *Table {
	return NewTable(map[string]Price{
		"gpt-3.5-turbo-0125":     PerMillion(0.5, 1.5),
		"gpt-3.5-turbo-instruct": PerMillion(1.5, 2.5),
		"gpt-4-0125-preview":     PerMillion(10, 30),
		"gpt-4-turbo-2024-04-09": PerMillion(10, 30),
		"gpt-4o":                 PerMillion(5, 15),
	})
}

type fileEntry struct {
	Input  float64 `yaml:"input"`
	Output float64 `yaml:"output"`
}

// LoadTable reads a YAML document mapping model names to {input, output}
// prices in USD per million tokens.
//
//	gpt-4o:
//	  input: 5
//	  output: 15
func LoadTable(r io.Reader) (*Table, error) {
	var entries map[string]fileEntry
	if err := yaml.NewDecoder(r).Decode(&entries); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to decode pricing table")
	}
	if len(entries) == 0 {
		return nil, pkgerrors.New("pricing table is empty")
	}

	prices := make(map[string]Price, len(entries))
	for model, e := range entries {
		if model == "" {
			return nil, pkgerrors.New("pricing table contains an empty model name")
		}
		if e.Input < 0 || e.Output < 0 {
			return nil, pkgerrors.Errorf("negative price for model %s", model)
		}
		prices[model] = PerMillion(e.Input, e.Output)
	}
	return NewTable(prices), nil
}

func (t *Table) Has(model string) bool {
	_, ok := t.prices[model]
	return ok
}

func (t *Table) Lookup(model string) (Price, bool) {
	p, ok := t.prices[model]
	return p, ok
}

// Models returns the known model names in sorted order.
func (t *Table) Models() []string {
	models := make([]string, 0, len(t.prices))
	for m := range t.prices {
		models = append(models, m)
	}
	sort.Strings(models)
	return models
}

// WriteYAML writes the table in the format LoadTable reads.
func (t *Table) WriteYAML(w io.Writer) error {
	entries := make(map[string]fileEntry, len(t.prices))
	for model, p := range t.prices {
		entries[model] = fileEntry{
			Input:  p.Input.Shift(6).InexactFloat64(),
			Output: p.Output.Shift(6).InexactFloat64(),
		}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(entries); err != nil {
		return pkgerrors.Wrap(err, "failed to encode pricing table")
	}
	return enc.Close()
}

// Estimate returns input*inputTokens + output*outputTokens for model.
// A missing model or a zero token count is a caller error.
func (t *Table) Estimate(model string, inputTokens, outputTokens int) (decimal.Decimal, error) {
	if model == "" {
		return decimal.Zero, pkgerrors.Wrap(ErrInvalidInput, "model is required")
	}
	if inputTokens <= 0 {
		return decimal.Zero, pkgerrors.Wrap(ErrInvalidInput, "inputTokens is required")
	}
	if outputTokens <= 0 {
		return decimal.Zero, pkgerrors.Wrap(ErrInvalidInput, "outputTokens is required")
	}

	p, ok := t.prices[model]
	if !ok {
		return decimal.Zero, pkgerrors.Wrapf(ErrInvalidModel, "no price for model %s", model)
	}

	in := p.Input.Mul(decimal.NewFromInt(int64(inputTokens)))
	out := p.Output.Mul(decimal.NewFromInt(int64(outputTokens)))
	return in.Add(out), nil
}
