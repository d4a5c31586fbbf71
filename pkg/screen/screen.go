// Package screen implements the rule-based row filter at the heart of
// the data screening tool. A Screener owns one dataset and an ordered
// rule sequence; applying the rules narrows the dataset row by row,
// with every rule composing as a logical AND.
package screen

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/yunwei-afs/datascreen/pkg/table"
)

// Recognized predicate kinds, spelled the way rule documents spell
// them.
const (
	KindGT          = ">"
	KindGTE         = ">="
	KindLT          = "<"
	KindLTE         = "<="
	KindEQ          = "=="
	KindNEQ         = "!="
	KindContains    = "contains"
	KindNotContains = "not contains"
	KindIn          = "in"
	KindNotIn       = "not in"
)

// KnownKind reports whether kind is a recognized predicate kind.
func KnownKind(kind string) bool {
	switch kind {
	case KindGT, KindGTE, KindLT, KindLTE, KindEQ, KindNEQ,
		KindContains, KindNotContains, KindIn, KindNotIn:
		return true
	}
	return false
}

// State errors returned by Apply.
var (
	ErrNoData  = errors.New("no data loaded")
	ErrNoRules = errors.New("no rules defined")
)

// Rule is a (column, predicate kind, operand) triple. The operand is
// normalized to a slice at add time: a single element for comparison
// and substring kinds, the full membership set for in/not in. A rule
// is immutable once added.
type Rule struct {
	Column  string
	Kind    string
	Operand []table.Value
}

func (r Rule) String() string {
	ops := make([]string, len(r.Operand))
	for i, v := range r.Operand {
		ops[i] = v.String()
	}
	return fmt.Sprintf("%s %s %s", r.Column, r.Kind, strings.Join(ops, ","))
}

// operand returns the scalar operand for single-operand kinds.
func (r Rule) operand() table.Value {
	if len(r.Operand) == 0 {
		return table.Null()
	}
	return r.Operand[0]
}

// Outcome tags how a rule fared during Apply.
type Outcome int

const (
	Applied Outcome = iota
	SkippedUnknownColumn
	SkippedUnsupportedKind
)

func (o Outcome) String() string {
	switch o {
	case SkippedUnknownColumn:
		return "skipped: column not found"
	case SkippedUnsupportedKind:
		return "skipped: unsupported condition"
	}
	return "applied"
}

// Diagnostic records the outcome of one rule, in rule order. Kept is
// the row count surviving after an applied rule. Mismatches counts
// rows dropped because an ordering comparison crossed value kinds.
type Diagnostic struct {
	Rule       Rule
	Outcome    Outcome
	Kept       int
	Mismatches int
}

// Result is the output of a screening run.
type Result struct {
	Table       *table.Table
	Diagnostics []Diagnostic
}

// Skipped returns the diagnostics for rules that were not applied.
func (r *Result) Skipped() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Outcome != Applied {
			out = append(out, d)
		}
	}
	return out
}

// Screener is a single-use-or-reuse screening session: one dataset,
// one ordered rule sequence. It is not safe for concurrent use;
// callers wanting parallel runs create one Screener per goroutine.
type Screener struct {
	data   *table.Table
	rules  []Rule
	logger *slog.Logger
}

// New creates a screening session logging through logger.
func New(logger *slog.Logger) *Screener {
	return &Screener{logger: logger}
}

// SetData attaches the dataset to screen. The table is treated as
// read-only from here on.
func (s *Screener) SetData(tbl *table.Table) {
	s.data = tbl
	s.logger.Info("data loaded", "rows", tbl.Len(), "columns", len(tbl.Columns))
}

// AddRule appends a rule. The column need not exist in the dataset and
// the kind need not be recognized; both checks are deferred to Apply,
// which skips offending rules with a diagnostic. The operand may be a
// scalar or a []any; in/not in coerce a scalar to a singleton set.
func (s *Screener) AddRule(column, kind string, operand any) {
	rule := Rule{Column: column, Kind: kind, Operand: normalizeOperand(operand)}
	s.rules = append(s.rules, rule)
	s.logger.Info("rule added", "rule", rule.String())
}

// AddRulesFromMap appends one rule per (column, condition) pair in the
// document's order. Equivalent to repeated AddRule calls.
func (s *Screener) AddRulesFromMap(doc RuleDoc) {
	for _, col := range doc {
		for _, cond := range col.Conds {
			s.AddRule(col.Column, cond.Kind, cond.Operand)
		}
	}
}

// Rules returns the rule sequence in insertion order.
func (s *Screener) Rules() []Rule { return s.rules }

// Apply runs every rule in insertion order against the dataset and
// returns the surviving rows as a new table; the source table is never
// mutated. Rules naming an unknown column or an unrecognized kind are
// skipped with a diagnostic. Zero surviving rows is a valid result,
// not an error.
func (s *Screener) Apply() (*Result, error) {
	if s.data == nil {
		return nil, ErrNoData
	}
	if len(s.rules) == 0 {
		return nil, ErrNoRules
	}

	result := s.data.Clone()
	diags := make([]Diagnostic, 0, len(s.rules))

	for _, rule := range s.rules {
		d := Diagnostic{Rule: rule}
		switch {
		case !result.HasColumn(rule.Column):
			d.Outcome = SkippedUnknownColumn
			s.logger.Warn("column not found, rule skipped", "column", rule.Column)
		case !KnownKind(rule.Kind):
			d.Outcome = SkippedUnsupportedKind
			s.logger.Warn("unsupported condition, rule skipped", "condition", rule.Kind)
		default:
			narrowed := table.New(result.Columns)
			for _, row := range result.Rows {
				keep, mismatch := evalRule(rule, row[rule.Column])
				if mismatch {
					d.Mismatches++
					continue
				}
				if keep {
					narrowed.AppendRow(row)
				}
			}
			result = narrowed
			d.Outcome = Applied
			d.Kept = result.Len()
			if d.Mismatches > 0 {
				s.logger.Warn("type mismatch, rows dropped",
					"rule", rule.String(), "rows", d.Mismatches)
			}
		}
		diags = append(diags, d)
	}

	s.logger.Info("screening complete", "rows", result.Len())
	return &Result{Table: result, Diagnostics: diags}, nil
}

// evalRule decides whether a cell satisfies a rule. mismatch is set
// when an ordering predicate meets values of different kinds; such
// rows are dropped and counted rather than silently compared. Null
// cells never satisfy an ordering predicate but are not counted as
// mismatches, since missing data is expected. Substring predicates
// work on canonical string forms, where null reads as the empty
// string: contains never matches a null cell for a non-empty operand,
// and not contains keeps it.
func evalRule(r Rule, v table.Value) (keep, mismatch bool) {
	switch r.Kind {
	case KindGT, KindGTE, KindLT, KindLTE:
		op := r.operand()
		if v.IsNull() || op.IsNull() {
			return false, false
		}
		cmp, err := v.Compare(op)
		if err != nil {
			return false, true
		}
		switch r.Kind {
		case KindGT:
			return cmp > 0, false
		case KindGTE:
			return cmp >= 0, false
		case KindLT:
			return cmp < 0, false
		default:
			return cmp <= 0, false
		}
	case KindEQ:
		return v.Equal(r.operand()), false
	case KindNEQ:
		return !v.Equal(r.operand()), false
	case KindContains:
		return strings.Contains(v.String(), r.operand().String()), false
	case KindNotContains:
		return !strings.Contains(v.String(), r.operand().String()), false
	case KindIn:
		return contains(r.Operand, v), false
	case KindNotIn:
		return !contains(r.Operand, v), false
	}
	return false, false
}

func contains(set []table.Value, v table.Value) bool {
	for _, m := range set {
		if v.Equal(m) {
			return true
		}
	}
	return false
}

func normalizeOperand(operand any) []table.Value {
	switch op := operand.(type) {
	case nil:
		return []table.Value{table.Null()}
	case []table.Value:
		return op
	case table.Value:
		return []table.Value{op}
	case []any:
		vals := make([]table.Value, len(op))
		for i, x := range op {
			vals[i] = table.FromAny(x)
		}
		return vals
	}
	return []table.Value{table.FromAny(operand)}
}
