package screen_test

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunwei-afs/datascreen/pkg/screen"
	"github.com/yunwei-afs/datascreen/pkg/table"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func sampleTable() *table.Table {
	tbl := table.New([]string{"age", "name"})
	tbl.AppendRow(table.Row{"age": table.Number(25), "name": table.Text("张三")})
	tbl.AppendRow(table.Row{"age": table.Number(35), "name": table.Text("李四")})
	tbl.AppendRow(table.Row{"age": table.Number(27), "name": table.Text("张伟")})
	return tbl
}

func names(tbl *table.Table) []string {
	var out []string
	for _, row := range tbl.Rows {
		out = append(out, row["name"].String())
	}
	return out
}

func TestApply_EndToEnd(t *testing.T) {
	s := screen.New(quietLogger())
	s.SetData(sampleTable())
	s.AddRule("age", screen.KindLTE, 30)
	s.AddRule("name", screen.KindContains, "张")

	result, err := s.Apply()
	require.NoError(t, err)
	assert.Equal(t, []string{"张三", "张伟"}, names(result.Table))
	assert.Equal(t, []string{"age", "name"}, result.Table.Columns)
}

func TestApply_NoDataLoaded(t *testing.T) {
	s := screen.New(quietLogger())
	s.AddRule("age", screen.KindLTE, 30)

	_, err := s.Apply()
	assert.ErrorIs(t, err, screen.ErrNoData)
	assert.EqualError(t, err, "no data loaded")
}

func TestApply_NoRulesDefined(t *testing.T) {
	s := screen.New(quietLogger())
	s.SetData(sampleTable())

	_, err := s.Apply()
	assert.ErrorIs(t, err, screen.ErrNoRules)
	assert.EqualError(t, err, "no rules defined")
}

func TestApply_UnknownColumnTolerated(t *testing.T) {
	s := screen.New(quietLogger())
	s.SetData(sampleTable())
	s.AddRule("height", screen.KindGT, 10)
	s.AddRule("age", screen.KindLTE, 30)

	result, err := s.Apply()
	require.NoError(t, err)
	assert.Equal(t, []string{"张三", "张伟"}, names(result.Table))

	require.Len(t, result.Diagnostics, 2)
	assert.Equal(t, screen.SkippedUnknownColumn, result.Diagnostics[0].Outcome)
	assert.Equal(t, screen.Applied, result.Diagnostics[1].Outcome)
}

func TestApply_UnsupportedKindTolerated(t *testing.T) {
	s := screen.New(quietLogger())
	s.SetData(sampleTable())
	s.AddRule("age", "~=", 5)

	result, err := s.Apply()
	require.NoError(t, err)
	assert.Equal(t, 3, result.Table.Len())

	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, screen.SkippedUnsupportedKind, result.Diagnostics[0].Outcome)
	assert.Len(t, result.Skipped(), 1)
}

func TestApply_NumericBoundary(t *testing.T) {
	tbl := table.New([]string{"age"})
	tbl.AppendRow(table.Row{"age": table.Number(30)})

	s := screen.New(quietLogger())
	s.SetData(tbl)
	s.AddRule("age", screen.KindLTE, 30)
	result, err := s.Apply()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Table.Len())

	s = screen.New(quietLogger())
	s.SetData(tbl)
	s.AddRule("age", screen.KindLT, 30)
	result, err = s.Apply()
	require.NoError(t, err)
	assert.Equal(t, 0, result.Table.Len())
}

func TestApply_InSetSingletonCoercion(t *testing.T) {
	tbl := table.New([]string{"status"})
	tbl.AppendRow(table.Row{"status": table.Text("active")})
	tbl.AppendRow(table.Row{"status": table.Text("closed")})

	scalar := screen.New(quietLogger())
	scalar.SetData(tbl)
	scalar.AddRule("status", screen.KindIn, "active")
	scalarResult, err := scalar.Apply()
	require.NoError(t, err)

	list := screen.New(quietLogger())
	list.SetData(tbl)
	list.AddRule("status", screen.KindIn, []any{"active"})
	listResult, err := list.Apply()
	require.NoError(t, err)

	assert.Equal(t, 1, scalarResult.Table.Len())
	assert.Equal(t, scalarResult.Table.Rows, listResult.Table.Rows)
}

func TestApply_NotInSet(t *testing.T) {
	s := screen.New(quietLogger())
	s.SetData(sampleTable())
	s.AddRule("age", screen.KindNotIn, []any{25, 35})

	result, err := s.Apply()
	require.NoError(t, err)
	assert.Equal(t, []string{"张伟"}, names(result.Table))
}

func TestApply_EmptyResultIsSuccess(t *testing.T) {
	s := screen.New(quietLogger())
	s.SetData(sampleTable())
	s.AddRule("age", screen.KindGT, 100)

	result, err := s.Apply()
	require.NoError(t, err)
	assert.Equal(t, 0, result.Table.Len())
	assert.Equal(t, []string{"age", "name"}, result.Table.Columns)
}

func TestApply_SourceTableUntouched(t *testing.T) {
	tbl := sampleTable()
	s := screen.New(quietLogger())
	s.SetData(tbl)
	s.AddRule("age", screen.KindLT, 26)

	result, err := s.Apply()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Table.Len())
	assert.Equal(t, 3, tbl.Len())
}

func TestApply_OrderIndependence(t *testing.T) {
	forward := screen.New(quietLogger())
	forward.SetData(sampleTable())
	forward.AddRule("age", screen.KindLTE, 30)
	forward.AddRule("name", screen.KindContains, "张")
	forwardResult, err := forward.Apply()
	require.NoError(t, err)

	reverse := screen.New(quietLogger())
	reverse.SetData(sampleTable())
	reverse.AddRule("name", screen.KindContains, "张")
	reverse.AddRule("age", screen.KindLTE, 30)
	reverseResult, err := reverse.Apply()
	require.NoError(t, err)

	assert.Equal(t, forwardResult.Table.Rows, reverseResult.Table.Rows)
}

func TestApply_Refilter_Idempotent(t *testing.T) {
	s := screen.New(quietLogger())
	s.SetData(sampleTable())
	s.AddRule("age", screen.KindLTE, 30)
	s.AddRule("name", screen.KindContains, "张")
	first, err := s.Apply()
	require.NoError(t, err)

	again := screen.New(quietLogger())
	again.SetData(first.Table)
	again.AddRule("age", screen.KindLTE, 30)
	again.AddRule("name", screen.KindContains, "张")
	second, err := again.Apply()
	require.NoError(t, err)

	assert.Equal(t, first.Table.Rows, second.Table.Rows)
}

func TestApply_SessionReusableAcrossRuns(t *testing.T) {
	s := screen.New(quietLogger())
	s.SetData(sampleTable())
	s.AddRule("age", screen.KindLTE, 30)

	first, err := s.Apply()
	require.NoError(t, err)
	second, err := s.Apply()
	require.NoError(t, err)
	assert.Equal(t, first.Table.Rows, second.Table.Rows)
}

func TestApply_TypeMismatchDropsRowWithDiagnostic(t *testing.T) {
	tbl := table.New([]string{"age"})
	tbl.AppendRow(table.Row{"age": table.Number(25)})
	tbl.AppendRow(table.Row{"age": table.Text("unknown")})

	s := screen.New(quietLogger())
	s.SetData(tbl)
	s.AddRule("age", screen.KindLTE, 30)

	result, err := s.Apply()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Table.Len())
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, screen.Applied, result.Diagnostics[0].Outcome)
	assert.Equal(t, 1, result.Diagnostics[0].Mismatches)
}

func TestApply_NullOrderingDropsWithoutMismatch(t *testing.T) {
	tbl := table.New([]string{"age"})
	tbl.AppendRow(table.Row{"age": table.Number(25)})
	tbl.AppendRow(table.Row{"age": table.Null()})

	s := screen.New(quietLogger())
	s.SetData(tbl)
	s.AddRule("age", screen.KindLTE, 30)

	result, err := s.Apply()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Table.Len())
	assert.Equal(t, 0, result.Diagnostics[0].Mismatches)
}

func TestApply_ContainsTreatsNullAsEmptyString(t *testing.T) {
	tbl := table.New([]string{"name"})
	tbl.AppendRow(table.Row{"name": table.Text("张三")})
	tbl.AppendRow(table.Row{"name": table.Null()})

	s := screen.New(quietLogger())
	s.SetData(tbl)
	s.AddRule("name", screen.KindContains, "张")
	result, err := s.Apply()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Table.Len())

	s = screen.New(quietLogger())
	s.SetData(tbl)
	s.AddRule("name", screen.KindNotContains, "张")
	result, err = s.Apply()
	require.NoError(t, err)
	// the null row survives: its empty string form contains nothing
	assert.Equal(t, 1, result.Table.Len())
	assert.True(t, result.Table.Rows[0]["name"].IsNull())
}

func TestApply_NotEqualKeepsCrossKindRows(t *testing.T) {
	tbl := table.New([]string{"age"})
	tbl.AppendRow(table.Row{"age": table.Number(30)})
	tbl.AppendRow(table.Row{"age": table.Text("30")})

	s := screen.New(quietLogger())
	s.SetData(tbl)
	s.AddRule("age", screen.KindNEQ, 30)

	result, err := s.Apply()
	require.NoError(t, err)
	assert.Equal(t, 1, result.Table.Len())
	assert.Equal(t, table.KindText, result.Table.Rows[0]["age"].Kind())
}

func TestAddRulesFromMap(t *testing.T) {
	doc := screen.RuleDoc{
		{Column: "age", Conds: []screen.Condition{
			{Kind: screen.KindLTE, Operand: 30},
			{Kind: screen.KindIn, Operand: []any{25, 26, 27}},
		}},
		{Column: "name", Conds: []screen.Condition{
			{Kind: screen.KindContains, Operand: "张"},
		}},
	}

	s := screen.New(quietLogger())
	s.AddRulesFromMap(doc)

	rules := s.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, "age", rules[0].Column)
	assert.Equal(t, screen.KindLTE, rules[0].Kind)
	assert.Equal(t, "age", rules[1].Column)
	assert.Len(t, rules[1].Operand, 3)
	assert.Equal(t, "name", rules[2].Column)
}
