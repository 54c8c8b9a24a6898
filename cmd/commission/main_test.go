package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/commission-engine/commission"
	"github.com/warp/commission-engine/seed"
	"github.com/warp/commission-engine/settings"
	"github.com/xuri/excelize/v2"
)

const salesCSV = "بازاریاب,مذاکره کننده ارشد,هماهنگ کننده فروش,شرکت خریدار,مبلغ کل خالص فاکتور,وصول شده,کل مبلغ مبنای پورسانت,ماه,سال,تمدید اشتراک,نسخه پلن,درصد پلن های آسانیتویی\n" +
	`,Sara,,Epsilon,"1,000,000,000","400,000,000","1,000,000,000",1,1404,خیر,استاندارد,` + "\n"

// execute runs the root command in a scratch working directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	chdir(t, t.TempDir())
	t.Setenv("COMMISSION_LOG_LEVEL", "error")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(testContext(t))
	return out.String(), err
}

func sheetsDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sales.csv"), []byte(salesCSV), 0o644))
	return dir
}

func TestCalculate_JSONOutput(t *testing.T) {
	// GIVEN: A directory with only a sales sheet
	// WHEN: Calculating against the seeded in-memory defaults
	// THEN: The partly collected sale is split into payable and pending

	out, err := execute(t, "calculate", "--dir", sheetsDir(t), "--json")
	require.NoError(t, err, out)

	var got struct {
		RunID     string                     `json:"run_id"`
		Summaries []commission.Summary       `json:"summaries"`
		Details   commission.DetailedResults `json:"detailed_results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Empty(t, got.RunID)
	require.Len(t, got.Summaries, 1)
	assert.Equal(t, "Sara", got.Summaries[0].PersonName)
	assert.Equal(t, "4000000", got.Summaries[0].Payable.String())
	assert.Equal(t, "6000000", got.Summaries[0].PendingCommission.String())
	assert.Equal(t, "1404-1 to 1404-1", got.Details.Period)
}

func TestCalculate_TableOutput(t *testing.T) {
	out, err := execute(t, "calculate", "--dir", sheetsDir(t))
	require.NoError(t, err, out)
	assert.Contains(t, out, "Period: 1404-1 to 1404-1")
	assert.Contains(t, out, "Sara")
	assert.Contains(t, out, "zero_targets")
}

func TestCalculate_Workbook(t *testing.T) {
	// GIVEN: The same sale in an .xlsx workbook
	// THEN: The figures match the CSV run

	f := excelize.NewFile()
	defer f.Close()
	records, err := csv.NewReader(strings.NewReader(salesCSV)).ReadAll()
	require.NoError(t, err)
	require.NoError(t, f.SetSheetName("Sheet1", "Sales data"))
	for i, record := range records {
		row := make([]any, len(record))
		for j, v := range record {
			row[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sales data", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "export.xlsx")
	require.NoError(t, f.SaveAs(path))

	out, err := execute(t, "calculate", "--file", path, "--json")
	require.NoError(t, err, out)

	var got struct {
		Summaries []commission.Summary `json:"summaries"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	require.Len(t, got.Summaries, 1)
	assert.Equal(t, "4000000", got.Summaries[0].Payable.String())

	_, err = execute(t, "calculate", "--file", path, "--dir", t.TempDir())
	assert.Error(t, err, "--file and --dir are exclusive")
}

func TestCalculate_Errors(t *testing.T) {
	_, err := execute(t, "calculate", "--dir", t.TempDir(), "--save")
	assert.EqualError(t, err, "--save needs --db")

	out, err := execute(t, "calculate", "--dir", t.TempDir())
	assert.Error(t, err, "a directory without sales.csv is rejected")
	assert.NotEmpty(t, out)
}

func TestSeedThenSave(t *testing.T) {
	// GIVEN: A file database
	// WHEN: Seeding twice and saving a calculation into it
	// THEN: The second seed inserts nothing and the run gets an id

	db := filepath.Join(t.TempDir(), "commission.db")
	t.Setenv("COMMISSION_DATABASE_PATH", db)

	out, err := execute(t, "seed")
	require.NoError(t, err, out)
	assert.Contains(t, out, "settings inserted: "+strconv.Itoa(len(settings.Defaults())))
	assert.Contains(t, out, "rules inserted: "+strconv.Itoa(len(seed.DefaultRules())))

	out, err = execute(t, "seed")
	require.NoError(t, err, out)
	assert.Contains(t, out, "settings inserted: 0\nrules inserted: 0")

	out, err = execute(t, "calculate", "--dir", sheetsDir(t), "--db", db, "--save")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Run: ")
}
