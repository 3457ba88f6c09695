package sheetmagic_test

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/nao1215/sheetmagic"
)

type Employee struct {
	Name       string
	Department string
	Salary     int `sheet:"Annual Salary"`
	Skills     []string
}

func Example() {
	s, err := sheetmagic.New()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	employees := []Employee{
		{Name: "Alice", Department: "Engineering", Salary: 85000, Skills: []string{"Go", "SQL"}},
		{Name: "Bob", Department: "Sales", Salary: 62000},
	}
	if err := sheetmagic.AddSheet(s, employees, "", nil); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Sheets:", s.SheetNames())

	var buf bytes.Buffer
	if err := s.Write(&buf, sheetmagic.NoCompression); err != nil {
		fmt.Println("Error:", err)
		return
	}

	loaded, err := sheetmagic.Load(&buf, sheetmagic.NoCompression)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer loaded.Close()

	list, err := sheetmagic.GetList[Employee](loaded, "")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	for _, e := range list {
		fmt.Printf("%s (%s): %d %v\n", e.Name, e.Department, e.Salary, e.Skills)
	}
	// Output:
	// Sheets: [Employees]
	// Alice (Engineering): 85000 [Go SQL]
	// Bob (Sales): 62000 []
}

func ExampleGetExtendedList() {
	s, err := sheetmagic.New()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer s.Close()

	items := []sheetmagic.Extended[Employee]{
		{
			Item:       &Employee{Name: "Alice", Department: "Engineering", Salary: 85000},
			Properties: map[string]any{"Office": "Tokyo", "Remote": true},
		},
	}
	if err := sheetmagic.AddSheet(s, items, "Staff", nil); err != nil {
		fmt.Println("Error:", err)
		return
	}

	list, err := sheetmagic.GetExtendedList[Employee](s, "Staff")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(list[0].Item.Name, list[0].Properties["Office"], list[0].Properties["Remote"])
	// Output:
	// Alice Tokyo true
}

func ExampleSpreadsheet_ImportTable() {
	csvData := `name,department,annual salary,skills
Carol,Support,48000,"Excel, Zendesk"
Dave,Engineering,91000,Rust`

	s, err := sheetmagic.New()
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer s.Close()

	if err := s.ImportTable(strings.NewReader(csvData), sheetmagic.Format{Type: sheetmagic.CSV}, "Employees"); err != nil {
		fmt.Println("Error:", err)
		return
	}

	list, err := sheetmagic.GetList[Employee](s, "Employees")
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	for _, e := range list {
		fmt.Printf("%s earns %d and knows %d skill(s)\n", e.Name, e.Salary, len(e.Skills))
	}
	// Output:
	// Carol earns 48000 and knows 2 skill(s)
	// Dave earns 91000 and knows 1 skill(s)
}

func ExampleNormalize() {
	for _, header := range []string{"Annual Salary", "annual_salaries", "2nd Address"} {
		fmt.Printf("%s -> %s\n", header, sheetmagic.Normalize(header))
	}
	fmt.Println(sheetmagic.Matches("Leg Count", "LegCounts"))
	// Output:
	// Annual Salary -> annualsalary
	// annual_salaries -> annualsalarie
	// 2nd Address -> ndaddress
	// true
}

func ExampleDetectFormat() {
	paths := []string{
		"report.xlsx",
		"report.xlsx.zst",
		"data.csv.gz",
		"logs.ltsv",
		"analytics.parquet",
		"notes.txt",
	}

	for _, path := range paths {
		format := sheetmagic.DetectFormat(path)
		fmt.Printf("%s -> %s\n", path, format)
	}
	// Output:
	// report.xlsx -> XLSX
	// report.xlsx.zst -> XLSX (zstd)
	// data.csv.gz -> CSV (gzip)
	// logs.ltsv -> LTSV
	// analytics.parquet -> Parquet
	// notes.txt -> Unsupported
}
