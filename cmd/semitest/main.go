package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/semiscan/pkg/config"
	"github.com/xplshn/semiscan/pkg/lexer"
	"github.com/xplshn/semiscan/pkg/semi"
	"github.com/xplshn/semiscan/pkg/util"
)

type Token struct {
	Line int    `json:"line"`
	Text string `json:"text"`
}

// ScanResult is what both layers produce for one file. Golden files hold
// exactly this structure.
type ScanResult struct {
	Tokens   []Token       `json:"tokens"`
	Semis    [][]string    `json:"semis"`
	Duration time.Duration `json:"duration,omitempty"`
}

type FileTestResult struct {
	File    string      `json:"file"`
	Status  string      `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message string      `json:"message,omitempty"`
	Diff    string      `json:"diff,omitempty"`
	Golden  *ScanResult `json:"golden,omitempty"`
	Actual  *ScanResult `json:"actual,omitempty"`
}

type TestSuiteResults map[string]*FileTestResult

var (
	generateGolden = flag.String("generate-golden", "", "Generate golden .json files for the given source file(s) (space-separated globs).")
	testFiles      = flag.String("test-files", "tests/*.cs", "Glob pattern(s) for files to test (space-separated).")
	skipFiles      = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON     = flag.String("output", ".test_results.json", "Output file for the JSON test report.")
	jobs           = flag.Int("j", 4, "Number of parallel test jobs.")
	verbose        = flag.Bool("v", false, "Enable verbose logging.")
	jsonDir        = flag.String("dir", "", "Directory to store/read golden JSON files (defaults to source file dir).")
	scanFlags      = flag.String("scan-flags", "", "Warning and feature flags for the scanner, e.g. \"-Fdiscard-comments -Fno-for-fold\".")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	// Scanner warnings would interleave across workers.
	util.Output = io.Discard

	if *jobs < 1 {
		*jobs = 1
	}

	if *generateGolden != "" {
		handleGenerateGolden(*generateGolden)
		return
	}

	handleRunTestSuite()
}

func newConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.ProcessDirectiveFlags(*scanFlags)
	return cfg
}

func getJSONPath(sourceFile string) string {
	jsonFileName := "." + filepath.Base(sourceFile) + ".json"
	if *jsonDir != "" {
		return filepath.Join(*jsonDir, jsonFileName)
	}
	return filepath.Join(filepath.Dir(sourceFile), jsonFileName)
}

// hashFile computes the xxhash of a file's content
func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

// scanFile runs the token layer and the semi-expression layer over path,
// each with its own pipeline.
func scanFile(path string, cfg *config.Config) (*ScanResult, error) {
	start := time.Now()
	res := &ScanResult{Tokens: []Token{}, Semis: [][]string{}}

	toker := lexer.NewToker(cfg)
	if err := toker.Open(path); err != nil {
		return nil, err
	}
	for tok := toker.GetTok(); tok != ""; tok = toker.GetTok() {
		res.Tokens = append(res.Tokens, Token{Line: toker.LineCount(), Text: tok})
	}
	err := toker.Err()
	toker.Close()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	e := semi.New(cfg)
	if err := e.Open(path); err != nil {
		return nil, err
	}
	defer e.Close()
	for e.Get() {
		res.Semis = append(res.Semis, e.Tokens())
	}
	if err := e.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	res.Duration = time.Since(start)
	return res, nil
}

func handleGenerateGolden(patterns string) {
	files, err := expandGlobPatterns(patterns)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Fatalf("%s[ERROR]%s No files match %q\n", cRed, cNone, patterns)
	}
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0755); err != nil {
			log.Fatalf("%s[ERROR]%s Failed to create directory %s: %v\n", cRed, cNone, *jsonDir, err)
		}
	}

	for _, sourceFile := range files {
		log.Printf("Generating golden file for %s...\n", sourceFile)
		res, err := scanFile(sourceFile, newConfig())
		if err != nil {
			log.Fatalf("%s[ERROR]%s Could not generate golden file for %s: %v\n", cRed, cNone, sourceFile, err)
		}
		res.Duration = 0
		jsonData, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			log.Fatalf("%s[ERROR]%s Failed to marshal golden data to JSON: %v\n", cRed, cNone, err)
		}
		goldenFileName := getJSONPath(sourceFile)
		if err := os.WriteFile(goldenFileName, jsonData, 0644); err != nil {
			log.Fatalf("%s[ERROR]%s Failed to write golden file %s: %v\n", cRed, cNone, goldenFileName, err)
		}
		log.Printf("%s[SUCCESS]%s Golden file created at %s\n", cGreen, cNone, goldenFileName)
	}
}

func handleRunTestSuite() {
	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No test files found matching the pattern(s).")
		return
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		if abs, err := filepath.Abs(f); err == nil {
			skipList[abs] = true
		}
	}

	tasks := make(chan string, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range tasks {
				resultsChan <- testFile(file)
			}
		}()
	}

	// Feed the tasks channel, skipping files with identical content
	seenHashes := make(map[uint64]string)
	for _, file := range files {
		if skipList[file] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		fileHash, err := hashFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file for hashing: %v", err)}
			continue
		}
		if originalFile, seen := seenHashes[fileHash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", originalFile)}
			continue
		}
		seenHashes[fileHash] = file
		tasks <- file
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var allResults []*FileTestResult
	for result := range resultsChan {
		allResults = append(allResults, result)
	}

	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].File < allResults[j].File
	})

	printSummary(os.Stdout, allResults)
	resultsMap := writeJSONReport(allResults)

	if hasFailures(resultsMap) {
		os.Exit(1)
	}
}

func testFile(file string) *FileTestResult {
	goldenFile := getJSONPath(file)
	goldenData, err := os.ReadFile(goldenFile)
	if os.IsNotExist(err) {
		return &FileTestResult{File: file, Status: "SKIP", Message: "Cannot test without a corresponding .json golden file"}
	}
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not read golden file %s: %v", goldenFile, err)}
	}
	var golden ScanResult
	if err := json.Unmarshal(goldenData, &golden); err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Could not parse golden file %s: %v", goldenFile, err)}
	}

	actual, err := scanFile(file, newConfig())
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: err.Error(), Golden: &golden}
	}
	return compareResults(file, &golden, actual)
}

func compareResults(file string, golden, actual *ScanResult) *FileTestResult {
	var diffs strings.Builder
	if d := cmp.Diff(golden.Tokens, actual.Tokens); d != "" {
		fmt.Fprintf(&diffs, "Tokens mismatch (-golden +actual):\n%s", d)
	}
	if d := cmp.Diff(golden.Semis, actual.Semis); d != "" {
		fmt.Fprintf(&diffs, "Semi-expressions mismatch (-golden +actual):\n%s", d)
	}
	if diffs.Len() > 0 {
		return &FileTestResult{
			File:    file,
			Status:  "FAIL",
			Message: "Scanner output differs from golden file",
			Diff:    diffs.String(),
			Golden:  golden,
			Actual:  actual,
		}
	}
	return &FileTestResult{
		File:    file,
		Status:  "PASS",
		Message: fmt.Sprintf("%d tokens, %d semi-expressions", len(actual.Tokens), len(actual.Semis)),
		Golden:  golden,
		Actual:  actual,
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%6dµs", d.Microseconds())
	}
	return fmt.Sprintf("%6dms", d.Milliseconds())
}

func printSummary(w io.Writer, results []*FileTestResult) {
	var passed, failed, skipped, errored int
	var total time.Duration

	for _, result := range results {
		fmt.Fprintln(w, "----------------------------------------------------------------------")
		fmt.Fprintf(w, "Testing %s%s%s...\n", cCyan, result.File, cNone)
		switch result.Status {
		case "PASS":
			passed++
			fmt.Fprintf(w, "  [%sPASS%s] %s\n", cGreen, cNone, result.Message)
		case "FAIL":
			failed++
			fmt.Fprintf(w, "  [%sFAIL%s] %s\n", cRed, cNone, result.Message)
			fmt.Fprintln(w, formatDiff(result.Diff))
		case "SKIP":
			skipped++
			fmt.Fprintf(w, "  [%sSKIP%s] %s\n", cYellow, cNone, result.Message)
		case "ERROR":
			errored++
			fmt.Fprintf(w, "  [%sERROR%s] %s\n", cRed, cNone, result.Message)
		}
		if result.Actual != nil {
			total += result.Actual.Duration
			if *verbose {
				fmt.Fprintf(w, "  [scan: %s]\n", formatDuration(result.Actual.Duration))
			}
		}
	}
	fmt.Fprintln(w, "----------------------------------------------------------------------")
	fmt.Fprintf(w, "%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
	if *verbose && total > 0 {
		fmt.Fprintf(w, "Total scan time: %s\n", strings.TrimSpace(formatDuration(total)))
	}
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("    --- Diff ---\n")
	for _, line := range strings.Split(diff, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if strings.HasPrefix(trimmedLine, "-") {
			builder.WriteString(cRed)
		} else if strings.HasPrefix(trimmedLine, "+") {
			builder.WriteString(cGreen)
		}
		builder.WriteString("    " + line)
		builder.WriteString(cNone)
		builder.WriteString("\n")
	}
	return builder.String()
}

func writeJSONReport(results []*FileTestResult) TestSuiteResults {
	resultsMap := make(TestSuiteResults, len(results))
	for _, r := range results {
		resultsMap[r.File] = r
	}

	jsonData, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v\n", cRed, cNone, err)
		return resultsMap
	}

	outputFile := *outputJSON
	if *jsonDir != "" {
		if err := os.MkdirAll(*jsonDir, 0755); err != nil {
			log.Printf("%s[ERROR]%s Failed to create dir %s: %v\n", cRed, cNone, *jsonDir, err)
		}
		outputFile = filepath.Join(*jsonDir, *outputJSON)
	}

	if err := os.WriteFile(outputFile, jsonData, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v\n", cRed, cNone, outputFile, err)
	} else {
		fmt.Printf("Full test report saved to %s\n", outputFile)
	}
	return resultsMap
}

func hasFailures(results TestSuiteResults) bool {
	for _, result := range results {
		if result.Status == "FAIL" || result.Status == "ERROR" {
			return true
		}
	}
	return false
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			absFile, err := filepath.Abs(file)
			if err != nil {
				continue
			}
			if !seen[absFile] {
				if info, err := os.Stat(absFile); err == nil && info.Mode().IsRegular() {
					allFiles = append(allFiles, absFile)
					seen[absFile] = true
				}
			}
		}
	}
	return allFiles, nil
}
