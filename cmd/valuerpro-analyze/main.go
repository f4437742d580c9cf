package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sahanw/valuerpro/internal/analysis"
	"github.com/sahanw/valuerpro/internal/merge"
	"github.com/sahanw/valuerpro/internal/wizard"
)

// valuerpro-analyze runs the extract → analyze → merge pipeline against a
// single document from the command line, without the server. Useful for
// checking what a deed or plan yields before attaching it to a report.
func main() {
	inputPath := flag.String("input", "", "Path to a deed, survey plan or prior report (PDF or image)")
	dataPath := flag.String("data", "", "Optional path to existing wizard data JSON to merge into")
	outputPath := flag.String("output", "", "Path to write the merge result JSON (defaults to stdout)")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing required -input")
	}

	caller, err := analysis.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	analyzer := analysis.NewAnalyzer(caller)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	extracted, err := analysis.ExtractDocumentText(ctx, *inputPath)
	if err != nil {
		log.Fatalf("extract text: %v", err)
	}
	log.Printf("extracted %d characters via %s (truncated=%v)", len(extracted.Text), extracted.Method, extracted.Truncated)

	payload, err := analyzer.AnalyzeDocument(ctx, extracted.Text)
	if err != nil {
		log.Fatalf("analyze document: %v", err)
	}

	existing := wizard.WizardData{}
	if *dataPath != "" {
		blob, err := os.ReadFile(*dataPath)
		if err != nil {
			log.Fatalf("read data: %v", err)
		}
		if err := json.Unmarshal(blob, &existing); err != nil {
			log.Fatalf("decode data JSON: %v", err)
		}
	}

	merger := merge.NewMerger(merge.DefaultOptions())
	result := merger.Merge(existing, payload)
	log.Printf("merge applied %d field updates (%d warnings)", result.FieldsUpdated, len(result.ValidationErrors))

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("encode result: %v", err)
	}
	if *outputPath == "" {
		fmt.Println(string(out))
		return
	}
	if err := os.WriteFile(*outputPath, out, 0o644); err != nil {
		log.Fatalf("write output: %v", err)
	}
}
