package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sahanw/valuerpro/internal/render"
	"github.com/sahanw/valuerpro/internal/store"
)

// render-valuation-report rebuilds a report PDF (or its markdown) from a saved
// report JSON, without the server or database.
func main() {
	inputPath := flag.String("input", "", "Path to saved report JSON")
	outputPath := flag.String("output", "", "Path to write markdown (defaults to stdout)")
	pdfPath := flag.String("pdf", "", "Optional path to write the rendered PDF")
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("missing required -input")
	}

	in, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("read input: %v", err)
	}
	var report store.Report
	if err := json.Unmarshal(in, &report); err != nil {
		log.Fatalf("decode input JSON: %v", err)
	}

	markdown := render.BuildMarkdown(&report)
	if err := writeMarkdown(*outputPath, markdown); err != nil {
		log.Fatalf("write markdown: %v", err)
	}

	if *pdfPath != "" {
		renderer := render.NewChromiumPDFRenderer()
		pdf, err := renderer.Render(context.Background(), &report)
		if err != nil {
			log.Fatalf("render pdf: %v", err)
		}
		if err := os.WriteFile(*pdfPath, pdf, 0o644); err != nil {
			log.Fatalf("write pdf: %v", err)
		}
		log.Printf("wrote %d PDF bytes to %s", len(pdf), *pdfPath)
	}
}

func writeMarkdown(outputPath, markdown string) error {
	if outputPath == "" {
		_, err := fmt.Print(markdown)
		return err
	}
	return os.WriteFile(outputPath, []byte(markdown), 0o644)
}
