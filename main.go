package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/younessemlali/xml-PeoPulse-Kfacture/internal/api"
	"github.com/younessemlali/xml-PeoPulse-Kfacture/internal/corrector"
	"github.com/younessemlali/xml-PeoPulse-Kfacture/internal/models"
)

const version = "1.0.0"

func main() {
	// CLI flags
	outputFlag := flag.String("output", "", "Output directory for corrected files (defaults to each input's directory)")
	serveFlag := flag.Bool("serve", false, "Start the HTTP API instead of processing files")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	helpFlag := flag.Bool("help", false, "Show usage help")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `PeoPulse CMAD K_FACTURE Corrector

Normalizes K_FACTURE coefficients across rubric groups in CMAD XML
files and recomputes the dependent TAUX_FACTURE fields.

Usage:
  xml-peopulse-kfacture [flags] <input.xml> [input2.xml ...]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  # Correct one file, write corrected_<name> next to it
  xml-peopulse-kfacture CMAD_export.xml

  # Correct a batch into a directory
  xml-peopulse-kfacture --output=corrected/ jan.xml feb.xml mar.xml

  # Run the upload API (configured via KFACTURE_* env variables)
  xml-peopulse-kfacture --serve

Correction rule:
  Within each CONTRAT, detail lines sharing a RUCODE are raised to the
  group's highest K_FACTURE, and TAUX_FACTURE is recomputed as
  TAUX_PAYE x K_FACTURE. The contract-level K_FACTURE follows when a
  group maximum exceeds it.
`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("xml-peopulse-kfacture v%s\n", version)
		os.Exit(0)
	}

	if *serveFlag {
		serve()
		return
	}

	if *helpFlag || flag.NArg() == 0 {
		flag.Usage()
		os.Exit(0)
	}

	// Process each input file. Files are independent: a failure on one is
	// reported and the batch continues.
	failed := 0
	for _, inputPath := range flag.Args() {
		if err := processFile(inputPath, *outputFlag); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", inputPath, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func processFile(inputPath, outputDir string) error {
	if _, err := os.Stat(inputPath); os.IsNotExist(err) {
		return fmt.Errorf("input file not found: %s", inputPath)
	}

	ext := strings.ToLower(filepath.Ext(inputPath))
	if ext != ".xml" {
		return fmt.Errorf("expected .xml file, got %q", ext)
	}

	fmt.Printf("Processing: %s\n", inputPath)

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read failed: %w", err)
	}

	result, err := corrector.Correct(raw)
	if err != nil {
		return fmt.Errorf("correction failed: %w", err)
	}

	fmt.Printf("  Encoding: %s\n", result.Encoding)
	printSummary(result)

	outPath := outputPath(inputPath, outputDir)
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(outPath, result.Corrected, 0o644); err != nil {
		return fmt.Errorf("write failed: %w", err)
	}

	fmt.Printf("  Output: %s\n", outPath)
	fmt.Println("  Done.")
	return nil
}

// outputPath puts corrected_<name> either next to the input or under the
// requested output directory.
func outputPath(inputPath, outputDir string) string {
	name := "corrected_" + filepath.Base(inputPath)
	if outputDir != "" {
		return filepath.Join(outputDir, name)
	}
	return filepath.Join(filepath.Dir(inputPath), name)
}

func printSummary(result *models.CorrectionResult) {
	groups := 0
	for _, contract := range result.ChangeLog {
		groups += len(contract.Rubrics)
	}
	fmt.Printf("  Contracts corrected: %d\n", len(result.ChangeLog))
	fmt.Printf("  Rubric groups corrected: %d\n", groups)
	fmt.Printf("  Coefficient changes: %d\n", result.RealChangeCount())

	for _, contract := range result.ChangeLog {
		fmt.Printf("  Contract %s\n", contract.ContractID)
		for _, rub := range contract.Rubrics {
			fmt.Printf("    RUCODE %s: K_FACTURE max = %s\n", rub.Code, rub.SelectedMax)
			for _, rec := range rub.Records {
				if rec.RealChange() {
					fmt.Printf("      %s (%s): K=%s->%s, TAUX_FACTURE=%s->%s\n",
						rec.Line, rec.Label, rec.OldCoefficient, rec.NewCoefficient,
						rec.OldBilledRate, rec.NewBilledRate)
				}
			}
		}
		if contract.ContractUpdate != nil {
			fmt.Printf("    Contract K_FACTURE: %s->%s\n", contract.ContractUpdate.Old, contract.ContractUpdate.New)
		}
	}

	for _, diag := range result.Diagnostics {
		fmt.Printf("  Note: %s\n", diag)
	}
}

func serve() {
	cfg, err := api.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	app := api.NewApp(cfg)
	fmt.Printf("Listening on %s\n", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		os.Exit(1)
	}
}
