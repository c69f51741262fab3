// render-case-report renders one case docket to a PDF through headless
// Chromium.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/casescribe/casescribe/internal/casestore"
	"github.com/casescribe/casescribe/internal/report"
)

func main() {
	dbFlag := flag.String("db", "./data/casescribe.db", "path to SQLite database file")
	caseID := flag.String("case", "", "case ID to render")
	outFlag := flag.String("out", "case-docket.pdf", "output PDF path")
	flag.Parse()

	if *caseID == "" {
		log.Fatal("missing required flag: -case")
	}

	store, err := casestore.Open(*dbFlag)
	if err != nil {
		log.Fatalf("failed to open case store (%s): %v", *dbFlag, err)
	}
	defer store.Close()

	ctx := context.Background()
	c, err := store.GetByID(ctx, *caseID)
	if err != nil {
		log.Fatal(err)
	}
	hearings, err := store.ListHearings(ctx, *caseID)
	if err != nil {
		log.Fatal(err)
	}

	markdown := report.CaseDocket(c, hearings)
	pdf, err := report.NewChromiumPDFRenderer().Render(ctx, markdown)
	if err != nil {
		log.Fatalf("pdf render failed: %v", err)
	}
	if err := os.WriteFile(*outFlag, pdf, 0o644); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s (%d bytes)", *outFlag, len(pdf))
}
