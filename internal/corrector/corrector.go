// Package corrector normalizes K_FACTURE coefficients across rubric groups
// in CMAD documents. For each contract, detail lines sharing a RUCODE are
// raised to the group's maximum coefficient, TAUX_FACTURE is recomputed from
// TAUX_PAYE, and the contract-level coefficient follows when a group maximum
// exceeds it. Every mutation is captured in a replayable change log.
//
// The corrector is stateless: each call owns its tree, groups and change log
// for the duration of one document and releases them when it returns.
package corrector

import (
	"github.com/younessemlali/xml-PeoPulse-Kfacture/internal/loader"
	"github.com/younessemlali/xml-PeoPulse-Kfacture/internal/models"
	"github.com/younessemlali/xml-PeoPulse-Kfacture/internal/writer"
)

// Correct runs the full pipeline on one document: decode and parse the raw
// bytes, correct every contract, and re-serialize in the resolved encoding.
// The only fatal outcome is a document that cannot be parsed even after the
// loader's repair pass; all field- and contract-level problems are contained
// and reported through the result's diagnostics.
func Correct(raw []byte) (*models.CorrectionResult, error) {
	doc, encoding, diags, err := loader.Load(raw)
	if err != nil {
		return nil, err
	}

	changeLog, processDiags := ProcessDocument(doc)
	diags = append(diags, processDiags...)

	corrected, err := writer.Render(doc, encoding)
	if err != nil {
		return nil, err
	}

	return &models.CorrectionResult{
		Corrected:   corrected,
		Encoding:    encoding,
		ChangeLog:   changeLog,
		Diagnostics: diags,
	}, nil
}
