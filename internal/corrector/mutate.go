package corrector

import (
	"github.com/beevik/etree"

	"github.com/younessemlali/xml-PeoPulse-Kfacture/internal/models"
)

// billedRateDecimals is the fixed precision TAUX_FACTURE is written with.
const billedRateDecimals = 4

// updateGroup overwrites K_FACTURE on every line of a rubric group with the
// selected maximum string and recomputes TAUX_FACTURE from TAUX_PAYE.
//
// The maximum is written as the exact string it was read from, never
// re-parsed and re-formatted, so the propagated value stays byte-identical
// to its source and cannot drift. Lines missing K_FACTURE or TAUX_PAYE are
// left alone; lines without a TAUX_FACTURE field still get the coefficient
// but no recomputation. One record is emitted per touched line, no-ops
// included.
func updateGroup(lines []*etree.Element, newCoefficient string) []models.ChangeRecord {
	var records []models.ChangeRecord
	newValue, _ := ParseDecimal(newCoefficient)

	for _, line := range lines {
		coefficient := line.SelectElement(FieldCoefficient)
		paidRate := line.SelectElement(FieldPaidRate)
		if coefficient == nil || paidRate == nil {
			continue
		}

		record := models.ChangeRecord{
			Line:           line.Tag,
			OldCoefficient: coefficient.Text(),
			NewCoefficient: newCoefficient,
			PaidRate:       paidRate.Text(),
		}
		if label := line.SelectElement(FieldLabel); label != nil {
			record.Label = label.Text()
		}

		coefficient.SetText(newCoefficient)

		if billedRate := line.SelectElement(FieldBilledRate); billedRate != nil {
			record.OldBilledRate = billedRate.Text()
			paid, _ := ParseDecimal(paidRate.Text())
			record.NewBilledRate = FormatDecimal(paid*newValue, billedRateDecimals)
			billedRate.SetText(record.NewBilledRate)
		}

		records = append(records, record)
	}
	return records
}
