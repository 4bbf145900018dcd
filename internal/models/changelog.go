package models

// ChangeRecord describes one corrected detail line. A record is emitted even
// when the new coefficient equals the old one; callers filtering for real
// changes must compare OldCoefficient against NewCoefficient themselves, so
// the log stays complete and auditable.
type ChangeRecord struct {
	Line           string `json:"line"`  // detail-line tag, e.g. CONTDET_2
	Label          string `json:"label,omitempty"`
	OldCoefficient string `json:"oldCoefficient"`
	NewCoefficient string `json:"newCoefficient"`
	OldBilledRate  string `json:"oldBilledRate"`
	NewBilledRate  string `json:"newBilledRate"`
	PaidRate       string `json:"paidRate"`
}

// RealChange reports whether the record changed the coefficient value.
func (r ChangeRecord) RealChange() bool {
	return r.OldCoefficient != r.NewCoefficient
}

// RubricChanges holds the corrections applied to one rubric group.
// Groups appear in first-seen document order, which is also the order the
// contract-level tie-break walks.
type RubricChanges struct {
	Code        string         `json:"rubricCode"`
	SelectedMax string         `json:"selectedMax"`
	Records     []ChangeRecord `json:"records"`
}

// CoefficientUpdate captures a contract-level K_FACTURE raise.
type CoefficientUpdate struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ContractChangeLog aggregates everything done to one contract.
type ContractChangeLog struct {
	ContractID     string             `json:"contractId"`
	Rubrics        []RubricChanges    `json:"rubrics"`
	ContractUpdate *CoefficientUpdate `json:"contractUpdate,omitempty"`
}

// CorrectionResult is what Correct returns for one document.
type CorrectionResult struct {
	Corrected   []byte              `json:"correctedXml"`
	Encoding    string              `json:"encoding"`
	ChangeLog   []ContractChangeLog `json:"changeLog"`
	Diagnostics []string            `json:"diagnostics"`
}

// RealChangeCount counts records whose coefficient actually changed,
// across all contracts and rubric groups.
func (r *CorrectionResult) RealChangeCount() int {
	n := 0
	for _, c := range r.ChangeLog {
		for _, rub := range c.Rubrics {
			for _, rec := range rub.Records {
				if rec.RealChange() {
					n++
				}
			}
		}
	}
	return n
}
