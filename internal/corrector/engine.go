package corrector

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/younessemlali/xml-PeoPulse-Kfacture/internal/models"
)

// CMAD tag names.
const (
	TagContract      = "CONTRAT"
	DetailPrefix     = "CONTDET_"
	FieldRubric      = "RUCODE"
	FieldCoefficient = "K_FACTURE"
	FieldPaidRate    = "TAUX_PAYE"
	FieldBilledRate  = "TAUX_FACTURE"
	FieldLabel       = "LIBELLE"
)

// UnidentifiedContract is reported when a contract carries none of the
// candidate identifier fields.
const UnidentifiedContract = "unidentified"

// contractIDFields is the priority order for resolving a contract identifier.
var contractIDFields = []string{"CONO", "NUM_INTERNE", "CONO_TXT"}

// rubricGroup collects the detail lines of one contract sharing a RUCODE.
// Groups and their lines keep first-seen document order; the contract-level
// tie-break depends on it.
type rubricGroup struct {
	code  string
	lines []*etree.Element
}

// ProcessDocument corrects every CONTRAT record in the tree and returns the
// change log plus diagnostics. Contracts with nothing to report are omitted
// from the log. A failure inside one contract never aborts the document.
func ProcessDocument(doc *etree.Document) ([]models.ContractChangeLog, []string) {
	var logs []models.ContractChangeLog
	var diags []string

	contracts := doc.FindElements("//" + TagContract)
	if len(contracts) == 0 {
		diags = append(diags, "no CONTRAT records found; nothing to correct")
	}

	for _, contract := range contracts {
		log, contractDiags := processContractSafe(contract)
		diags = append(diags, contractDiags...)
		if len(log.Rubrics) > 0 || log.ContractUpdate != nil {
			logs = append(logs, log)
		}
	}
	return logs, diags
}

// processContractSafe contains panics so a faulty contract is skipped with a
// diagnostic while its siblings proceed. The recovery closure must not touch
// element state: the element is the likely panic source, and a second panic
// here would escape to the document level. It only reads the id string
// captured below, which stays at the sentinel if even the id lookup blew up.
func processContractSafe(contract *etree.Element) (log models.ContractChangeLog, diags []string) {
	id := UnidentifiedContract
	defer func() {
		if r := recover(); r != nil {
			log = models.ContractChangeLog{}
			diags = append(diags, fmt.Sprintf("contract %s: processing failed (%v); contract skipped", id, r))
		}
	}()
	id = contractID(contract)
	return processContract(contract, id)
}

func processContract(contract *etree.Element, id string) (models.ContractChangeLog, []string) {
	log := models.ContractChangeLog{ContractID: id}
	var diags []string

	groups := groupDetailLines(contract, id, &diags)

	for _, g := range groups {
		// A singleton group has no other value to normalize toward.
		if len(g.lines) < 2 {
			continue
		}

		maxValue, maxStr, candidates := findMaxCoefficient(g.lines, id, g.code, &diags)
		if maxValue <= 0 || candidates < 2 {
			continue
		}

		records := updateGroup(g.lines, maxStr)
		if len(records) == 0 {
			continue
		}
		log.Rubrics = append(log.Rubrics, models.RubricChanges{
			Code:        g.code,
			SelectedMax: maxStr,
			Records:     records,
		})
	}

	applyContractCoefficient(contract, &log, &diags)
	return log, diags
}

// contractID returns the first non-empty identifier field, or the sentinel.
func contractID(contract *etree.Element) string {
	for _, field := range contractIDFields {
		if el := contract.SelectElement(field); el != nil {
			if text := strings.TrimSpace(el.Text()); text != "" {
				return text
			}
		}
	}
	return UnidentifiedContract
}

// groupDetailLines collects immediate CONTDET_* children keyed by RUCODE,
// preserving first-seen order of both codes and lines. Lines without a
// rubric code cannot be grouped and are left untouched.
func groupDetailLines(contract *etree.Element, id string, diags *[]string) []rubricGroup {
	var groups []rubricGroup
	index := make(map[string]int)

	for _, child := range contract.ChildElements() {
		if !strings.HasPrefix(child.Tag, DetailPrefix) {
			continue
		}
		rubric := child.SelectElement(FieldRubric)
		if rubric == nil || strings.TrimSpace(rubric.Text()) == "" {
			*diags = append(*diags, fmt.Sprintf("contract %s: %s has no %s; line left unchanged", id, child.Tag, FieldRubric))
			continue
		}
		code := rubric.Text()
		i, ok := index[code]
		if !ok {
			i = len(groups)
			index[code] = i
			groups = append(groups, rubricGroup{code: code})
		}
		groups[i].lines = append(groups[i].lines, child)
	}
	return groups
}

// findMaxCoefficient returns the greatest parsed K_FACTURE in the group, the
// exact string it was read from, and how many lines carried a usable value.
// On a numeric tie the first-seen string wins, so textually distinct forms of
// the same value ("2,0" vs "2,00") propagate deterministically.
func findMaxCoefficient(lines []*etree.Element, id, code string, diags *[]string) (float64, string, int) {
	maxValue := 0.0
	maxStr := "0"
	candidates := 0

	for _, line := range lines {
		el := line.SelectElement(FieldCoefficient)
		if el == nil || strings.TrimSpace(el.Text()) == "" {
			continue
		}
		v, ok := ParseDecimal(el.Text())
		if !ok {
			*diags = append(*diags, fmt.Sprintf("contract %s: rubric %s: %s has unparsable %s %q; ignored for maximum", id, code, line.Tag, FieldCoefficient, el.Text()))
			continue
		}
		candidates++
		if v > maxValue {
			maxValue = v
			maxStr = el.Text()
		}
	}
	return maxValue, maxStr, candidates
}

// applyContractCoefficient raises the contract-level K_FACTURE when some
// rubric maximum strictly exceeds it. The propagated string is taken from
// the first group (in document order) matching the global maximum.
func applyContractCoefficient(contract *etree.Element, log *models.ContractChangeLog, diags *[]string) {
	if len(log.Rubrics) == 0 {
		return
	}

	globalMax := 0.0
	for _, rub := range log.Rubrics {
		if v, ok := ParseDecimal(rub.SelectedMax); ok && v > globalMax {
			globalMax = v
		}
	}
	if globalMax <= 0 {
		return
	}

	el := contract.SelectElement(FieldCoefficient)
	if el == nil {
		return
	}

	old := el.Text()
	current, ok := ParseDecimal(old)
	if !ok {
		// Permissive codec contract: garbage reads as 0, so a group maximum
		// above 0 replaces it.
		*diags = append(*diags, fmt.Sprintf("contract %s: unparsable contract-level %s %q; treated as 0", log.ContractID, FieldCoefficient, old))
	}
	if globalMax <= current {
		return
	}

	for _, rub := range log.Rubrics {
		if v, ok := ParseDecimal(rub.SelectedMax); ok && v == globalMax {
			el.SetText(rub.SelectedMax)
			log.ContractUpdate = &models.CoefficientUpdate{Old: old, New: rub.SelectedMax}
			return
		}
	}
}
