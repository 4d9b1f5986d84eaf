package errand

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// CaseType names the kind of errand. Each case type maps to the abbreviation
// that prefixes its errand numbers.
type CaseType string

const (
	CaseNybyggnadAnsokanOmBygglov            CaseType = "NYBYGGNAD_ANSOKAN_OM_BYGGLOV"
	CaseAnmalanAttefall                      CaseType = "ANMALAN_ATTEFALL"
	CaseRegistreringAvLivsmedel              CaseType = "REGISTRERING_AV_LIVSMEDEL"
	CaseAnmalanInstallationVarmepump         CaseType = "ANMALAN_INSTALLATION_VARMEPUMP"
	CaseAnsokanTillstandVarmepump            CaseType = "ANSOKAN_TILLSTAND_VARMEPUMP"
	CaseAnsokanOmTillstandEnskiltAvlopp      CaseType = "ANSOKAN_OM_TILLSTAND_ENSKILT_AVLOPP"
	CaseAnmalanInstallationEnskiltAvloppUtan CaseType = "ANMALAN_INSTALLTION_ENSKILT_AVLOPP_UTAN_WC"
	CaseAnmalanAndringAvloppsanlaggning      CaseType = "ANMALAN_ANDRING_AVLOPPSANLAGGNING"
	CaseAnmalanAndringAvloppsanordning       CaseType = "ANMALAN_ANDRING_AVLOPPSANORDNING"
	CaseAnmalanHalsoskyddsverksamhet         CaseType = "ANMALAN_HALSOSKYDDSVERKSAMHET"
	CaseParkingPermit                        CaseType = "PARKING_PERMIT"
	CaseParkingPermitRenewal                 CaseType = "PARKING_PERMIT_RENEWAL"
	CaseLostParkingPermit                    CaseType = "LOST_PARKING_PERMIT"
)

var builtinCaseTypes = map[CaseType]string{
	CaseNybyggnadAnsokanOmBygglov:            "BUILD",
	CaseAnmalanAttefall:                      "BUILD",
	CaseRegistreringAvLivsmedel:              "ENV",
	CaseAnmalanInstallationVarmepump:         "ENV",
	CaseAnsokanTillstandVarmepump:            "ENV",
	CaseAnsokanOmTillstandEnskiltAvlopp:      "ENV",
	CaseAnmalanInstallationEnskiltAvloppUtan: "ENV",
	CaseAnmalanAndringAvloppsanlaggning:      "ENV",
	CaseAnmalanAndringAvloppsanordning:       "ENV",
	CaseAnmalanHalsoskyddsverksamhet:         "ENV",
	CaseParkingPermit:                        "PRH",
	CaseParkingPermitRenewal:                 "PRH",
	CaseLostParkingPermit:                    "PRH",
}

var (
	catalogMu sync.RWMutex
	catalog   = copyCatalog(builtinCaseTypes)
)

// Abbreviation returns the errand number prefix of the case type.
func (c CaseType) Abbreviation() (string, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	abbr, ok := catalog[c]
	return abbr, ok
}

func (c CaseType) Valid() bool {
	_, ok := c.Abbreviation()
	return ok
}

// CaseTypeFile is the YAML layout of an additional case type catalog:
//
//	caseTypes:
//	  - name: FIREWORKS_PERMIT
//	    abbreviation: FWP
type CaseTypeFile struct {
	CaseTypes []struct {
		Name         string `yaml:"name"`
		Abbreviation string `yaml:"abbreviation"`
	} `yaml:"caseTypes"`
}

// LoadCaseTypes parses a YAML catalog and merges it over the built-in case
// types. Entries may override the abbreviation of a built-in type.
func LoadCaseTypes(raw []byte) (int, error) {
	var f CaseTypeFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return 0, fmt.Errorf("parse case type catalog: %w", err)
	}
	next := copyCatalog(builtinCaseTypes)
	for i, ct := range f.CaseTypes {
		name := strings.ToUpper(strings.TrimSpace(ct.Name))
		abbr := strings.ToUpper(strings.TrimSpace(ct.Abbreviation))
		if name == "" || abbr == "" {
			return 0, fmt.Errorf("case type catalog entry %d: name and abbreviation are required", i)
		}
		if strings.Contains(abbr, "-") {
			return 0, fmt.Errorf("case type catalog entry %d: abbreviation %q must not contain '-'", i, abbr)
		}
		next[CaseType(name)] = abbr
	}
	catalogMu.Lock()
	catalog = next
	catalogMu.Unlock()
	return len(f.CaseTypes), nil
}

// LoadCaseTypesFile reads path and applies it with LoadCaseTypes.
func LoadCaseTypesFile(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read case type catalog: %w", err)
	}
	return LoadCaseTypes(raw)
}

// ResetCaseTypes restores the built-in catalog.
func ResetCaseTypes() {
	catalogMu.Lock()
	catalog = copyCatalog(builtinCaseTypes)
	catalogMu.Unlock()
}

func copyCatalog(in map[CaseType]string) map[CaseType]string {
	out := make(map[CaseType]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
