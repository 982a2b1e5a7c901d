package state

import (
	"fmt"
	"os"

	"github.com/alphabill-org/admission/types"
	"gopkg.in/yaml.v3"
)

type (
	// Genesis is the initial content of the entity store.
	Genesis struct {
		Accounts  []*Account        `yaml:"accounts"`
		Contracts []*Contract       `yaml:"contracts"`
		Records   []ContractRecords `yaml:"records,omitempty"`
	}

	ContractRecords struct {
		Contract types.ContractID          `yaml:"contract"`
		Records  []types.TransactionRecord `yaml:"records"`
	}
)

func LoadGenesis(filename string) (*Genesis, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading genesis file: %w", err)
	}
	g := &Genesis{}
	if err := yaml.Unmarshal(data, g); err != nil {
		return nil, fmt.Errorf("decoding genesis file %q: %w", filename, err)
	}
	return g, nil
}

// Import writes the genesis entities into the store. Records of unknown
// contracts are rejected.
func Import(w Writer, g *Genesis) error {
	if g == nil {
		return fmt.Errorf("genesis is nil")
	}
	contracts := make(map[types.ContractID]struct{}, len(g.Contracts))
	for i, acc := range g.Accounts {
		if err := w.PutAccount(acc); err != nil {
			return fmt.Errorf("importing account %d: %w", i, err)
		}
	}
	for i, c := range g.Contracts {
		if err := w.PutContract(c); err != nil {
			return fmt.Errorf("importing contract %d: %w", i, err)
		}
		contracts[c.ID] = struct{}{}
	}
	for _, cr := range g.Records {
		if _, ok := contracts[cr.Contract]; !ok {
			return fmt.Errorf("records of contract %s: %w", cr.Contract, ErrNotFound)
		}
		for _, rec := range cr.Records {
			if err := w.AddRecord(cr.Contract, rec); err != nil {
				return fmt.Errorf("importing record %s of contract %s: %w", rec.TransactionID, cr.Contract, err)
			}
		}
	}
	return nil
}
