package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alphabill-org/admission/state/boltdb"
)

const defaultStateDBFile = "state.db"

type stateImportConfiguration struct {
	Base    *baseConfiguration
	StateDB string
	Genesis string
}

func newStateCmd(baseConfig *baseConfiguration) *cobra.Command {
	var cmd = &cobra.Command{
		Use:   "state",
		Short: "Manages the entity store of the node",
	}
	cmd.AddCommand(newStateImportCmd(baseConfig))
	return cmd
}

func newStateImportCmd(baseConfig *baseConfiguration) *cobra.Command {
	config := &stateImportConfiguration{Base: baseConfig}
	var cmd = &cobra.Command{
		Use:   "import",
		Short: "Imports accounts, contracts and records of the genesis file into the entity store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return importState(config)
		},
	}
	cmd.Flags().StringVar(&config.StateDB, keyStateDB, defaultStateDBFile, "entity store database file. Considered absolute if starts with '/'. Otherwise relative from $ADM_HOME.")
	cmd.Flags().StringVar(&config.Genesis, keyGenesis, "", "genesis file to import")
	if err := cmd.MarkFlagRequired(keyGenesis); err != nil {
		panic(err)
	}
	return cmd
}

func importState(cfg *stateImportConfiguration) (rErr error) {
	dbFile := cfg.Base.pathInHome(cfg.StateDB)
	db, err := boltdb.New(dbFile)
	if err != nil {
		return fmt.Errorf("opening entity store %s: %w", dbFile, err)
	}
	defer func() { rErr = errors.Join(rErr, db.Close()) }()

	if err := importGenesis(db, cfg.Base.pathInHome(cfg.Genesis)); err != nil {
		return err
	}
	cfg.Base.observe.Logger().Info(fmt.Sprintf("genesis imported into %s", dbFile))
	return nil
}

func boltStore(filename string) (closableStore, error) {
	db, err := boltdb.New(filename)
	if err != nil {
		return nil, err
	}
	return db, nil
}
