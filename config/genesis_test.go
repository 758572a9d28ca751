package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolelom/tolledger/core"
	"github.com/tolelom/tolledger/storage"
)

func seeds(pairs ...any) []GenesisBalance {
	var out []GenesisBalance
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, GenesisBalance{
			Account: core.AccountID(pairs[i].(string)),
			Balance: core.NewBalance(uint64(pairs[i+1].(int))),
		})
	}
	return out
}

func TestValidateGenesis_Duplicate_AnyOrder(t *testing.T) {
	lists := [][]GenesisBalance{
		seeds("a", 1, "b", 2, "a", 3),
		seeds("a", 3, "a", 1, "b", 2),
		seeds("b", 2, "a", 1, "a", 3),
	}
	for _, l := range lists {
		_, err := ValidateGenesis(GenesisConfig{Balances: l}, core.NewBalance(1000))
		assert.ErrorIs(t, err, ErrDuplicateGenesisAccount)
	}
}

func TestValidateGenesis_ExceedsCap_AnyOrder(t *testing.T) {
	lists := [][]GenesisBalance{
		seeds("a", 600, "b", 500),
		seeds("b", 500, "a", 600),
	}
	for _, l := range lists {
		_, err := ValidateGenesis(GenesisConfig{Balances: l}, core.NewBalance(1000))
		assert.ErrorIs(t, err, ErrGenesisExceedsMaxSupply)
	}
}

func TestValidateGenesis_Overflow(t *testing.T) {
	g := GenesisConfig{Balances: []GenesisBalance{
		{Account: "a", Balance: core.MaxBalance},
		{Account: "b", Balance: core.NewBalance(1)},
	}}
	_, err := ValidateGenesis(g, core.MaxBalance)
	assert.ErrorIs(t, err, ErrGenesisSupplyOverflow)

	// a duplicate later in the list is still reported
	g.Balances = append(g.Balances, GenesisBalance{Account: "a"})
	_, err = ValidateGenesis(g, core.MaxBalance)
	assert.ErrorIs(t, err, ErrDuplicateGenesisAccount)
}

func TestValidateGenesis_Override(t *testing.T) {
	low := core.NewBalance(100)
	_, err := ValidateGenesis(GenesisConfig{Balances: seeds("a", 150), MaxTokenSupply: &low}, core.NewBalance(1000))
	assert.ErrorIs(t, err, ErrGenesisExceedsMaxSupply)

	high := core.NewBalance(5000)
	_, err = ValidateGenesis(GenesisConfig{Balances: seeds("a", 150), MaxTokenSupply: &high}, core.NewBalance(1000))
	assert.ErrorIs(t, err, ErrGenesisCapAboveRuntimeMax)

	total, err := ValidateGenesis(GenesisConfig{Balances: seeds("a", 60, "b", 40), MaxTokenSupply: &low}, core.NewBalance(1000))
	require.NoError(t, err)
	assert.Equal(t, core.NewBalance(100), total)
}

func TestValidateGenesis_EmptyAccount(t *testing.T) {
	_, err := ValidateGenesis(GenesisConfig{Balances: seeds("a", 1, "", 2)}, core.NewBalance(1000))
	assert.ErrorIs(t, err, ErrEmptyGenesisAccount)

	db := storage.NewMemDB()
	_, err = BuildGenesis(GenesisConfig{Balances: seeds("", 0)}, core.NewBalance(1000), storage.NewStateDB(db))
	assert.ErrorIs(t, err, ErrEmptyGenesisAccount)
	assert.Zero(t, db.Len())
}

func TestValidateGenesis_ZeroCap(t *testing.T) {
	_, err := ValidateGenesis(GenesisConfig{Balances: seeds("a", 1)}, core.Balance{})
	assert.ErrorIs(t, err, ErrGenesisExceedsMaxSupply)
	_, err = ValidateGenesis(GenesisConfig{}, core.Balance{})
	assert.NoError(t, err)
}

func TestBuildGenesis(t *testing.T) {
	db := storage.NewMemDB()
	state := storage.NewStateDB(db)
	g := GenesisConfig{Balances: seeds("a", 600, "b", 300)}

	wrote, err := BuildGenesis(g, core.NewBalance(1000), state)
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Positive(t, db.Len(), "genesis is committed")

	acc, err := state.GetAccount("a")
	require.NoError(t, err)
	assert.Equal(t, core.AccountData{Free: core.NewBalance(600)}, acc)
	total, initialized, err := state.TotalIssuance()
	require.NoError(t, err)
	assert.True(t, initialized)
	assert.Equal(t, core.NewBalance(900), total)

	// a restart with a different list leaves the stored ledger alone
	wrote, err = BuildGenesis(GenesisConfig{Balances: seeds("c", 5)}, core.NewBalance(1000), storage.NewStateDB(db))
	require.NoError(t, err)
	assert.False(t, wrote)
	acc, err = state.GetAccount("c")
	require.NoError(t, err)
	assert.True(t, acc.Free.IsZero())
}

func TestBuildGenesis_RejectsWithoutWriting(t *testing.T) {
	db := storage.NewMemDB()
	_, err := BuildGenesis(GenesisConfig{Balances: seeds("a", 2000)}, core.NewBalance(1000), storage.NewStateDB(db))
	assert.ErrorIs(t, err, ErrGenesisExceedsMaxSupply)
	assert.Zero(t, db.Len())
}
