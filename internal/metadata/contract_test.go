package metadata

import (
	"testing"

	"github.com/stretchr/testify/require"

	"swiftwinrt/internal/winmd"
)

func historyOf(t *testing.T, build func(*winmd.TypeBuilder)) (ContractHistory, bool, error) {
	t.Helper()
	b := winmd.NewBuilder("Contracts.winmd")
	build(b.Class("C", "T"))
	c, err := New([]*winmd.Database{b.Build()}, nil, nil)
	require.NoError(t, err)
	td, ok := c.Find("C", "T")
	require.True(t, ok)
	return ContractHistoryOf(td)
}

func TestContractHistoryOrdersByChain(t *testing.T) {
	h, ok, err := historyOf(t, func(tb *winmd.TypeBuilder) {
		// declared newest first
		tb.PreviousContract("B", 1, 3, "C")
		tb.PreviousContract("A", 2, 5, "B")
		tb.Contract("C", 1)
	})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"A", "B"}, []string{h.Previous[0].Name, h.Previous[1].Name})
	require.Equal(t, ContractVersion{Name: "C", Version: 1}, h.Current)
	require.Equal(t, ContractVersion{Name: "A", Version: 2}, h.FirstIntroduced())
}

func TestContractIndexRoundTrip(t *testing.T) {
	h, _, err := historyOf(t, func(tb *winmd.TypeBuilder) {
		tb.PreviousContract("A", 2, 5, "B")
		tb.PreviousContract("B", 1, 3, "C")
		tb.Contract("C", 4)
	})
	require.NoError(t, err)
	for i := 0; i < h.Len(); i++ {
		cv, ok := h.ContractFromIndex(i)
		require.True(t, ok)
		got, ok := h.ContractIndex(cv.Name, cv.Version)
		require.True(t, ok)
		require.Equal(t, i, got)
	}

	i, ok := h.ContractIndex("A", 4)
	require.True(t, ok)
	require.Equal(t, 0, i)
	_, ok = h.ContractIndex("A", 5)
	require.False(t, ok)
	i, ok = h.ContractIndex("C", 9)
	require.True(t, ok)
	require.Equal(t, 2, i)
	_, ok = h.ContractIndex("C", 3)
	require.False(t, ok)
	_, ok = h.ContractFromIndex(3)
	require.False(t, ok)
}

func TestContractHistoryRejectsOverlap(t *testing.T) {
	_, _, err := historyOf(t, func(tb *winmd.TypeBuilder) {
		tb.PreviousContract("A", 1, 5, "A")
		tb.Contract("A", 3)
	})
	requireKind(t, err, ErrContractHistory)

	_, _, err = historyOf(t, func(tb *winmd.TypeBuilder) {
		tb.PreviousContract("A", 4, 4, "B")
		tb.Contract("B", 1)
	})
	requireKind(t, err, ErrContractHistory)
}

func TestContractHistoryAbsent(t *testing.T) {
	_, ok, err := historyOf(t, func(*winmd.TypeBuilder) {})
	require.NoError(t, err)
	require.False(t, ok)
}
