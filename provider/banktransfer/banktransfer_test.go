package banktransfer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/provider"
)

func TestGenerateReference_Shape(t *testing.T) {
	ref, err := GenerateReference("")
	require.NoError(t, err)

	blocks := strings.Split(ref, "-")
	require.Len(t, blocks, randomBlocks)
	for _, block := range blocks {
		assert.Len(t, block, 4)
		for _, c := range block {
			assert.Contains(t, referenceAlphabet, string(c))
		}
	}
}

func TestGenerateReference_PrefixUppercased(t *testing.T) {
	ref, err := GenerateReference("tree")
	require.NoError(t, err)

	blocks := strings.Split(ref, "-")
	require.Len(t, blocks, randomBlocks+1)
	assert.Equal(t, "TREE", blocks[0])
}

func TestReferenceAlphabet_ExcludesConfusableSymbols(t *testing.T) {
	assert.Len(t, referenceAlphabet, 31)
	for _, banned := range "IOVUS" {
		assert.NotContains(t, referenceAlphabet, string(banned))
	}
}

func TestInitiate_CompletesWithPurposePrefix(t *testing.T) {
	form := &config.FormConfig{
		Name: "main",
		Payment: config.PaymentSettings{
			ReferencePrefix: config.ReferencePrefix{
				Default:  "gift",
				Purposes: map[string]string{"trees": "tree"},
			},
		},
	}

	adapter := NewAdapter()
	result, err := adapter.Initiate(context.Background(), &provider.CheckoutContext{
		Donation: &provider.Donation{Purpose: "trees"},
		Form:     form,
	})
	require.NoError(t, err)
	assert.True(t, result.Completed)
	assert.True(t, strings.HasPrefix(result.Reference, "TREE-"), result.Reference)
}

func TestConfirm_IsNeverValid(t *testing.T) {
	_, err := NewAdapter().Confirm(context.Background(), &provider.ConfirmContext{})
	require.Error(t, err)
	assert.Equal(t, provider.KindReplay, provider.KindOf(err))
}
