// Package banktransfer implements the manual bank transfer flow. There is
// no external payment call; the donor receives a reference number to quote
// in their transfer.
package banktransfer

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/mstgnz/donate/infra/config"
	"github.com/mstgnz/donate/provider"
)

const providerName = "banktransfer"

// referenceAlphabet excludes I, O, V, U and S, which are easy to misread
// or mishear when a donor quotes the reference to their bank.
const referenceAlphabet = "0123456789ABCDEFGHJKLMNPQRTWXYZ"

// randomBlocks is the number of 4-character random blocks in a reference.
const randomBlocks = 2

// Adapter records bank transfer donations synchronously.
type Adapter struct{}

// NewAdapter creates a new bank transfer adapter
func NewAdapter() provider.PaymentAdapter {
	return &Adapter{}
}

func (a *Adapter) Name() string {
	return providerName
}

func (a *Adapter) RequiredConfig() []string {
	return config.RequiredAccountFields(providerName)
}

// Initiate generates the reference number and completes immediately.
func (a *Adapter) Initiate(ctx context.Context, checkout *provider.CheckoutContext) (*provider.InitiateResult, error) {
	prefix := checkout.Form.ReferencePrefixFor(checkout.Donation.Purpose)

	reference, err := GenerateReference(prefix)
	if err != nil {
		return nil, provider.WrapError(provider.KindUnavailable, "could not generate reference number", err)
	}

	return &provider.InitiateResult{
		Completed: true,
		Reference: reference,
	}, nil
}

// Confirm is never reached for the synchronous bank transfer flow.
func (a *Adapter) Confirm(ctx context.Context, confirm *provider.ConfirmContext) (*provider.ConfirmResult, error) {
	return nil, provider.NewError(provider.KindReplay, "No matching donation in progress")
}

// GenerateReference produces a human-readable reference number: 4-character
// blocks of safe-alphabet symbols joined by hyphens, led by the uppercased
// prefix when one is configured.
func GenerateReference(prefix string) (string, error) {
	blocks := make([]string, 0, randomBlocks+1)
	if prefix != "" {
		blocks = append(blocks, strings.ToUpper(prefix))
	}

	max := big.NewInt(int64(len(referenceAlphabet)))
	for i := 0; i < randomBlocks; i++ {
		var block strings.Builder
		for j := 0; j < 4; j++ {
			n, err := rand.Int(rand.Reader, max)
			if err != nil {
				return "", err
			}
			block.WriteByte(referenceAlphabet[n.Int64()])
		}
		blocks = append(blocks, block.String())
	}

	return strings.Join(blocks, "-"), nil
}
