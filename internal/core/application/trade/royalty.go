package trade

import (
	"bytes"
	"sort"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/pkg/mathutil"
)

// CalculateRoyaltyPayments returns the side-payments owed to the royalty
// beneficiaries of every royalty-enabled singleton on one side of a trade,
// given the amount being paid for that side. The per-asset share is
// floor(floor(amount / n) * percentage / 10000) and the beneficiary address
// doubles as the payment's sole memo. The calculation only depends on the
// assets and the amount, so both sides of a trade derive identical payments.
func CalculateRoyaltyPayments(
	assets OfferTerms,
	paidAmount uint64,
	driverDict map[domain.Bytes32]domain.PuzzleInfo,
) ([]domain.Payment, error) {
	royaltyAssets := []domain.Bytes32{}
	for assetID := range assets {
		if assetID == NativeAssetID {
			continue
		}
		if driver, ok := driverDict[assetID]; ok && driver.IsRoyaltyEnabledNFT() {
			royaltyAssets = append(royaltyAssets, assetID)
		}
	}
	sort.Slice(royaltyAssets, func(i, j int) bool {
		return bytes.Compare(royaltyAssets[i][:], royaltyAssets[j][:]) < 0
	})

	payments := make([]domain.Payment, 0, len(royaltyAssets))
	share := mathutil.SplitAmount(paidAmount, uint64(len(royaltyAssets)))
	for _, assetID := range royaltyAssets {
		address, percentage, err := royaltyTerms(driverDict[assetID])
		if err != nil {
			return nil, err
		}
		payments = append(payments, domain.Payment{
			Address: address,
			Amount:  mathutil.BasisPointAmount(share, percentage),
			Memos:   [][]byte{address[:]},
		})
	}
	return payments, nil
}

// royaltyTerms digs the beneficiary address and basis-point percentage out of
// an NFT driver's transfer program.
func royaltyTerms(driver domain.PuzzleInfo) (domain.Bytes32, uint64, error) {
	transferInfo := driver
	for transferInfo.Type() != domain.AssetTypeOwnership {
		next, ok := transferInfo.Also()
		if !ok {
			return domain.ZeroBytes32, 0, domain.ErrUnsupportedOperation
		}
		transferInfo = next
	}
	tp, err := transferInfo.Outermost().Params.GetSolver("transfer_program")
	if err != nil {
		return domain.ZeroBytes32, 0, err
	}
	address, err := tp.GetBytes32("royalty_address")
	if err != nil {
		return domain.ZeroBytes32, 0, err
	}
	percentage, err := tp.GetUint64("royalty_percentage")
	if err != nil {
		return domain.ZeroBytes32, 0, err
	}
	return address, percentage, nil
}
