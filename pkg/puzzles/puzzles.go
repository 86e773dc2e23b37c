// Package puzzles holds the compiled puzzle templates the wallet recognizes
// and the helpers to build conditions and delegated-puzzle solutions around
// them. The template bodies are opaque to the wallet: they are only ever
// curried, tree-hashed and byte-matched.
package puzzles

import (
	"github.com/coinset-network/coinset-wallet/pkg/program"
)

// Compiled template serializations.
const (
	offerModHex       = "ff0193736574746c656d656e745f7061796d656e7473"
	catModHex         = "ff01866361745f7632"
	singletonModHex   = "ff019873696e676c65746f6e5f746f705f6c617965725f76315f31"
	launcherModHex    = "ff019273696e676c65746f6e5f6c61756e63686572"
	metadataModHex    = "ff018f6e66745f73746174655f6c61796572"
	ownershipModHex   = "ff01936e66745f6f776e6572736869705f6c61796572"
	graftrootDLHex    = "ff01936772616674726f6f745f646c5f6f6666657273"
	p2DelegatedModHex = "ff01a470325f64656c6567617465645f70757a7a6c655f6f725f68696464656e5f70757a7a6c65"
	annWrapperModHex  = "ff01986164645f777261707065645f616e6e6f756e63656d656e74"
	dlHostModHex      = "ff019364617461626173655f6c617965725f686f7374"
)

var (
	// OfferMod is the settlement template that collects requested payments.
	OfferMod = program.MustFromHex(offerModHex)
	// CatMod is the fungible-token outer layer.
	CatMod = program.MustFromHex(catModHex)
	// SingletonTopLayerMod is the uniqueness-enforcing outer layer.
	SingletonTopLayerMod = program.MustFromHex(singletonModHex)
	// LauncherMod is the singleton launcher template.
	LauncherMod = program.MustFromHex(launcherModHex)
	// MetadataLayerMod carries mutable metadata and its updater commitment.
	MetadataLayerMod = program.MustFromHex(metadataModHex)
	// OwnershipLayerMod carries the current owner and the transfer program.
	OwnershipLayerMod = program.MustFromHex(ownershipModHex)
	// GraftrootDLOffers is the delegated wrapper requiring data-layer
	// inclusion proofs before the wrapped conditions apply.
	GraftrootDLOffers = program.MustFromHex(graftrootDLHex)
	// P2DelegatedOrHiddenMod is the standard inner spend template.
	P2DelegatedOrHiddenMod = program.MustFromHex(p2DelegatedModHex)
	// AnnouncementWrapperMod wraps a delegated puzzle with an announcement
	// assertion binding it to a requested payment.
	AnnouncementWrapperMod = program.MustFromHex(annWrapperModHex)
	// DLHostMod is the data-layer singleton host template.
	DLHostMod = program.MustFromHex(dlHostModHex)

	OfferModHash             = OfferMod.TreeHash()
	CatModHash               = CatMod.TreeHash()
	SingletonTopLayerModHash = SingletonTopLayerMod.TreeHash()
	LauncherModHash          = LauncherMod.TreeHash()
	MetadataLayerModHash     = MetadataLayerMod.TreeHash()
	OwnershipLayerModHash    = OwnershipLayerMod.TreeHash()
)

// SingletonStruct returns the committed triple identifying a singleton line:
// (mod_hash . (launcher_id . launcher_puzzle_hash)).
func SingletonStruct(launcherID [32]byte) *program.Program {
	return program.NewPair(
		program.NewAtom(SingletonTopLayerModHash[:]),
		program.NewPair(
			program.NewAtom(launcherID[:]),
			program.NewAtom(LauncherModHash[:]),
		),
	)
}

// CreateHostFullpuz wraps an inner puzzle with the data-layer host layer
// committing to the given merkle root and singleton identity.
func CreateHostFullpuz(inner *program.Program, root [32]byte, launcherID [32]byte) *program.Program {
	return program.Curry(
		DLHostMod,
		SingletonStruct(launcherID),
		program.NewAtom(root[:]),
		inner,
	)
}

// SolutionForDelegatedPuzzle builds the standard inner solution
// (() delegated_puzzle delegated_solution).
func SolutionForDelegatedPuzzle(delegated, solution *program.Program) *program.Program {
	return program.FromList(program.Nil(), delegated, solution)
}

// DelegatedPuzzleForConditions builds the delegated puzzle (q . conditions).
func DelegatedPuzzleForConditions(conditions []*program.Program) *program.Program {
	return program.NewPair(program.FromInt(1), program.FromList(conditions...))
}
