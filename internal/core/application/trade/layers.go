package trade

import (
	"fmt"

	"github.com/coinset-network/coinset-wallet/internal/core/domain"
	"github.com/coinset-network/coinset-wallet/pkg/program"
	"github.com/coinset-network/coinset-wallet/pkg/puzzles"
	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

// buildLayerPuzzle wraps inner with a single outer layer.
func buildLayerPuzzle(layer domain.AssetTypeLayer, inner *program.Program) (*program.Program, error) {
	switch layer.Kind {
	case domain.AssetTypeCAT:
		tail, err := layer.Params.GetBytes32("tail")
		if err != nil {
			return nil, err
		}
		return program.Curry(
			puzzles.CatMod,
			program.NewAtom(puzzles.CatModHash[:]),
			program.NewAtom(tail[:]),
			inner,
		), nil
	case domain.AssetTypeSingleton:
		launcherID, err := layer.Params.GetBytes32("launcher_id")
		if err != nil {
			return nil, err
		}
		return program.Curry(
			puzzles.SingletonTopLayerMod,
			puzzles.SingletonStruct(launcherID),
			inner,
		), nil
	case domain.AssetTypeMetadata:
		metadata, err := layer.Params.GetProgram("metadata")
		if err != nil {
			return nil, err
		}
		updaterHash, err := layer.Params.GetBytes32("updater_hash")
		if err != nil {
			return nil, err
		}
		return program.Curry(
			puzzles.MetadataLayerMod,
			program.NewAtom(puzzles.MetadataLayerModHash[:]),
			metadata,
			program.NewAtom(updaterHash[:]),
			inner,
		), nil
	case domain.AssetTypeOwnership:
		owner, err := ownerProgram(layer.Params)
		if err != nil {
			return nil, err
		}
		transferProgram, err := transferProgramFromSolver(layer.Params)
		if err != nil {
			return nil, err
		}
		return program.Curry(
			puzzles.OwnershipLayerMod,
			program.NewAtom(puzzles.OwnershipLayerModHash[:]),
			owner,
			transferProgram,
			inner,
		), nil
	default:
		return nil, fmt.Errorf("unknown asset layer kind %q", layer.Kind)
	}
}

// buildFullPuzzle wraps inner with the given layers, outermost first.
func buildFullPuzzle(
	layers []domain.AssetTypeLayer, inner *program.Program,
) (*program.Program, error) {
	puzzle := inner
	for i := len(layers) - 1; i >= 0; i-- {
		wrapped, err := buildLayerPuzzle(layers[i], puzzle)
		if err != nil {
			return nil, err
		}
		puzzle = wrapped
	}
	return puzzle, nil
}

// uncurryLayers peels known outer layers off a full puzzle reveal, returning
// them outermost first along with the innermost puzzle.
func uncurryLayers(
	puzzle *program.Program,
) ([]domain.AssetTypeLayer, *program.Program, error) {
	layers := make([]domain.AssetTypeLayer, 0)
	current := puzzle
	for {
		mod, args, ok := current.Uncurry()
		if !ok {
			return layers, current, nil
		}
		switch {
		case mod.Equal(puzzles.CatMod):
			if len(args) != 3 {
				return nil, nil, fmt.Errorf("malformed CAT layer: %d args", len(args))
			}
			tail, err := args[1].Atom()
			if err != nil {
				return nil, nil, err
			}
			layers = append(layers, domain.AssetTypeLayer{
				Kind: domain.AssetTypeCAT,
				Params: solver.Solver{
					"tail": solver.HexBytes(tail),
				},
			})
			current = args[2]
		case mod.Equal(puzzles.SingletonTopLayerMod):
			if len(args) != 2 {
				return nil, nil, fmt.Errorf("malformed singleton layer: %d args", len(args))
			}
			launcherID, err := args[0].MustAt("rf").Atom()
			if err != nil {
				return nil, nil, err
			}
			launcherPuzHash, err := args[0].MustAt("rr").Atom()
			if err != nil {
				return nil, nil, err
			}
			layers = append(layers, domain.AssetTypeLayer{
				Kind: domain.AssetTypeSingleton,
				Params: solver.Solver{
					"launcher_id": solver.HexBytes(launcherID),
					"launcher_ph": solver.HexBytes(launcherPuzHash),
				},
			})
			current = args[1]
		case mod.Equal(puzzles.MetadataLayerMod):
			if len(args) != 4 {
				return nil, nil, fmt.Errorf("malformed metadata layer: %d args", len(args))
			}
			updaterHash, err := args[2].Atom()
			if err != nil {
				return nil, nil, err
			}
			layers = append(layers, domain.AssetTypeLayer{
				Kind: domain.AssetTypeMetadata,
				Params: solver.Solver{
					"metadata":     "0x" + args[1].Hex(),
					"updater_hash": solver.HexBytes(updaterHash),
				},
			})
			current = args[3]
		case mod.Equal(puzzles.OwnershipLayerMod):
			if len(args) != 4 {
				return nil, nil, fmt.Errorf("malformed ownership layer: %d args", len(args))
			}
			transferProgram, err := transferProgramToSolver(args[2])
			if err != nil {
				return nil, nil, err
			}
			layers = append(layers, domain.AssetTypeLayer{
				Kind: domain.AssetTypeOwnership,
				Params: solver.Solver{
					"owner":            ownerString(args[1]),
					"transfer_program": transferProgram,
				},
			})
			current = args[3]
		default:
			return layers, current, nil
		}
	}
}

func ownerString(owner *program.Program) string {
	if owner.IsNil() {
		return "()"
	}
	return "0x" + owner.Hex()
}

func ownerProgram(params solver.Solver) (*program.Program, error) {
	raw, err := params.GetString("owner")
	if err != nil {
		return nil, err
	}
	if raw == "()" || raw == "" {
		return program.Nil(), nil
	}
	buf, err := solver.DecodeHex(raw)
	if err != nil {
		return nil, err
	}
	return program.NewAtom(buf), nil
}

// transferProgramFromSolver rebuilds the curried royalty transfer program
// from its driver description.
func transferProgramFromSolver(params solver.Solver) (*program.Program, error) {
	tp, err := params.GetSolver("transfer_program")
	if err != nil {
		return nil, err
	}
	launcherID, err := tp.GetBytes32("launcher_id")
	if err != nil {
		return nil, err
	}
	royaltyAddress, err := tp.GetBytes32("royalty_address")
	if err != nil {
		return nil, err
	}
	royaltyPercentage, err := tp.GetInt("royalty_percentage")
	if err != nil {
		return nil, err
	}
	return program.FromList(
		program.NewAtom(launcherID[:]),
		program.NewAtom(royaltyAddress[:]),
		program.FromInt(royaltyPercentage),
	), nil
}

func transferProgramToSolver(tp *program.Program) (solver.Solver, error) {
	items := tp.AsIter()
	if len(items) != 3 {
		return nil, fmt.Errorf("unexpected transfer program shape: %d items", len(items))
	}
	launcherID, err := items[0].Atom()
	if err != nil {
		return nil, err
	}
	royaltyAddress, err := items[1].Atom()
	if err != nil {
		return nil, err
	}
	royaltyPercentage, err := items[2].AsInt()
	if err != nil {
		return nil, err
	}
	return solver.Solver{
		"type":               "royalty transfer program",
		"launcher_id":        solver.HexBytes(launcherID),
		"royalty_address":    solver.HexBytes(royaltyAddress),
		"royalty_percentage": fmt.Sprintf("%d", royaltyPercentage),
	}, nil
}

// settlementPuzzleHash is the hash of the settlement payments puzzle wrapped
// in the given outer layers. Offered value is locked under this hash.
func settlementPuzzleHash(layers []domain.AssetTypeLayer) (domain.Bytes32, error) {
	if len(layers) == 0 {
		return domain.Bytes32(puzzles.OfferModHash), nil
	}
	full, err := buildFullPuzzle(layers, puzzles.OfferMod)
	if err != nil {
		return domain.ZeroBytes32, err
	}
	return domain.Bytes32(full.TreeHash()), nil
}
