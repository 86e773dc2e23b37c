package domain

import (
	"fmt"
	"reflect"

	"github.com/coinset-network/coinset-wallet/pkg/solver"
)

// AssetTypeKind is the closed set of puzzle layer kinds an asset stack can
// be made of.
type AssetTypeKind string

const (
	// AssetTypeCAT is the fungible-token outer layer.
	AssetTypeCAT AssetTypeKind = "CAT"
	// AssetTypeSingleton is the uniqueness-enforcing layer.
	AssetTypeSingleton AssetTypeKind = "singleton"
	// AssetTypeMetadata is the mutable-metadata layer.
	AssetTypeMetadata AssetTypeKind = "metadata"
	// AssetTypeOwnership is the owner/transfer-program layer.
	AssetTypeOwnership AssetTypeKind = "ownership"
)

// AssetTypeLayer is one level of an asset's puzzle stack: a kind tag plus
// the parameters committed at that level. Immutable once built.
type AssetTypeLayer struct {
	Kind   AssetTypeKind
	Params solver.Solver
}

// PuzzleInfo describes an asset's full puzzle stack as an ordered sequence
// of layers, outermost first. It is built once at decode time instead of
// being chased lazily through nested driver references.
type PuzzleInfo struct {
	layers []AssetTypeLayer
}

// NewPuzzleInfo builds a driver description from its layers, outermost first.
func NewPuzzleInfo(layers ...AssetTypeLayer) PuzzleInfo {
	return PuzzleInfo{layers: layers}
}

// PuzzleInfoFromSolver decodes the nested driver form, walking the "also"
// chain and emitting one layer per level.
func PuzzleInfoFromSolver(s solver.Solver) (PuzzleInfo, error) {
	layers := []AssetTypeLayer{}
	node := s
	for {
		kind, err := node.GetString("type")
		if err != nil {
			return PuzzleInfo{}, fmt.Errorf("invalid asset driver: %w", err)
		}
		params := solver.Solver{}
		for k, v := range node {
			if k != "type" && k != "also" {
				params[k] = v
			}
		}
		layers = append(layers, AssetTypeLayer{Kind: AssetTypeKind(kind), Params: params})

		if !node.Has("also") {
			break
		}
		node, err = node.GetSolver("also")
		if err != nil {
			return PuzzleInfo{}, fmt.Errorf("invalid asset driver: %w", err)
		}
	}
	return PuzzleInfo{layers: layers}, nil
}

// IsEmpty returns whether the description has no layers at all.
func (pi PuzzleInfo) IsEmpty() bool {
	return len(pi.layers) == 0
}

// Type returns the outermost layer kind.
func (pi PuzzleInfo) Type() AssetTypeKind {
	if pi.IsEmpty() {
		return ""
	}
	return pi.layers[0].Kind
}

// Outermost returns the outermost layer.
func (pi PuzzleInfo) Outermost() AssetTypeLayer {
	return pi.layers[0]
}

// Also peels the outermost layer, returning the description of what is
// nested underneath and whether anything is left.
func (pi PuzzleInfo) Also() (PuzzleInfo, bool) {
	if len(pi.layers) <= 1 {
		return PuzzleInfo{}, false
	}
	return PuzzleInfo{layers: pi.layers[1:]}, true
}

// Layers returns the stack outermost first.
func (pi PuzzleInfo) Layers() []AssetTypeLayer {
	return pi.layers
}

// CheckType returns whether the stack is made of exactly the given kinds in
// order.
func (pi PuzzleInfo) CheckType(kinds ...AssetTypeKind) bool {
	if len(pi.layers) != len(kinds) {
		return false
	}
	for i, k := range kinds {
		if pi.layers[i].Kind != k {
			return false
		}
	}
	return true
}

// IsRoyaltyEnabledNFT returns whether the asset is a provenant NFT, ie. a
// singleton with metadata and ownership layers. Only those owe royalties.
func (pi PuzzleInfo) IsRoyaltyEnabledNFT() bool {
	return pi.CheckType(AssetTypeSingleton, AssetTypeMetadata, AssetTypeOwnership)
}

// Equal reports whether two descriptions commit to the same stack. Drivers
// must agree exactly or a trade is rejected.
func (pi PuzzleInfo) Equal(other PuzzleInfo) bool {
	if len(pi.layers) != len(other.layers) {
		return false
	}
	for i := range pi.layers {
		if pi.layers[i].Kind != other.layers[i].Kind {
			return false
		}
		if !reflect.DeepEqual(pi.layers[i].Params, other.layers[i].Params) {
			return false
		}
	}
	return true
}

// ToSolver rebuilds the nested "also" driver form.
func (pi PuzzleInfo) ToSolver() solver.Solver {
	var out solver.Solver
	for i := len(pi.layers) - 1; i >= 0; i-- {
		layer := solver.Solver{"type": string(pi.layers[i].Kind)}
		for k, v := range pi.layers[i].Params {
			layer[k] = v
		}
		if out != nil {
			layer["also"] = out
		}
		out = layer
	}
	if out == nil {
		out = solver.Solver{}
	}
	return out
}

// BuildAssetTypes emits one generic-map entry per layer of the driver,
// outermost first, in the shape requested-payment dependencies carry.
func BuildAssetTypes(driver PuzzleInfo) ([]solver.Solver, error) {
	out := make([]solver.Solver, 0, len(driver.layers))
	for _, layer := range driver.layers {
		entry, err := buildAssetType(layer)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func buildAssetType(layer AssetTypeLayer) (solver.Solver, error) {
	switch layer.Kind {
	case AssetTypeCAT:
		tail, err := layer.Params.GetString("tail")
		if err != nil {
			return nil, fmt.Errorf("CAT layer: %w", err)
		}
		return solver.Solver{
			"type":     string(AssetTypeCAT),
			"asset_id": tail,
		}, nil
	case AssetTypeSingleton:
		launcherID, err := layer.Params.GetString("launcher_id")
		if err != nil {
			return nil, fmt.Errorf("singleton layer: %w", err)
		}
		launcherPH, err := layer.Params.GetString("launcher_ph")
		if err != nil {
			return nil, fmt.Errorf("singleton layer: %w", err)
		}
		return solver.Solver{
			"type":        string(AssetTypeSingleton),
			"launcher_id": launcherID,
			"launcher_ph": launcherPH,
		}, nil
	case AssetTypeMetadata:
		metadata, err := layer.Params.GetString("metadata")
		if err != nil {
			return nil, fmt.Errorf("metadata layer: %w", err)
		}
		updaterHash, err := layer.Params.GetString("updater_hash")
		if err != nil {
			return nil, fmt.Errorf("metadata layer: %w", err)
		}
		return solver.Solver{
			"type":                  string(AssetTypeMetadata),
			"metadata":              metadata,
			"metadata_updater_hash": updaterHash,
		}, nil
	case AssetTypeOwnership:
		owner, err := layer.Params.GetString("owner")
		if err != nil {
			return nil, fmt.Errorf("ownership layer: %w", err)
		}
		transferProgram, err := layer.Params.GetSolver("transfer_program")
		if err != nil {
			return nil, fmt.Errorf("ownership layer: %w", err)
		}
		return solver.Solver{
			"type":             string(AssetTypeOwnership),
			"owner":            owner,
			"transfer_program": map[string]interface{}(transferProgram),
		}, nil
	default:
		return nil, fmt.Errorf("unknown asset layer kind %q", layer.Kind)
	}
}
