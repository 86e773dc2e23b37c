package puzzles

import (
	"github.com/coinset-network/coinset-wallet/pkg/program"
)

// Condition opcodes enforced by the chain.
const (
	ConditionCreateCoin               = 51
	ConditionReserveFee               = 52
	ConditionCreateCoinAnnouncement   = 60
	ConditionAssertCoinAnnouncement   = 61
	ConditionCreatePuzzleAnnouncement = 62
	ConditionAssertPuzzleAnnouncement = 63
)

// Magic opcodes consumed by outer layers instead of the chain. Negative
// opcodes never reach condition validation.
const (
	ConditionNewOwner       = -10
	ConditionUpdateMetadata = -24
)

// CreateCoin builds a (51 puzzle_hash amount memos) condition. The memo list
// is omitted entirely when empty.
func CreateCoin(puzzleHash [32]byte, amount uint64, memos [][]byte) *program.Program {
	args := []*program.Program{
		program.FromInt(ConditionCreateCoin),
		program.NewAtom(puzzleHash[:]),
		program.FromInt(int64(amount)),
	}
	if len(memos) > 0 {
		memoList := make([]*program.Program, 0, len(memos))
		for _, m := range memos {
			memoList = append(memoList, program.NewAtom(m))
		}
		args = append(args, program.FromList(memoList...))
	}
	return program.FromList(args...)
}

// ReserveFee builds a (52 amount) condition.
func ReserveFee(amount uint64) *program.Program {
	return program.FromList(program.FromInt(ConditionReserveFee), program.FromInt(int64(amount)))
}

// CreateCoinAnnouncement builds a (60 message) condition.
func CreateCoinAnnouncement(message []byte) *program.Program {
	return program.FromList(program.FromInt(ConditionCreateCoinAnnouncement), program.NewAtom(message))
}

// AssertCoinAnnouncement builds a (61 announcement_id) condition.
func AssertCoinAnnouncement(announcementID [32]byte) *program.Program {
	return program.FromList(program.FromInt(ConditionAssertCoinAnnouncement), program.NewAtom(announcementID[:]))
}

// CreatePuzzleAnnouncement builds a (62 message) condition.
func CreatePuzzleAnnouncement(message []byte) *program.Program {
	return program.FromList(program.FromInt(ConditionCreatePuzzleAnnouncement), program.NewAtom(message))
}

// AssertPuzzleAnnouncement builds a (63 announcement_id) condition.
func AssertPuzzleAnnouncement(announcementID [32]byte) *program.Program {
	return program.FromList(program.FromInt(ConditionAssertPuzzleAnnouncement), program.NewAtom(announcementID[:]))
}
