// Package matching implements the compatibility scorer and the match search
// engine. Every comparison runs on ciphertexts through an fhe.Executor; the
// running best (score, index) pair is folded with oblivious selects, so the
// engine never learns who matched whom.
package matching

import (
	"errors"
	"fmt"

	"github.com/Hazem-dh/FHEarts/acl"
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/log"
	"github.com/Hazem-dh/FHEarts/params"
	"github.com/Hazem-dh/FHEarts/profile"
	"github.com/Hazem-dh/FHEarts/registry"
)

// ErrInsufficientCandidates is returned when fewer than two participants are
// active, leaving the searcher nobody to be matched with.
var ErrInsufficientCandidates = errors.New("insufficient candidates")

// Progress reports the outcome of one search call.
type Progress struct {
	From     uint64 // first slot scanned by this call
	To       uint64 // last slot scanned by this call
	Scanned  uint64 // candidates folded by this call
	Complete bool   // the record was published
	Record   Record // published record, set when Complete
}

// Searcher runs match searches.
type Searcher struct {
	ex        fhe.Executor
	batchSize uint64
	minAge    uint64
	log       log.Logger
}

// NewSearcher creates a searcher evaluating circuits on ex. A batchSize of 0
// scans every slot in a single call.
func NewSearcher(ex fhe.Executor, batchSize, minAge uint64) *Searcher {
	return &Searcher{
		ex:        ex,
		batchSize: batchSize,
		minAge:    minAge,
		log:       log.New("module", "matching"),
	}
}

// Search advances who's search by one batch of slots, starting a new search
// if none is in progress. Candidates are visited in ascending slot order and
// only a strictly higher score displaces the running best, so the lowest
// slot wins ties. The final batch publishes the match record and grants who
// decrypt access to its score and index.
func (s *Searcher) Search(db vm.StateDB, who common.Address) (*Progress, error) {
	ownIndex := registry.IndexOf(db, who)
	if ownIndex == params.NoMatchIndex {
		return nil, registry.ErrNotRegistered
	}
	if registry.ActiveCount(db) < 2 {
		return nil, ErrInsufficientCandidates
	}
	own, err := profile.Load(db, who)
	if err != nil {
		return nil, err
	}
	c := fhe.NewCircuit(s.ex)

	st := readSearch(db, who)
	if !st.inProgress() {
		st = searchState{
			bestScore: c.Const(0, fhe.TypeUint8),
			bestIndex: c.Const(params.NoMatchIndex, fhe.TypeUint64),
			hasBest:   c.Const(0, fhe.TypeBool),
			cursor:    params.FirstSlot,
		}
	}
	last := registry.SlotCount(db)
	if s.batchSize > 0 && st.cursor+s.batchSize-1 < last {
		last = st.cursor + s.batchSize - 1
	}
	prog := &Progress{From: st.cursor, To: last}

	// An inactive searcher is not eligible with anybody.
	searcherActive := registry.IsActive(db, who)
	for index := st.cursor; index <= last && searcherActive; index++ {
		if index == ownIndex {
			continue
		}
		cand := registry.AddressOf(db, index)
		if !registry.IsActive(db, cand) {
			continue
		}
		vec, err := profile.Load(db, cand)
		if err != nil {
			return nil, fmt.Errorf("matching: slot %d: %w", index, err)
		}
		s.fold(c, &st, &own, &vec, index)
		prog.Scanned++
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("matching: circuit failed: %w", err)
	}
	st.scanned += prog.Scanned

	if last < registry.SlotCount(db) {
		st.cursor = last + 1
		writeSearch(db, who, st)
		s.log.Debug("Search batch done", "who", who, "from", prog.From, "to", prog.To, "scanned", prog.Scanned)
		return prog, nil
	}
	rec := Record{
		BestScore:   st.bestScore,
		BestIndex:   st.bestIndex,
		IsValid:     st.scanned > 0,
		HasSearched: true,
	}
	writeRecord(db, who, rec)
	writeSearch(db, who, searchState{})
	acl.AllowAll(db, who, rec.BestScore, rec.BestIndex)

	prog.Complete, prog.Record = true, rec
	s.log.Debug("Search complete", "who", who, "scanned", st.scanned, "valid", rec.IsValid, "ops", c.Ops())
	return prog, nil
}

// fold merges candidate index into the running best:
//
//	better    = eligible && (score > best || !hasBest)
//	best      = better ? score : best
//	bestIndex = better ? index : bestIndex
//	hasBest   = hasBest || eligible
func (s *Searcher) fold(c *fhe.Circuit, st *searchState, own, cand *profile.Vector, index uint64) {
	eligible := Eligible(c, own, cand, s.minAge)
	score := Score(c, own, cand)
	better := c.And(eligible, c.Or(c.Gt(score, st.bestScore), c.Not(st.hasBest)))
	st.bestScore = c.Select(better, score, st.bestScore)
	st.bestIndex = c.Select(better, c.Const(index, fhe.TypeUint64), st.bestIndex)
	st.hasBest = c.Or(st.hasBest, eligible)
}
