package fhearts

import (
	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/types"
	"github.com/Hazem-dh/FHEarts/params"
	"github.com/Hazem-dh/FHEarts/sysaction"
)

// Event topics. Topic 1 is always the acting participant, topic 2 the
// counterpart where there is one.
var (
	EventUserRegistered     = types.EventID("UserRegistered(address,uint64)")
	EventProfileUpdated     = types.EventID("ProfileUpdated(address,uint64)")
	EventProfileDeactivated = types.EventID("ProfileDeactivated(address)")
	EventProfileReactivated = types.EventID("ProfileReactivated(address)")
	EventSearchProgress     = types.EventID("SearchProgress(address,uint64,uint64,uint64)")
	EventMatchFound         = types.EventID("MatchFound(address,bytes32,bytes32,bool)")
	EventSearchReset        = types.EventID("SearchReset(address)")
	EventMatchConfirmed     = types.EventID("MatchConfirmed(address,address)")
	EventMutualMatch        = types.EventID("MutualMatch(address,address)")
	EventMatchRejected      = types.EventID("MatchRejected(address,address)")
	EventPhoneConsentGiven  = types.EventID("PhoneConsentGiven(address,address)")
	EventMutualPhoneConsent = types.EventID("MutualPhoneConsent(address,address)")
	EventMatchCleared       = types.EventID("MatchCleared(address)")
)

// emit appends an engine log. Addresses become topics, data words are
// concatenated.
func emit(ctx *sysaction.Context, event common.Hash, who []common.Address, words ...common.Hash) {
	topics := make([]common.Hash, 0, 1+len(who))
	topics = append(topics, event)
	for _, a := range who {
		topics = append(topics, a.Hash())
	}
	data := make([]byte, 0, len(words)*common.HashLength)
	for _, w := range words {
		data = append(data, w[:]...)
	}
	ctx.StateDB.AddLog(&types.Log{
		Address: params.EngineAddress,
		Topics:  topics,
		Data:    data,
		OpHash:  ctx.OpHash,
	})
}

func boolWord(b bool) common.Hash {
	if b {
		return common.Uint64ToHash(1)
	}
	return common.Hash{}
}
