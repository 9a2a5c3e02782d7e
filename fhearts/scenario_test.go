package fhearts

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Hazem-dh/FHEarts/common"
	"github.com/Hazem-dh/FHEarts/core/vm"
	"github.com/Hazem-dh/FHEarts/fhe"
	"github.com/Hazem-dh/FHEarts/sysaction"
)

// TestMatchmakingLifecycle walks three participants through search,
// confirmation, phone consent, rejection and a profile update.
func TestMatchmakingLifecycle(t *testing.T) {
	h := newHarness(t, DefaultConfig())
	a := h.register(profileValues(5551001, female, male, 2, 3, 5))
	b := h.register(profileValues(5551002, male, female, 2, 3, 7))
	c := h.register(profileValues(5551003, male, female, 1, 3, 5))

	require.Equal(t, uint64(1), h.indexOf(a))
	require.Equal(t, uint64(2), h.indexOf(b))
	require.Equal(t, uint64(3), h.indexOf(c))

	// B and C both score 66 for A; the lower slot wins.
	score, index := h.search(a)
	require.Equal(t, uint64(66), score.Value)
	require.Equal(t, uint64(2), index.Value)

	// A confirms B, B finds and confirms A: mutual.
	receipt := h.confirm(a, index)
	require.NotNil(t, receipt.FindLog(EventMatchConfirmed))
	require.Nil(t, receipt.FindLog(EventMutualMatch))
	h.view(func(db vm.StateDB) {
		require.Equal(t, []common.Address{a.addr}, PendingRequests(db, b.addr))
	})

	score, index = h.search(b)
	require.Equal(t, uint64(66), score.Value)
	require.Equal(t, h.indexOf(a), index.Value)
	receipt = h.confirm(b, index)
	require.NotNil(t, receipt.FindLog(EventMutualMatch))
	h.view(func(db vm.StateDB) {
		require.True(t, IsMutualMatch(db, a.addr, b.addr))
		require.True(t, IsMutualMatch(db, b.addr, a.addr))
		require.Empty(t, PendingRequests(db, b.addr))
	})

	// Phone handles stay sealed until both consent.
	var bContact []fhe.Handle
	h.view(func(db vm.StateDB) {
		_, err := GetContactHandles(db, a.addr, b.addr)
		require.ErrorIs(t, err, ErrPermissionDenied)
		bContact, err = GetContactHandles(db, b.addr, b.addr)
		require.NoError(t, err)
	})
	_, err := h.decrypt(a, bContact...)
	require.ErrorIs(t, err, ErrPermissionDenied)

	receipt = h.mustSend(a, sysaction.ActionGivePhoneConsent, &sysaction.ConsentPayload{MatchedUser: b.addr})
	require.NotNil(t, receipt.FindLog(EventPhoneConsentGiven))
	require.Nil(t, receipt.FindLog(EventMutualPhoneConsent))
	h.view(func(db vm.StateDB) {
		require.True(t, HasPhoneConsent(db, a.addr, b.addr))
		require.False(t, HasMutualPhoneConsent(db, a.addr, b.addr))
	})
	_, err = h.decrypt(a, bContact...)
	require.ErrorIs(t, err, ErrPermissionDenied)

	receipt = h.mustSend(b, sysaction.ActionGivePhoneConsent, &sysaction.ConsentPayload{MatchedUser: a.addr})
	require.NotNil(t, receipt.FindLog(EventMutualPhoneConsent))
	h.view(func(db vm.StateDB) {
		require.True(t, HasMutualPhoneConsent(db, a.addr, b.addr))
		got, err := GetContactHandles(db, a.addr, b.addr)
		require.NoError(t, err)
		require.Equal(t, bContact, got)
	})
	atts, err := h.decrypt(a, bContact...)
	require.NoError(t, err)
	require.Equal(t, []uint64{33, 1, 5551002}, []uint64{atts[0].Value, atts[1].Value, atts[2].Value})

	var aContact []fhe.Handle
	h.view(func(db vm.StateDB) {
		aContact, err = GetContactHandles(db, b.addr, a.addr)
		require.NoError(t, err)
	})
	atts, err = h.decrypt(b, aContact...)
	require.NoError(t, err)
	require.Equal(t, uint64(5551001), atts[2].Value)

	// C's only eligible candidate is A. A turns C down.
	_, index = h.search(c)
	require.Equal(t, h.indexOf(a), index.Value)
	h.confirm(c, index)
	h.view(func(db vm.StateDB) {
		require.Equal(t, []common.Address{c.addr}, PendingRequests(db, a.addr))
	})
	receipt = h.mustSend(a, sysaction.ActionRespondToMatch, &sysaction.RespondPayload{Requester: c.addr, Accept: false})
	require.NotNil(t, receipt.FindLog(EventMatchRejected))
	h.view(func(db vm.StateDB) {
		require.False(t, IsMutualMatch(db, a.addr, c.addr))
		require.True(t, IsConfirmed(db, c.addr, a.addr))
		// The request stays open: pending entries derive from the kept edge.
		require.Equal(t, []common.Address{c.addr}, PendingRequests(db, a.addr))
	})

	// A updates the profile: every relation involving A is gone.
	receipt = h.mustSend(a, sysaction.ActionUpdateProfile, h.encrypt(a, profileValues(5559999, female, male, 4, 4, 4)))
	require.NotNil(t, receipt.FindLog(EventProfileUpdated))
	h.view(func(db vm.StateDB) {
		require.False(t, IsMutualMatch(db, a.addr, b.addr))
		require.False(t, HasMutualPhoneConsent(db, a.addr, b.addr))
		require.False(t, HasPhoneConsent(db, b.addr, a.addr))
		require.False(t, IsConfirmed(db, c.addr, a.addr))
		require.Empty(t, PendingRequests(db, a.addr))

		rec, err := MatchRecord(db, a.addr)
		require.NoError(t, err)
		require.False(t, rec.IsValid)

		_, err = GetContactHandles(db, b.addr, a.addr)
		require.ErrorIs(t, err, ErrPermissionDenied)
	})
	_, err = h.decrypt(b, aContact...)
	require.ErrorIs(t, err, ErrPermissionDenied)
	_, err = h.decrypt(a, bContact...)
	require.ErrorIs(t, err, ErrPermissionDenied)
}
