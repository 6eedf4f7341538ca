package domain

import (
	"testing"
)

func pendingOffer() TradeOffer {
	return TradeOffer{
		ID:       "off-1",
		BuyerID:  "user-buyer",
		SellerID: "user-seller",
		Status:   OfferStatusPending,
	}
}

func TestResolveRole(t *testing.T) {
	t.Parallel()

	offer := pendingOffer()

	tests := []struct {
		name     string
		viewerID string
		want     Role
	}{
		{"buyer", "user-buyer", RoleBuyer},
		{"seller", "user-seller", RoleSeller},
		{"stranger", "user-other", RoleNone},
		{"unauthenticated", "", RoleNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveRole(tt.viewerID, offer); got != tt.want {
				t.Errorf("ResolveRole(%q) = %v, want %v", tt.viewerID, got, tt.want)
			}
		})
	}
}

func TestAllowedActions_pending(t *testing.T) {
	t.Parallel()

	offer := pendingOffer()

	sellerActions := offer.AllowedActions(RoleSeller)
	if len(sellerActions) != 2 || sellerActions[0] != OfferActionAccept || sellerActions[1] != OfferActionDecline {
		t.Errorf("seller actions = %v, want [accept decline]", sellerActions)
	}

	buyerActions := offer.AllowedActions(RoleBuyer)
	if len(buyerActions) != 1 || buyerActions[0] != OfferActionCancel {
		t.Errorf("buyer actions = %v, want [cancel]", buyerActions)
	}

	if got := offer.AllowedActions(RoleNone); len(got) != 0 {
		t.Errorf("none actions = %v, want empty", got)
	}
}

func TestAllowedActions_terminalStatuses(t *testing.T) {
	t.Parallel()

	for _, status := range []OfferStatus{OfferStatusAccepted, OfferStatusDeclined, OfferStatusCancelled} {
		offer := pendingOffer()
		offer.Status = status

		if !status.Terminal() {
			t.Errorf("status %q should be terminal", status)
		}
		for _, role := range []Role{RoleBuyer, RoleSeller, RoleNone} {
			if got := offer.AllowedActions(role); len(got) != 0 {
				t.Errorf("status %q role %v: actions = %v, want empty", status, role, got)
			}
		}
	}
}

func TestAllows_crossRole(t *testing.T) {
	t.Parallel()

	offer := pendingOffer()

	if offer.Allows(RoleBuyer, OfferActionAccept) {
		t.Error("buyer must not be allowed to accept")
	}
	if offer.Allows(RoleSeller, OfferActionCancel) {
		t.Error("seller must not be allowed to cancel")
	}
	if !offer.Allows(RoleSeller, OfferActionDecline) {
		t.Error("seller must be allowed to decline a pending offer")
	}
}

func TestUserPatch_Apply(t *testing.T) {
	t.Parallel()

	u := UserSummary{Username: "alice", Email: "alice@example.com", Bio: "collector"}

	newBio := "trader"
	games := []string{"mtg", "pokemon"}
	UserPatch{Bio: &newBio, FavoriteGames: &games}.Apply(&u)

	if u.Bio != "trader" {
		t.Errorf("bio = %q, want %q", u.Bio, "trader")
	}
	if u.Username != "alice" || u.Email != "alice@example.com" {
		t.Errorf("untouched fields changed: %+v", u)
	}
	if len(u.FavoriteGames) != 2 {
		t.Errorf("favorite games = %v", u.FavoriteGames)
	}
}
