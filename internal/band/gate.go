package band

import (
	"context"
	"errors"
	"fmt"
)

// Authorization errors. ErrNotFound and ErrNotMember stay distinct so
// callers cannot probe band existence through a uniform error.
var (
	ErrNotMember = errors.New("you are not a member of this band")
	ErrNotAdmin  = errors.New("only admins can perform this action")
)

// MembershipChecker answers membership questions for a (band, user) pair.
type MembershipChecker interface {
	Membership(ctx context.Context, bandID, userID string) (isMember, isAdmin bool, err error)
}

// BandLookup verifies that a band exists.
type BandLookup interface {
	Exists(ctx context.Context, bandID string) (bool, error)
}

// Gate decides, per (band, user) pair, whether the user may read or manage
// band-scoped resources. Every band-scoped operation passes through it.
type Gate struct {
	bands   BandLookup
	members MembershipChecker
}

// NewGate creates a Gate over the given band and membership lookups.
func NewGate(bands BandLookup, members MembershipChecker) *Gate {
	return &Gate{bands: bands, members: members}
}

// RequireMember returns ErrNotFound when the band does not exist and
// ErrNotMember when the user has no active membership in it.
func (g *Gate) RequireMember(ctx context.Context, bandID, userID string) error {
	ok, err := g.bands.Exists(ctx, bandID)
	if err != nil {
		return fmt.Errorf("checking band: %w", err)
	}
	if !ok {
		return ErrNotFound
	}

	isMember, _, err := g.members.Membership(ctx, bandID, userID)
	if err != nil {
		return fmt.Errorf("checking membership: %w", err)
	}
	if !isMember {
		return ErrNotMember
	}
	return nil
}

// RequireAdmin is RequireMember plus the admin flag. A non-member gets
// ErrNotMember; an active member without admin rights gets ErrNotAdmin.
func (g *Gate) RequireAdmin(ctx context.Context, bandID, userID string) error {
	ok, err := g.bands.Exists(ctx, bandID)
	if err != nil {
		return fmt.Errorf("checking band: %w", err)
	}
	if !ok {
		return ErrNotFound
	}

	isMember, isAdmin, err := g.members.Membership(ctx, bandID, userID)
	if err != nil {
		return fmt.Errorf("checking membership: %w", err)
	}
	if !isMember {
		return ErrNotMember
	}
	if !isAdmin {
		return ErrNotAdmin
	}
	return nil
}
