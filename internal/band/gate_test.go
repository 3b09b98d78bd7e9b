package band

import (
	"context"
	"errors"
	"testing"
)

type membership struct {
	isMember bool
	isAdmin  bool
}

type mockMemberships struct {
	byKey map[string]membership
}

func (m *mockMemberships) Membership(_ context.Context, bandID, userID string) (bool, bool, error) {
	ms := m.byKey[bandID+"/"+userID]
	return ms.isMember, ms.isAdmin, nil
}

type mockBands struct {
	existing map[string]bool
}

func (m *mockBands) Exists(_ context.Context, bandID string) (bool, error) {
	return m.existing[bandID], nil
}

func newTestGate() *Gate {
	bands := &mockBands{existing: map[string]bool{"b-1": true}}
	members := &mockMemberships{byKey: map[string]membership{
		"b-1/admin":  {isMember: true, isAdmin: true},
		"b-1/player": {isMember: true, isAdmin: false},
	}}
	return NewGate(bands, members)
}

func TestRequireMember(t *testing.T) {
	gate := newTestGate()

	tests := []struct {
		name    string
		bandID  string
		userID  string
		wantErr error
	}{
		{"band missing", "b-404", "admin", ErrNotFound},
		{"outsider", "b-1", "stranger", ErrNotMember},
		{"plain member", "b-1", "player", nil},
		{"admin", "b-1", "admin", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.RequireMember(context.Background(), tt.bandID, tt.userID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	gate := newTestGate()

	tests := []struct {
		name    string
		bandID  string
		userID  string
		wantErr error
	}{
		{"band missing", "b-404", "admin", ErrNotFound},
		{"outsider", "b-1", "stranger", ErrNotMember},
		{"plain member", "b-1", "player", ErrNotAdmin},
		{"admin", "b-1", "admin", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.RequireAdmin(context.Background(), tt.bandID, tt.userID)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
