// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

package ovpnas

import (
	"context"
	"fmt"
)

// Groups groups the group-profile operations exposed on a Client. Do not
// construct it directly; use Client.Groups.
//
// A group is just a userprop record with group_declare set; declaring the
// type alone is not enough for the server to treat it as one.
type Groups struct {
	profileOps
}

// Create creates a group profile. group_declare and the group type are
// forced onto the supplied properties. Like Users.Create, the create is
// not transactional and collisions surface as the server's fault.
func (g *Groups) Create(name string, props map[string]any) (*Profile, error) {
	if err := validateProfileName(name); err != nil {
		return nil, err
	}

	merged := normalizeProps(props)
	merged[PropType] = ProfileTypeGroup
	merged[propGroupFlag] = "true"

	g.logger.Info("creating group", Field{Key: "group", Value: name})
	if err := g.putProps(name, merged, false); err != nil {
		return nil, err
	}
	return g.Get(name)
}

// Get retrieves a group profile. Returns ErrProfileNotFound when absent
// and ErrProfileExists when the name belongs to a user.
func (g *Groups) Get(name string) (*Profile, error) {
	if err := validateProfileName(name); err != nil {
		return nil, err
	}
	return retryWrapper(context.Background(), g.retry, func() (*Profile, error) {
		profile, err := g.fetchProfile(name)
		if err != nil {
			return nil, err
		}
		if !profile.IsGroup() {
			return nil, fmt.Errorf(
				"%w: %q is the name of a user, not a group", ErrProfileExists, name,
			)
		}
		return profile, nil
	})
}

// List returns all group profiles in name order; an empty slice when the
// server has none.
func (g *Groups) List() ([]*Profile, error) {
	return retryWrapper(context.Background(), g.retry, func() ([]*Profile, error) {
		return g.fetchProfiles([]string{ProfileTypeGroup})
	})
}

// Modify applies a partial property update to an existing group and
// returns the re-fetched profile.
func (g *Groups) Modify(name string, props map[string]any) (*Profile, error) {
	profile, err := g.Get(name)
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return profile, nil
	}
	if err := g.putProps(name, normalizeProps(props), false); err != nil {
		return nil, err
	}
	return g.Get(name)
}

// Delete removes a group profile. Members keep their conn_group property;
// reconciling those references is up to the caller. A second delete of
// the same group returns ErrProfileNotFound.
func (g *Groups) Delete(name string) error {
	if _, err := g.Get(name); err != nil {
		return err
	}
	g.logger.Info("deleting group", Field{Key: "group", Value: name})
	return g.deleteProfile(name)
}

// Ban denies VPN access to every user deriving from this group.
func (g *Groups) Ban(name string) error {
	_, err := g.Modify(name, map[string]any{PropDeny: "true"})
	return err
}
