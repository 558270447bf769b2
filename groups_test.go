// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

package ovpnas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupsCreateAndGet(t *testing.T) {
	fake := newFakeAccessServer(t)
	client := fake.client(t)

	created, err := client.Groups.Create("engineering", map[string]any{
		PropAutologin: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "engineering", created.Name)
	assert.True(t, created.IsGroup())
	assert.Equal(t, ProfileTypeGroup, created.Type())
	assert.True(t, created.CanAutologin())

	fetched, err := client.Groups.Get("engineering")
	require.NoError(t, err)
	assert.True(t, created.Equal(fetched))
}

func TestGroupsCreateForcesGroupMarkers(t *testing.T) {
	fake := newFakeAccessServer(t)
	client := fake.client(t)

	// Caller-supplied type and flag are overridden, not trusted.
	created, err := client.Groups.Create("ops", map[string]any{
		PropType:      ProfileTypeUserConnect,
		propGroupFlag: "false",
	})
	require.NoError(t, err)
	assert.True(t, created.IsGroup())
	assert.Equal(t, ProfileTypeGroup, created.Type())
}

func TestGroupsGetNotFound(t *testing.T) {
	fake := newFakeAccessServer(t)
	client := fake.client(t)

	_, err := client.Groups.Get("ghost")
	require.ErrorIs(t, err, ErrProfileNotFound)
	assert.Contains(t, err.Error(), "ghost")
}

func TestGroupsGetRejectsUserName(t *testing.T) {
	fake := newFakeAccessServer(t)
	fake.addProfile("alice", map[string]any{PropType: ProfileTypeUserConnect})
	client := fake.client(t)

	_, err := client.Groups.Get("alice")
	assert.ErrorIs(t, err, ErrProfileExists)
}

func TestGroupsList(t *testing.T) {
	fake := newFakeAccessServer(t)
	fake.addProfile("ops", map[string]any{
		PropType:      ProfileTypeGroup,
		propGroupFlag: "true",
	})
	fake.addProfile("engineering", map[string]any{
		PropType:      ProfileTypeGroup,
		propGroupFlag: "true",
	})
	fake.addProfile("alice", map[string]any{PropType: ProfileTypeUserConnect})
	client := fake.client(t)

	groups, err := client.Groups.List()
	require.NoError(t, err)

	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	assert.Equal(t, []string{"engineering", "ops"}, names)
}

func TestGroupsListEmpty(t *testing.T) {
	fake := newFakeAccessServer(t)
	client := fake.client(t)

	groups, err := client.Groups.List()
	require.NoError(t, err)
	assert.NotNil(t, groups)
	assert.Empty(t, groups)
}

func TestGroupsModify(t *testing.T) {
	fake := newFakeAccessServer(t)
	fake.addProfile("engineering", map[string]any{
		PropType:      ProfileTypeGroup,
		propGroupFlag: "true",
		"prop_custom": "keep-me",
	})
	client := fake.client(t)

	updated, err := client.Groups.Modify("engineering", map[string]any{
		PropPwdChange: true,
	})
	require.NoError(t, err)
	assert.True(t, updated.CanChangePassword())
	assert.Equal(t, "keep-me", updated.PropDefault("prop_custom", ""))
}

func TestGroupsDeleteTwiceIsAnError(t *testing.T) {
	fake := newFakeAccessServer(t)
	fake.addProfile("engineering", map[string]any{
		PropType:      ProfileTypeGroup,
		propGroupFlag: "true",
	})
	client := fake.client(t)

	require.NoError(t, client.Groups.Delete("engineering"))

	err := client.Groups.Delete("engineering")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestGroupsBan(t *testing.T) {
	fake := newFakeAccessServer(t)
	fake.addProfile("engineering", map[string]any{
		PropType:      ProfileTypeGroup,
		propGroupFlag: "true",
	})
	client := fake.client(t)

	require.NoError(t, client.Groups.Ban("engineering"))

	group, err := client.Groups.Get("engineering")
	require.NoError(t, err)
	assert.True(t, group.IsBanned())
}
