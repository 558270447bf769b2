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

// Users groups the user-profile operations exposed on a Client. Do not
// construct it directly; use Client.Users.
type Users struct {
	profileOps
}

// Create creates a user profile with the given properties and, when
// password is non-empty, sets its local-auth password. Native bool values
// in props are converted to the server's "true"/"false" convention.
//
// The logical create spans multiple raw calls (property put, password set).
// There is no transactional rollback: if a later call fails, the partially
// created profile is left on the server and the error is returned to the
// caller to reconcile. A name collision surfaces as the server's fault,
// classified as ErrProfileExists; no existence probe happens first, so
// there is no check-then-create race.
//
// The returned Profile is re-fetched from the server, so it reflects
// server-confirmed state including any server-assigned defaults.
func (u *Users) Create(username, password string, props map[string]any) (*Profile, error) {
	if err := validateProfileName(username); err != nil {
		return nil, err
	}

	merged := normalizeProps(props)
	if _, ok := merged[PropType]; !ok {
		merged[PropType] = ProfileTypeUserConnect
	}
	profileType, _ := merged[PropType].(string)
	if !isUserType(profileType) {
		return nil, fmt.Errorf(
			"%w: type %q is not valid for a user profile", ErrInvalidPropertyValue, profileType,
		)
	}

	if password != "" {
		if err := IsPasswordComplex(password); err != nil {
			return nil, err
		}
		enabled, err := u.localAuthEnabled()
		if err != nil {
			return nil, err
		}
		if !enabled {
			return nil, fmt.Errorf(
				"%w: creating a user with a password requires local auth on the server",
				ErrLocalAuthDisabled,
			)
		}
	}

	hidden := profileType == ProfileTypeUserConnectHidden
	u.logger.Info("creating user", Field{Key: "username", Value: username})
	if err := u.putProps(username, merged, hidden); err != nil {
		return nil, err
	}

	if password != "" {
		if err := u.setLocalPassword(username, password, "", false); err != nil {
			return nil, err
		}
	}

	return u.Get(username)
}

// Get retrieves a user profile. Returns ErrProfileNotFound when the user
// does not exist and ErrProfileExists when the name belongs to a group.
func (u *Users) Get(username string) (*Profile, error) {
	if err := validateProfileName(username); err != nil {
		return nil, err
	}
	return retryWrapper(context.Background(), u.retry, func() (*Profile, error) {
		profile, err := u.fetchProfile(username)
		if err != nil {
			return nil, err
		}
		if profile.IsGroup() || profile.Type() == ProfileTypeGroup {
			return nil, fmt.Errorf(
				"%w: %q is the name of a group, not a user", ErrProfileExists, username,
			)
		}
		return profile, nil
	})
}

// List returns all user profiles in name order. A server with no users
// yields an empty slice, not an error.
func (u *Users) List() ([]*Profile, error) {
	return retryWrapper(context.Background(), u.retry, func() ([]*Profile, error) {
		return u.fetchProfiles(userTypes)
	})
}

// Count returns the number of user profiles on the server.
func (u *Users) Count() (int, error) {
	return retryWrapper(context.Background(), u.retry, func() (int, error) {
		return u.countProfiles(userTypes)
	})
}

// Modify applies a partial update: only the supplied properties change,
// everything else on the profile is preserved. The user must exist. The
// returned Profile is re-fetched after the update.
func (u *Users) Modify(username string, props map[string]any) (*Profile, error) {
	profile, err := u.Get(username)
	if err != nil {
		return nil, err
	}
	if len(props) == 0 {
		return profile, nil
	}
	if err := u.putProps(username, normalizeProps(props), profile.IsHidden()); err != nil {
		return nil, err
	}
	return u.Get(username)
}

// Delete removes a user profile and revokes its certificates. Deleting a
// user that does not exist returns ErrProfileNotFound; a second delete of
// the same user is therefore an error, not a no-op, which surfaces caller
// bugs instead of hiding them.
func (u *Users) Delete(username string) error {
	if _, err := u.Get(username); err != nil {
		return err
	}
	u.logger.Info("deleting user", Field{Key: "username", Value: username})
	if _, err := u.rpc.Invoke(methodRevokeUser, username); err != nil {
		return err
	}
	return u.deleteProfile(username)
}

// Ban denies the user access to the VPN by setting prop_deny.
func (u *Users) Ban(username string) error {
	_, err := u.Modify(username, map[string]any{PropDeny: "true"})
	return err
}

// AddToGroup assigns the user to a connection group, inheriting the
// group's options. The group must exist and the user must not already
// belong to one; reassigning silently would mask configuration mistakes.
func (u *Users) AddToGroup(username, group string) error {
	profile, err := u.Get(username)
	if err != nil {
		return err
	}
	groupProfile, err := u.fetchProfile(group)
	if err != nil {
		return err
	}
	if !groupProfile.IsGroup() {
		return fmt.Errorf("%w: %q is not a group", ErrProfileNotFound, group)
	}
	if current := profile.Group(); current != "" {
		return fmt.Errorf(
			"%w: user %q already belongs to group %q", ErrInvalidPropertyValue, username, current,
		)
	}
	return u.putProps(username, map[string]any{PropGroupName: group}, profile.IsHidden())
}

// RemoveFromGroup clears the user's connection group assignment.
func (u *Users) RemoveFromGroup(username string) error {
	if _, err := u.Get(username); err != nil {
		return err
	}
	return u.delProps(username, []string{PropGroupName})
}

// ConnectionProfile returns the user's unified .ovpn connection profile,
// which contains every certificate and key needed to connect. Returns
// ErrProfileNotFound when no client record exists for the user; use
// CreateClientRecord first in that case.
func (u *Users) ConnectionProfile(username string) (string, error) {
	if _, err := u.Get(username); err != nil {
		return "", err
	}
	raw, err := u.rpc.Invoke(methodGet1, username)
	if err != nil {
		return "", err
	}
	// Get1 answers [filename, config body], or nothing when no client
	// record exists.
	parts, ok := raw.([]any)
	if !ok || len(parts) < 2 {
		return "", fmt.Errorf(
			"%w: no connection profile for %q", ErrProfileNotFound, username,
		)
	}
	config, ok := asString(parts[1])
	if !ok {
		return "", fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodGet1)
	}
	return config, nil
}

// LoginProfile returns the user-locked connection profile, which always
// prompts for credentials on connect, as opposed to the unified profile
// served by ConnectionProfile. Returns ErrProfileNotFound when no client
// record exists for the user.
func (u *Users) LoginProfile(username string) (string, error) {
	if _, err := u.Get(username); err != nil {
		return "", err
	}
	raw, err := u.rpc.Invoke(methodGetUserlogin, username)
	if err != nil {
		return "", err
	}
	parts, ok := raw.([]any)
	if !ok || len(parts) < 2 {
		return "", fmt.Errorf(
			"%w: no login profile for %q", ErrProfileNotFound, username,
		)
	}
	config, ok := asString(parts[1])
	if !ok {
		return "", fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodGetUserlogin)
	}
	return config, nil
}

// CreateClientRecord generates a certificate and client configuration for
// the user. Returns ErrClientExists when a record is already present.
func (u *Users) CreateClientRecord(username string) error {
	if _, err := u.Get(username); err != nil {
		return err
	}
	existing, err := u.enumClients()
	if err != nil {
		return err
	}
	if containsString(existing, username) {
		return fmt.Errorf("%w: %q", ErrClientExists, username)
	}
	if _, err := u.rpc.Invoke(methodAutoGenerateOBO, username); err != nil {
		return err
	}
	created, err := u.enumClients()
	if err != nil {
		return err
	}
	if !containsString(created, username) {
		return fmt.Errorf(
			"%w: client record for %q missing after generation", ErrUnknownFault, username,
		)
	}
	return nil
}

// RevokeCertificates revokes every certificate belonging to the user. The
// user keeps its profile; only the client records are invalidated.
func (u *Users) RevokeCertificates(username string) error {
	if _, err := u.Get(username); err != nil {
		return err
	}
	_, err := u.rpc.Invoke(methodRevokeUser, username)
	return err
}

// Disconnect kicks the user's active VPN sessions and returns the number
// of connections dropped. When restart is true the client is invited to
// reconnect instead of halting.
func (u *Users) Disconnect(username string, restart bool, reason string) (int, error) {
	if _, err := u.Get(username); err != nil {
		return 0, err
	}
	raw, err := u.rpc.Invoke(methodDisconnectUsers, []string{username}, restart, reason, "", false)
	if err != nil {
		return 0, err
	}
	n, ok := asInt(raw)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodDisconnectUsers)
	}
	return n, nil
}

// SetPassword changes a user's local-auth password. currentPassword may be
// empty for a user that has never had one. Complexity is checked locally
// before the round trip.
func (u *Users) SetPassword(username, newPassword, currentPassword string) error {
	if _, err := u.Get(username); err != nil {
		return err
	}
	if err := IsPasswordComplex(newPassword); err != nil {
		return err
	}
	return u.setLocalPassword(username, newPassword, currentPassword, false)
}

// RemovePassword removes the user's local-auth password.
func (u *Users) RemovePassword(username string) error {
	if _, err := u.Get(username); err != nil {
		return err
	}
	_, err := u.rpc.Invoke(methodRemoveLocalPass, username)
	return err
}

// setLocalPassword drives the server's SetLocalPassword call, which
// reports failure through a status/reason pair rather than a fault. A
// brand-new user has no current password; the server reports that case
// distinctly and the call is reissued with checks suppressed, matching
// sacli behavior.
func (u *Users) setLocalPassword(username, newPassword, currentPassword string, ignoreChecks bool) error {
	result, err := u.callSetPassword(username, newPassword, currentPassword, ignoreChecks)
	if err != nil {
		return err
	}
	if result.status {
		return nil
	}

	const noCurrentPassword = "error verifying current password: no current password is defined"
	const wrongCurrentPassword = "error verifying current password: failed to enter correct current password"

	if !ignoreChecks && result.reason == noCurrentPassword {
		result, err = u.callSetPassword(username, newPassword, "", true)
		if err != nil {
			return err
		}
		if result.status {
			return nil
		}
	}
	if !ignoreChecks && result.reason == wrongCurrentPassword {
		return fmt.Errorf("%w: user %q", ErrPasswordIncorrect, username)
	}
	return fmt.Errorf(
		"%w: setting password for %q failed: %s", ErrUnknownFault, username, result.reason,
	)
}

type passwordResult struct {
	status bool
	reason string
}

func (u *Users) callSetPassword(username, newPassword, currentPassword string, ignoreChecks bool) (passwordResult, error) {
	raw, err := u.rpc.Invoke(methodSetLocalPassword, username, newPassword, currentPassword, ignoreChecks)
	if err != nil {
		return passwordResult{}, err
	}
	m, ok := asMap(raw)
	if !ok {
		return passwordResult{}, fmt.Errorf(
			"%w: unexpected result shape for %s", ErrUnknownFault, methodSetLocalPassword,
		)
	}
	status, _ := asBool(m["status"])
	reason, _ := asString(m["reason"])
	return passwordResult{status: status, reason: reason}, nil
}

func (u *Users) localAuthEnabled() (bool, error) {
	raw, err := u.rpc.Invoke(methodLocalAuthEnabled)
	if err != nil {
		return false, err
	}
	enabled, ok := asBool(raw)
	if !ok {
		return false, fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodLocalAuthEnabled)
	}
	return enabled, nil
}

func (u *Users) enumClients() ([]string, error) {
	raw, err := u.rpc.Invoke(methodEnumClients)
	if err != nil {
		return nil, err
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodEnumClients)
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := asString(item); ok {
			names = append(names, s)
		}
	}
	return names, nil
}

func isUserType(t string) bool {
	return containsString(userTypes, t)
}

func containsString(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
