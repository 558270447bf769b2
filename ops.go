// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

package ovpnas

import (
	"fmt"
	"sort"
)

// Raw RPC method names exposed by the Access Server XML-RPC relay. These
// are a fixed, versioned contract the client targets; a server-side
// signature change is an external compatibility break.
const (
	methodUserPropPut       = "UserPropPut"
	methodUserPropDel       = "UserPropDel"
	methodUserPropGet       = "UserPropProfileMultiGet"
	methodUserPropDelete    = "UserPropProfileDelete"
	methodUserPropCount     = "UserPropProfileCount"
	methodSetLocalPassword  = "SetLocalPassword"
	methodRemoveLocalPass   = "RemoveLocalPassword"
	methodLocalAuthEnabled  = "LocalAuthEnabled"
	methodAutoGenerateOBO   = "AutoGenerateOnBehalfOf"
	methodEnumClients       = "EnumClients"
	methodRevokeUser        = "RevokeUser"
	methodRevokeCert        = "RevokeCert"
	methodGet1              = "Get1"
	methodGetUserlogin      = "GetUserlogin"
	methodDisconnectUsers   = "DisconnectUsers"
	methodGetASLongVersion  = "GetASLongVersion"
	methodRunStatus         = "RunStatus"
	methodGetVPNStatus      = "GetVPNStatus"
	methodGetVPNSummary     = "GetVPNSummary"
	methodConfigQuery       = "ConfigQuery"
)

// profileOps holds the raw profile-record calls shared by the Users and
// Groups namespaces. All calls funnel through one RPCClient; the opt-in
// retry policy is applied by the namespaces around reads only.
type profileOps struct {
	rpc    *RPCClient
	retry  *RetryConfig
	logger Logger
}

// fetchProfile retrieves one userprop record by name. Returns
// ErrProfileNotFound (with the name in the message) when absent.
func (o *profileOps) fetchProfile(name string) (*Profile, error) {
	raw, err := o.rpc.Invoke(methodUserPropGet, []string{name}, []string{})
	if err != nil {
		return nil, err
	}
	records, ok := asMap(raw)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodUserPropGet)
	}
	props, ok := asMap(records[name])
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	return NewProfile(name, props), nil
}

// fetchProfiles retrieves all records matching the given type filter,
// sorted by name. The wire format hands records back as an unordered
// struct, so name order is the only stable order available.
func (o *profileOps) fetchProfiles(typeFilter []string) ([]*Profile, error) {
	raw, err := o.rpc.Invoke(methodUserPropGet, []string{}, typeFilter)
	if err != nil {
		return nil, err
	}
	records, ok := asMap(raw)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodUserPropGet)
	}

	profiles := make([]*Profile, 0, len(records))
	for name, value := range records {
		props, ok := asMap(value)
		if !ok {
			continue
		}
		profiles = append(profiles, NewProfile(name, props))
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Name < profiles[j].Name })
	return profiles, nil
}

// putProps writes properties onto a record, creating the record when it
// does not exist. hidden controls visibility in the admin web UI.
func (o *profileOps) putProps(name string, props map[string]any, hidden bool) error {
	_, err := o.rpc.Invoke(methodUserPropPut, name, props, hidden)
	return err
}

// delProps removes the named properties from a record.
func (o *profileOps) delProps(name string, keys []string) error {
	_, err := o.rpc.Invoke(methodUserPropDel, name, keys)
	return err
}

// deleteProfile removes a record entirely.
func (o *profileOps) deleteProfile(name string) error {
	_, err := o.rpc.Invoke(methodUserPropDelete, name)
	return err
}

// countProfiles counts records matching the type filter.
func (o *profileOps) countProfiles(typeFilter []string) (int, error) {
	raw, err := o.rpc.Invoke(methodUserPropCount, typeFilter)
	if err != nil {
		return 0, err
	}
	n, ok := asInt(raw)
	if !ok {
		return 0, fmt.Errorf("%w: unexpected result shape for %s", ErrUnknownFault, methodUserPropCount)
	}
	return n, nil
}

// normalizeProps converts native bool property values into the server's
// "true"/"false" string convention and leaves everything else untouched.
func normalizeProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if b, isBool := v.(bool); isBool {
			if b {
				out[k] = "true"
			} else {
				out[k] = "false"
			}
			continue
		}
		out[k] = v
	}
	return out
}

// asMap coerces a raw decoded RPC value into a property mapping.
func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// asInt coerces the integer shapes the codec can produce.
func asInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	default:
		return 0, false
	}
}

// asBool coerces a raw decoded RPC boolean.
func asBool(v any) (bool, bool) {
	b, ok := v.(bool)
	return b, ok
}

// asString coerces a raw decoded RPC string.
func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}
