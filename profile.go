// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

package ovpnas

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// Profile type property values. The server derives the effective type from
// the properties set on the record; it cannot be changed directly.
const (
	ProfileTypeUserConnect       = "user_connect"
	ProfileTypeUserConnectHidden = "user_connect_hidden"
	ProfileTypeUserCompile       = "user_compile"
	ProfileTypeUserDefault       = "user_default"
	ProfileTypeGroup             = "group"
)

// Well-known profile property names. Optional profile attributes carry the
// "prop_" prefix; pvt_ properties are managed by the server.
const (
	PropType        = "type"
	PropGroupName   = "conn_group"
	PropSuperuser   = "prop_superuser"
	PropDeny        = "prop_deny"
	PropAutologin   = "prop_autologin"
	PropPwdChange   = "prop_pwd_change"
	PropPwdStrength = "prop_pwd_strength"
	PropAutoGen     = "prop_autogenerate"
	propGroupFlag   = "group_declare"
)

// userTypes are the type values a user profile may carry.
var userTypes = []string{
	ProfileTypeUserConnect,
	ProfileTypeUserConnectHidden,
	ProfileTypeUserCompile,
}

// Profile is a semi-structured user or group record keyed by name. The raw
// property mapping is the single source of truth; the typed accessors are
// derived views recomputed on every call, so they always reflect the
// mapping's current contents. Values are scalars or lists of scalars as
// decoded from the wire.
type Profile struct {
	// Name is the username or group name identifying the record.
	Name string

	props map[string]any
}

// NewProfile builds a Profile over the given raw property mapping. A nil
// mapping is treated as empty.
func NewProfile(name string, props map[string]any) *Profile {
	if props == nil {
		props = map[string]any{}
	}
	return &Profile{Name: name, props: props}
}

// Prop returns the raw value of a property, or ErrPropertyNotSet when the
// property is absent.
func (p *Profile) Prop(key string) (any, error) {
	v, ok := p.props[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPropertyNotSet, key)
	}
	return v, nil
}

// PropDefault returns the raw value of a property, or def when absent.
func (p *Profile) PropDefault(key string, def any) any {
	if v, ok := p.props[key]; ok {
		return v
	}
	return def
}

// Props returns the raw property mapping. The map is live: mutating it
// mutates the Profile, and the derived accessors follow.
func (p *Profile) Props() map[string]any {
	return p.props
}

// PropNames returns the property names in sorted order.
func (p *Profile) PropNames() []string {
	names := make([]string, 0, len(p.props))
	for k := range p.props {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Type returns the profile type property. Records without an explicit type
// behave as user_connect on the server.
func (p *Profile) Type() string {
	if v, ok := p.props[PropType].(string); ok && v != "" {
		return v
	}
	return ProfileTypeUserConnect
}

// IsGroup reports whether the record declares itself a group.
func (p *Profile) IsGroup() bool {
	return p.boolProp(propGroupFlag, false)
}

// IsAdmin reports whether the profile has superuser rights.
func (p *Profile) IsAdmin() bool {
	return p.boolProp(PropSuperuser, false)
}

// IsBanned reports whether the profile is denied access.
func (p *Profile) IsBanned() bool {
	return p.boolProp(PropDeny, false)
}

// IsHidden reports whether the profile is hidden from the admin web UI.
func (p *Profile) IsHidden() bool {
	return p.Type() == ProfileTypeUserConnectHidden
}

// CanChangePassword reports whether users derived from this profile may
// change their password through the web interface.
func (p *Profile) CanChangePassword() bool {
	return p.boolProp(PropPwdChange, false)
}

// CanAutologin reports whether the profile may download a connection
// profile that connects without a password.
func (p *Profile) CanAutologin() bool {
	return p.boolProp(PropAutologin, false)
}

// ChecksPasswordStrength reports whether the server enforces complexity
// when this profile changes its password. Server default is true.
func (p *Profile) ChecksPasswordStrength() bool {
	return p.boolProp(PropPwdStrength, true)
}

// AutoGeneratesClient reports whether the server regenerates missing client
// records for this profile on demand. Server default is true.
func (p *Profile) AutoGeneratesClient() bool {
	return p.boolProp(PropAutoGen, true)
}

// Group returns the connection group the profile belongs to, or "".
func (p *Profile) Group() string {
	v, _ := p.props[PropGroupName].(string)
	return v
}

// Equal reports whether two profiles have the same name and raw mapping.
func (p *Profile) Equal(other *Profile) bool {
	if p == nil || other == nil {
		return p == other
	}
	return p.Name == other.Name && reflect.DeepEqual(p.props, other.props)
}

// boolProp interprets the server's boolean property convention: the value
// is the string "true" or "false". Native bools are tolerated for mappings
// built locally.
func (p *Profile) boolProp(key string, def bool) bool {
	v, ok := p.props[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, "true")
	case bool:
		return t
	default:
		return def
	}
}
