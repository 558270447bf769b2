// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-ovpnas.
//
// go-ovpnas is dual-licensed under AGPL-3.0 and a Commercial License.

package ovpnas

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
)

// fakeAccessServer is an in-memory Access Server XML-RPC endpoint. It
// implements just enough of the userprop surface for the namespace tests
// and can be primed to answer any method with a fault.
type fakeAccessServer struct {
	t *testing.T

	profiles  map[string]map[string]any
	clients   []string
	localAuth bool

	// faults forces the named methods to answer with a fault.
	faults map[string]fakeFault

	// passwordReasons queues failure reasons for SetLocalPassword.
	passwordReasons []string

	// calls records every method invoked, in order.
	calls []string

	server *httptest.Server
}

type fakeFault struct {
	code    int
	message string
}

func newFakeAccessServer(t *testing.T) *fakeAccessServer {
	f := &fakeAccessServer{
		t:         t,
		profiles:  map[string]map[string]any{},
		localAuth: true,
		faults:    map[string]fakeFault{},
	}
	f.server = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.server.Close)
	return f
}

// client returns a Client wired to the fake server. The fake listens on
// plain http, which the SDK permits only with AllowUntrusted.
func (f *fakeAccessServer) client(t *testing.T) *Client {
	c, err := NewClient(&ClientConfig{
		EndpointURL:    f.server.URL,
		Username:       "admin",
		Password:       "p4ssw0rd",
		AllowUntrusted: true,
	})
	if err != nil {
		t.Fatalf("client against fake server: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func (f *fakeAccessServer) addProfile(name string, props map[string]any) {
	f.profiles[name] = props
}

func (f *fakeAccessServer) failWith(method string, code int, message string) {
	f.faults[method] = fakeFault{code: code, message: message}
}

func (f *fakeAccessServer) handle(w http.ResponseWriter, r *http.Request) {
	method, params, err := parseMethodCall(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.calls = append(f.calls, method)

	if fault, ok := f.faults[method]; ok {
		writeFault(w, fault.code, fault.message)
		return
	}

	result, fault := f.dispatch(method, params)
	if fault != nil {
		writeFault(w, fault.code, fault.message)
		return
	}
	writeResult(w, result)
}

func (f *fakeAccessServer) dispatch(method string, params []any) (any, *fakeFault) {
	switch method {
	case methodUserPropGet:
		pfilt := stringSlice(param(params, 0))
		tfilt := stringSlice(param(params, 1))
		return f.multiGet(pfilt, tfilt), nil

	case methodUserPropPut:
		name, _ := param(params, 0).(string)
		props, _ := param(params, 1).(map[string]any)
		existing, ok := f.profiles[name]
		if !ok {
			existing = map[string]any{}
			f.profiles[name] = existing
		}
		for k, v := range props {
			existing[k] = v
		}
		return true, nil

	case methodUserPropDel:
		name, _ := param(params, 0).(string)
		keys := stringSlice(param(params, 1))
		if props, ok := f.profiles[name]; ok {
			for _, k := range keys {
				delete(props, k)
			}
		}
		return true, nil

	case methodUserPropDelete:
		name, _ := param(params, 0).(string)
		delete(f.profiles, name)
		return true, nil

	case methodUserPropCount:
		tfilt := stringSlice(param(params, 0))
		return len(f.multiGet(nil, tfilt)), nil

	case methodLocalAuthEnabled:
		return f.localAuth, nil

	case methodSetLocalPassword:
		if len(f.passwordReasons) > 0 {
			reason := f.passwordReasons[0]
			f.passwordReasons = f.passwordReasons[1:]
			return map[string]any{"status": false, "reason": reason}, nil
		}
		return map[string]any{"status": true, "reason": ""}, nil

	case methodRemoveLocalPass, methodRevokeUser, methodRevokeCert:
		return true, nil

	case methodEnumClients:
		return f.clients, nil

	case methodAutoGenerateOBO:
		name, _ := param(params, 0).(string)
		f.clients = append(f.clients, name)
		return true, nil

	case methodGet1:
		name, _ := param(params, 0).(string)
		if !containsString(f.clients, name) {
			return "", nil
		}
		return []any{name + ".ovpn", "client\ndev tun\nremote vpn.example.com\n"}, nil

	case methodGetUserlogin:
		name, _ := param(params, 0).(string)
		if !containsString(f.clients, name) {
			return "", nil
		}
		return []any{name + ".ovpn", "client\nauth-user-pass\nremote vpn.example.com\n"}, nil

	case methodDisconnectUsers:
		return 1, nil

	case methodGetASLongVersion:
		return "OpenVPN Access Server 2.11.3 (build 1234)", nil

	case methodRunStatus:
		return map[string]any{
			"last_restarted": "Mon Jan 02 15:04:05 2023",
			"service_status": map[string]any{"api": "on", "web": "on", "auth": "off"},
			"errors":         map[string]any{},
		}, nil

	case methodGetVPNSummary:
		return map[string]any{"n_clients": 3}, nil

	case methodGetVPNStatus:
		return map[string]any{
			"openvpn_0": map[string]any{"client_list": []any{}, "routing_table": []any{}},
		}, nil

	case methodConfigQuery:
		return map[string]any{"vpn.server.port": "1194"}, nil

	default:
		return nil, &fakeFault{code: 9000, message: "XMLRPCRelay: XMLRPC: function not found"}
	}
}

func (f *fakeAccessServer) multiGet(pfilt, tfilt []string) map[string]any {
	out := map[string]any{}
	for name, props := range f.profiles {
		if len(pfilt) > 0 && !containsString(pfilt, name) {
			continue
		}
		if len(tfilt) > 0 {
			recordType, _ := props[PropType].(string)
			if recordType == "" {
				recordType = ProfileTypeUserConnect
			}
			if !containsString(tfilt, recordType) {
				continue
			}
		}
		copied := map[string]any{}
		for k, v := range props {
			copied[k] = v
		}
		out[name] = copied
	}
	return out
}

func param(params []any, i int) any {
	if i >= len(params) {
		return nil
	}
	return params[i]
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// --- wire parsing and marshalling ---

type xmlCall struct {
	XMLName    xml.Name   `xml:"methodCall"`
	MethodName string     `xml:"methodName"`
	Params     []xmlValue `xml:"params>param>value"`
}

type xmlValue struct {
	String  *string    `xml:"string"`
	Int     *int       `xml:"int"`
	I4      *int       `xml:"i4"`
	Double  *float64   `xml:"double"`
	Boolean *string    `xml:"boolean"`
	Array   *xmlArray  `xml:"array"`
	Struct  *xmlStruct `xml:"struct"`
	Text    string     `xml:",chardata"`
}

type xmlArray struct {
	Values []xmlValue `xml:"data>value"`
}

type xmlStruct struct {
	Members []xmlMember `xml:"member"`
}

type xmlMember struct {
	Name  string   `xml:"name"`
	Value xmlValue `xml:"value"`
}

func parseMethodCall(r *http.Request) (string, []any, error) {
	var call xmlCall
	if err := xml.NewDecoder(r.Body).Decode(&call); err != nil {
		return "", nil, err
	}
	params := make([]any, len(call.Params))
	for i, v := range call.Params {
		params[i] = decodeXMLValue(v)
	}
	return call.MethodName, params, nil
}

func decodeXMLValue(v xmlValue) any {
	switch {
	case v.String != nil:
		return *v.String
	case v.Int != nil:
		return *v.Int
	case v.I4 != nil:
		return *v.I4
	case v.Double != nil:
		return *v.Double
	case v.Boolean != nil:
		return *v.Boolean == "1" || strings.EqualFold(*v.Boolean, "true")
	case v.Array != nil:
		out := make([]any, len(v.Array.Values))
		for i, item := range v.Array.Values {
			out[i] = decodeXMLValue(item)
		}
		return out
	case v.Struct != nil:
		out := map[string]any{}
		for _, m := range v.Struct.Members {
			out[m.Name] = decodeXMLValue(m.Value)
		}
		return out
	default:
		return strings.TrimSpace(v.Text)
	}
}

func writeResult(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprintf(w,
		`<?xml version="1.0"?><methodResponse><params><param>%s</param></params></methodResponse>`,
		marshalXMLValue(result),
	)
}

func writeFault(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprintf(w,
		`<?xml version="1.0"?><methodResponse><fault><value><struct>`+
			`<member><name>faultCode</name><value><int>%d</int></value></member>`+
			`<member><name>faultString</name><value><string>%s</string></value></member>`+
			`</struct></value></fault></methodResponse>`,
		code, xmlEscape(message),
	)
}

func marshalXMLValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "<value><string></string></value>"
	case string:
		return "<value><string>" + xmlEscape(t) + "</string></value>"
	case bool:
		if t {
			return "<value><boolean>1</boolean></value>"
		}
		return "<value><boolean>0</boolean></value>"
	case int:
		return fmt.Sprintf("<value><int>%d</int></value>", t)
	case float64:
		return fmt.Sprintf("<value><double>%g</double></value>", t)
	case []string:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = marshalXMLValue(item)
		}
		return "<value><array><data>" + strings.Join(parts, "") + "</data></array></value>"
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = marshalXMLValue(item)
		}
		return "<value><array><data>" + strings.Join(parts, "") + "</data></array></value>"
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var b strings.Builder
		b.WriteString("<value><struct>")
		for _, k := range keys {
			b.WriteString("<member><name>" + xmlEscape(k) + "</name>" + marshalXMLValue(t[k]) + "</member>")
		}
		b.WriteString("</struct></value>")
		return b.String()
	default:
		return "<value><string>" + xmlEscape(fmt.Sprintf("%v", t)) + "</string></value>"
	}
}

func xmlEscape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
