// internal/protocol/types.go
package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Role identifies which core a session talks to.
type Role int

const (
	Primary Role = iota
	Secondary
)

func (r Role) String() string {
	if r == Secondary {
		return "secondary"
	}
	return "primary"
}

// Roles lists every role in dispatch order.
var Roles = [...]Role{Primary, Secondary}

// Target is a role mask. The zero value means every role.
type Target uint8

const (
	TargetAll       Target = 0
	TargetPrimary   Target = 1 << Primary
	TargetSecondary Target = 1 << Secondary
)

// TargetOf returns the mask addressing exactly one role.
func TargetOf(r Role) Target { return 1 << r }

// Includes reports whether the mask addresses r.
func (t Target) Includes(r Role) bool {
	return t == TargetAll || t&TargetOf(r) != 0
}

// Kind is the request-kind tag. Its numeric value is the JSON-RPC id.
// The protocol correlates responses by this small shared id only.
type Kind int

const (
	KindGet Kind = 1
	KindSet Kind = 2
)

func (k Kind) String() string {
	if k == KindGet {
		return "get"
	}
	return "set"
}

// Version is what the engines accept in the jsonrpc field.
// Encoded as a JSON number.
const Version = 2.0

// Command is one logical outbound request.
type Command struct {
	Method string
	Params any
	Kind   Kind
	Target Target
}

// Envelope is the exact outbound wire document.
type Envelope struct {
	JSONRPC float64 `json:"jsonrpc"`
	Method  string  `json:"method"`
	Params  any     `json:"params"`
	ID      Kind    `json:"id"`
}

// Envelope stamps protocol fields onto the command.
// A zero Kind is treated as a set.
func (c Command) Envelope() Envelope {
	k := c.Kind
	if k != KindGet {
		k = KindSet
	}
	params := c.Params
	if params == nil {
		params = struct{}{}
	}
	return Envelope{JSONRPC: Version, Method: c.Method, Params: params, ID: k}
}

// ---- INBOUND ----

// Inbound is any document received from an engine: a response
// (ID set, Result or Error) or an unsolicited notification (Method set).
type Inbound struct {
	ID     ResponseID      `json:"id"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// ResponseID is the id echoed back by a core. Numbers and numeric
// strings ("1", 1.0) compare by value; any other shape decodes without
// error and never matches a Kind.
type ResponseID struct {
	n     float64
	valid bool
}

func (id *ResponseID) UnmarshalJSON(b []byte) error {
	*id = ResponseID{}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case float64:
		id.n, id.valid = x, true
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			id.n, id.valid = f, true
		}
	}
	return nil
}

// Is reports whether the id equals k.
func (id ResponseID) Is(k Kind) bool {
	return id.valid && id.n == float64(k)
}

// Present reports whether a usable id was decoded.
func (id ResponseID) Present() bool { return id.valid }

// RPCError is the error member of a response.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ControlUpdate is one entry of a Control.Get result.
// Pointers distinguish absent members from zero values.
type ControlUpdate struct {
	Name     *string  `json:"Name"`
	Value    *any     `json:"Value,omitempty"`
	String   *string  `json:"String,omitempty"`
	Position *float64 `json:"Position,omitempty"`
}

// EngineStatus is carried by EngineStatus notifications and StatusGet replies.
type EngineStatus struct {
	Platform    string     `json:"Platform,omitempty"`
	State       string     `json:"State"`
	DesignName  string     `json:"DesignName"`
	DesignCode  string     `json:"DesignCode"`
	IsRedundant bool       `json:"IsRedundant"`
	IsEmulator  bool       `json:"IsEmulator"`
	Status      *CoreState `json:"Status,omitempty"`
}

// CoreState is the optional nested status block of a StatusGet reply.
type CoreState struct {
	Code   int    `json:"Code"`
	String string `json:"String"`
}

// HasID reports whether the document is a response with the given kind id.
func (m *Inbound) HasID(k Kind) bool {
	return m.ID.Is(k)
}

// ResultIsArray reports whether the result member is a JSON array.
func (m *Inbound) ResultIsArray() bool {
	return firstByte(m.Result) == '['
}

// ResultIsObject reports whether the result member is a JSON object.
func (m *Inbound) ResultIsObject() bool {
	return firstByte(m.Result) == '{'
}

// IsStatusResult reports an object result carrying a Platform key:
// that shape only ever answers StatusGet.
func (m *Inbound) IsStatusResult() bool {
	if !m.ResultIsObject() {
		return false
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(m.Result, &keys); err != nil {
		return false
	}
	_, ok := keys["Platform"]
	return ok
}

// HasError reports a non-null error member.
func (m *Inbound) HasError() bool {
	e := bytes.TrimSpace(m.Error)
	return len(e) > 0 && !bytes.Equal(e, []byte("null"))
}

// RPCError decodes the error member. A core may send a bare string or
// a {code, message} object; both come back as an RPCError.
func (m *Inbound) RPCError() (RPCError, bool) {
	if !m.HasError() {
		return RPCError{}, false
	}
	var e RPCError
	if err := json.Unmarshal(m.Error, &e); err == nil {
		return e, true
	}
	var msg string
	if err := json.Unmarshal(m.Error, &msg); err == nil {
		return RPCError{Message: msg}, true
	}
	return RPCError{Message: string(bytes.TrimSpace(m.Error))}, true
}

func firstByte(raw json.RawMessage) byte {
	b := bytes.TrimSpace(raw)
	if len(b) == 0 {
		return 0
	}
	return b[0]
}
