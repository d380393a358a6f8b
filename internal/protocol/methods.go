// internal/protocol/methods.go
package protocol

import "strings"

// Method names used by the core itself.
const (
	MethodLogon           = "Logon"
	MethodNoOp            = "NoOp"
	MethodStatusGet       = "StatusGet"
	MethodEngineStatus    = "EngineStatus"
	MethodControlGet      = "Control.Get"
	MethodControlSet      = "Control.Set"
	MethodLoopPlayerError = "LoopPlayer.Error"
)

// Engine lifecycle states as reported in EngineStatus.
const (
	StateActive  = "Active"
	StateStandby = "Standby"
	StateIdle    = "Idle"
)

// standbySafe is the complete list of methods a Standby or Idle core may
// receive. Anything else is silently not sent to a non-active core.
var standbySafe = map[string]struct{}{
	MethodStatusGet: {},
	MethodNoOp:      {},
	MethodLogon:     {},
}

// StandbySafe reports whether method may be written to a non-active core.
func StandbySafe(method string) bool {
	_, ok := standbySafe[method]
	return ok
}

// ---- thin payload builders ----

// Logon builds the session logon. Credentials are included only when
// both are present.
func Logon(user, password string) Command {
	params := map[string]string{}
	if user != "" && password != "" {
		params["User"] = user
		params["Password"] = password
	}
	return Command{Method: MethodLogon, Params: params, Kind: KindSet}
}

// StatusGet asks a core for its engine status.
func StatusGet() Command {
	return Command{Method: MethodStatusGet, Params: 0, Kind: KindSet}
}

// NoOp is the keepalive.
func NoOp() Command {
	return Command{Method: MethodNoOp, Params: struct{}{}, Kind: KindSet}
}

// ControlGet reads one or more named controls.
func ControlGet(names ...string) Command {
	return Command{Method: MethodControlGet, Params: names, Kind: KindGet}
}

// ControlSetParams is the payload of Control.Set.
type ControlSetParams struct {
	Name     string   `json:"Name"`
	Value    any      `json:"Value"`
	Ramp     *float64 `json:"Ramp,omitempty"`
	Position *float64 `json:"Position,omitempty"`
}

// ControlSet writes one named control.
func ControlSet(p ControlSetParams) Command {
	return Command{Method: MethodControlSet, Params: p, Kind: KindSet}
}

// Generic builds a command for any other method: Component.Set,
// ChangeGroup.*, Snapshot.*, Mixer.*, LoopPlayer.*, PA.PageSubmit.
// Methods in the Control.Get family are tagged as gets.
func Generic(method string, params any) Command {
	k := KindSet
	if strings.EqualFold(method, MethodControlGet) {
		k = KindGet
	}
	return Command{Method: method, Params: params, Kind: k}
}
