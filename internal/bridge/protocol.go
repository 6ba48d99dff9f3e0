package bridge

import (
	"jordanella.com/kanjuden-gym/internal/cv"
)

// Command names accepted in Request.Cmd
const (
	CmdReset  = "reset"
	CmdStep   = "step"
	CmdSpec   = "spec"
	CmdRender = "render"
)

// Request is one trainer call
type Request struct {
	Cmd    string `json:"cmd"`
	Action int    `json:"action,omitempty"`
	Mode   string `json:"mode,omitempty"`
}

// Observation carries pixels row-major, channels interleaved. Data is
// base64 in JSON.
type Observation struct {
	Shape []int  `json:"shape"`
	Data  []byte `json:"data"`
}

// Response answers a Request. Error is set instead of the payload on failure.
type Response struct {
	Cmd         string                 `json:"cmd"`
	Observation *Observation           `json:"observation,omitempty"`
	Reward      float64                `json:"reward"`
	Done        bool                   `json:"done"`
	Info        map[string]interface{} `json:"info,omitempty"`

	// spec
	ActionSpace      int   `json:"action_space,omitempty"`
	ObservationShape []int `json:"observation_shape,omitempty"`

	Error string `json:"error,omitempty"`
}

func observation(f cv.Frame) *Observation {
	return &Observation{Shape: f.Shape(), Data: f.Pix}
}
