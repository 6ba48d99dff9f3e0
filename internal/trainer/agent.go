// Package trainer runs a training session against the environment and
// writes the resulting model artifact.
package trainer

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"jordanella.com/kanjuden-gym/internal/cv"
	"jordanella.com/kanjuden-gym/internal/input"
)

// Transition is one observed step
type Transition struct {
	Observation cv.Frame
	Action      input.Action
	Reward      float64
	Next        cv.Frame
	Done        bool
}

// Agent picks actions and learns from transitions
type Agent interface {
	Name() string
	Act(obs cv.Frame) input.Action
	Observe(t Transition)
	Save(path string) error
}

// RandomAgent picks uniformly over the action space. It does not learn;
// the policy lives in the external trainer.
type RandomAgent struct {
	rng         *rand.Rand
	seed        int64
	actionSpace int
	counts      []int
	steps       int
	totalReward float64
}

// NewRandomAgent creates a seeded agent over actionSpace actions
func NewRandomAgent(actionSpace int, seed int64) *RandomAgent {
	return &RandomAgent{
		rng:         rand.New(rand.NewSource(seed)),
		seed:        seed,
		actionSpace: actionSpace,
		counts:      make([]int, actionSpace),
	}
}

// Name identifies the agent in the artifact
func (a *RandomAgent) Name() string {
	return "random"
}

// Act ignores obs
func (a *RandomAgent) Act(obs cv.Frame) input.Action {
	if a.actionSpace <= 0 {
		return input.ActionFire
	}
	return input.Action(a.rng.Intn(a.actionSpace))
}

// Observe tallies the transition
func (a *RandomAgent) Observe(t Transition) {
	if int(t.Action) >= 0 && int(t.Action) < len(a.counts) {
		a.counts[t.Action]++
	}
	a.steps++
	a.totalReward += t.Reward
}

type randomModel struct {
	Agent        string  `json:"agent"`
	Seed         int64   `json:"seed"`
	ActionSpace  int     `json:"action_space"`
	Steps        int     `json:"steps"`
	TotalReward  float64 `json:"total_reward"`
	ActionCounts []int   `json:"action_counts"`
}

// Save writes the agent state as JSON
func (a *RandomAgent) Save(path string) error {
	return writeJSON(path, randomModel{
		Agent:        a.Name(),
		Seed:         a.seed,
		ActionSpace:  a.actionSpace,
		Steps:        a.steps,
		TotalReward:  a.totalReward,
		ActionCounts: a.counts,
	})
}

func writeJSON(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
