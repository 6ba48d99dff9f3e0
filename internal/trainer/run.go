package trainer

import (
	"context"
	"fmt"

	"jordanella.com/kanjuden-gym/internal/cv"
	"jordanella.com/kanjuden-gym/internal/env"
	"jordanella.com/kanjuden-gym/internal/input"
	"jordanella.com/kanjuden-gym/internal/logging"
)

// Environment is the trainer contract of env.Env
type Environment interface {
	Reset(ctx context.Context) (cv.Frame, error)
	Step(ctx context.Context, action input.Action) (env.StepResult, error)
	ActionSpace() int
	ObservationShape() []int
}

// Summary describes a finished session
type Summary struct {
	Timesteps     int
	Episodes      int
	TotalReward   float64
	BestEpisode   float64
	ModelPath     string
	Interrupted   bool
	EpisodeReward []float64
}

var logger = logging.NewLogger("Trainer")

// Run plays timesteps steps, resetting after every terminal step, then saves
// the agent to modelPath. Cancelling ctx stops early; the model is still saved.
func Run(ctx context.Context, e Environment, agent Agent, timesteps int, modelPath string) (*Summary, error) {
	summary := &Summary{ModelPath: modelPath}

	obs, err := e.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset: %w", err)
	}
	logger.InfoWithContext("Training started", map[string]interface{}{
		"agent":             agent.Name(),
		"timesteps":         timesteps,
		"observation_shape": fmt.Sprint(e.ObservationShape()),
		"actions":           e.ActionSpace(),
	})

	episodeReward := 0.0
	for summary.Timesteps < timesteps {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		action := agent.Act(obs)
		res, err := e.Step(ctx, action)
		if err != nil {
			if ctx.Err() != nil {
				summary.Interrupted = true
				break
			}
			return summary, fmt.Errorf("step %d: %w", summary.Timesteps+1, err)
		}

		agent.Observe(Transition{Observation: obs, Action: action, Reward: res.Reward, Next: res.Observation, Done: res.Done})
		summary.Timesteps++
		summary.TotalReward += res.Reward
		episodeReward += res.Reward
		obs = res.Observation

		if !res.Done {
			continue
		}
		summary.finishEpisode(episodeReward)
		logger.InfoWithContext("Episode finished", map[string]interface{}{
			"episode": summary.Episodes,
			"reward":  episodeReward,
			"step":    summary.Timesteps,
		})
		episodeReward = 0

		if summary.Timesteps < timesteps {
			if obs, err = e.Reset(ctx); err != nil {
				if ctx.Err() != nil {
					summary.Interrupted = true
					break
				}
				return summary, fmt.Errorf("reset: %w", err)
			}
		}
	}

	if err := agent.Save(modelPath); err != nil {
		return summary, fmt.Errorf("failed to save model: %w", err)
	}
	logger.InfoWithContext("Training finished", map[string]interface{}{
		"timesteps":    summary.Timesteps,
		"episodes":     summary.Episodes,
		"total_reward": summary.TotalReward,
		"model":        modelPath,
		"interrupted":  summary.Interrupted,
	})
	return summary, nil
}

func (s *Summary) finishEpisode(reward float64) {
	if s.Episodes == 0 || reward > s.BestEpisode {
		s.BestEpisode = reward
	}
	s.Episodes++
	s.EpisodeReward = append(s.EpisodeReward, reward)
}
