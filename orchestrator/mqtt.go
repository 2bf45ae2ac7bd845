package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	pkgerrors "github.com/absmach/baseliner/pkg/errors"
	"github.com/absmach/baseliner/trainer"
)

const aliveHistoryLimit = 10

// Subscribe attaches the orchestrator to its channel: training results flow
// to the dispatcher, discovery and liveliness announcements keep the trainer
// registry current.
func (svc *service) Subscribe(ctx context.Context) error {
	baseTopic := "channels/" + svc.channelID + "/messages"
	topic := baseTopic + "/#"

	if err := svc.pubsub.Subscribe(ctx, topic, svc.handle(ctx, baseTopic)); err != nil {
		return err
	}

	return nil
}

func (svc *service) handle(ctx context.Context, baseTopic string) func(topic string, msg map[string]any) error {
	return func(topic string, msg map[string]any) error {
		switch topic {
		case baseTopic + "/control/trainer/results":
			return svc.handleResult(ctx, msg)
		case baseTopic + "/control/trainer/create":
			if err := svc.registerTrainer(ctx, msg); err != nil {
				return err
			}

			svc.logger.InfoContext(ctx, "successfully registered trainer")
		case baseTopic + "/control/trainer/alive":
			return svc.updateLiveness(ctx, msg)
		}

		return nil
	}
}

func (svc *service) handleResult(ctx context.Context, msg map[string]any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	var res trainer.TrainResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return err
	}
	if res.ExperimentID == "" || res.Model == "" {
		return errors.New("training result missing experiment or model")
	}

	if !svc.dispatcher.deliver(res) {
		svc.logger.DebugContext(ctx, "discarding unmatched training result",
			slog.String("experiment_id", res.ExperimentID),
			slog.String("model", res.Model))
	}

	return nil
}

func (svc *service) registerTrainer(ctx context.Context, msg map[string]any) error {
	trainerID, ok := msg["trainer_id"].(string)
	if !ok {
		return errors.New("invalid trainer_id")
	}
	if trainerID == "" {
		return errors.New("trainer id is empty")
	}

	t := trainer.Trainer{
		ID:           trainerID,
		Name:         svc.namegen.Generate(),
		Alive:        true,
		AliveHistory: []time.Time{time.Now()},
	}
	if err := svc.trainersDB.Create(ctx, t.ID, t); err != nil {
		// Trainers re-announce after reconnecting.
		if errors.Is(err, pkgerrors.ErrEntityExists) {
			return svc.trainersDB.Update(ctx, t.ID, t)
		}

		return err
	}

	return nil
}

func (svc *service) updateLiveness(ctx context.Context, msg map[string]any) error {
	trainerID, ok := msg["trainer_id"].(string)
	if !ok {
		return errors.New("invalid trainer_id")
	}
	if trainerID == "" {
		return errors.New("trainer id is empty")
	}

	data, err := svc.trainersDB.Get(ctx, trainerID)
	if err != nil {
		return err
	}
	t, ok := data.(trainer.Trainer)
	if !ok {
		return errors.New("invalid trainer data")
	}

	// The broker publishes the last-will payload here when a trainer drops.
	if status, ok := msg["status"].(string); ok && status == "offline" {
		t.Alive = false

		return svc.trainersDB.Update(ctx, trainerID, t)
	}

	t.Alive = true
	t.AliveHistory = append(t.AliveHistory, time.Now())
	if len(t.AliveHistory) > aliveHistoryLimit {
		t.AliveHistory = t.AliveHistory[1:]
	}

	return svc.trainersDB.Update(ctx, trainerID, t)
}
