package pins

import (
	"context"

	"bulletin-board/models"

	"emperror.dev/errors"
	"github.com/bwmarrin/lit"
)

// Plan is the outcome of one enforcement pass over a channel.
type Plan struct {
	// Repin lists locked messages in the order they are unpinned and pinned again.
	Repin []string
	// Result is the pin order expected once every Repin entry succeeded.
	Result []string
}

// PlanEnforcement decides which locked messages must be re-pinned so that they
// sit at the head of live (most recent first).
//
// The fixed point is reached when the head of live is already locked: the
// plan is then empty, which is what stops the notifications caused by our own
// unpin/pin calls from cascading.
//
// Locked messages missing from live go first, by lock time; the others follow
// from the oldest pin position to the newest, so locked messages keep their
// relative order.
func PlanEnforcement(live []string, locked []models.LockedPin) Plan {
	result := append([]string(nil), live...)
	if len(locked) == 0 || len(live) == 0 {
		return Plan{Result: result}
	}

	lockedSet := make(map[string]struct{}, len(locked))
	for _, l := range locked {
		lockedSet[l.MessageID] = struct{}{}
	}
	if _, ok := lockedSet[live[0]]; ok {
		return Plan{Result: result}
	}

	position := make(map[string]int, len(live))
	for i, id := range live {
		position[id] = i
	}

	var repin []string
	for _, l := range locked {
		if _, pinned := position[l.MessageID]; !pinned {
			repin = append(repin, l.MessageID)
		}
	}
	for i := len(live) - 1; i >= 0; i-- {
		if _, ok := lockedSet[live[i]]; ok {
			repin = append(repin, live[i])
		}
	}

	for _, id := range repin {
		result = moveToHead(result, id)
	}
	return Plan{Repin: repin, Result: result}
}

func moveToHead(list []string, id string) []string {
	out := make([]string, 0, len(list)+1)
	out = append(out, id)
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func without(list []string, id string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// LockedStore is what the enforcer needs from the configuration store.
type LockedStore interface {
	LockedPins(ctx context.Context, guildID, channelID string) ([]models.LockedPin, error)
	UnlockMessage(ctx context.Context, guildID, messageID string) error
}

// Enforcer keeps locked messages at the top of a channel's pins.
type Enforcer struct {
	Platform Platform
	Store    LockedStore
}

// Enforce runs one pass for a Grown transition and returns the pin order after
// it, plus whether any pin action was taken. Locked entries whose message can
// no longer be fetched are removed from the store.
func (e *Enforcer) Enforce(ctx context.Context, guildID, channelID string, live []string) ([]string, bool, error) {
	locked, err := e.Store.LockedPins(ctx, guildID, channelID)
	if err != nil {
		return live, false, err
	}

	plan := PlanEnforcement(live, locked)
	if len(plan.Repin) == 0 {
		return plan.Result, false, nil
	}

	pinned := make(map[string]struct{}, len(live))
	for _, id := range live {
		pinned[id] = struct{}{}
	}

	result := append([]string(nil), live...)
	acted := false
	for _, id := range plan.Repin {
		if _, err := e.Platform.ChannelMessage(ctx, channelID, id); err != nil {
			if !IsNotFound(err) {
				return result, acted, errors.WrapIfWithDetails(err, "failed to fetch locked message", "message", id)
			}
			lit.Info("Locked message %s in channel %s no longer exists, unlocking it", id, channelID)
			if err := e.Store.UnlockMessage(ctx, guildID, id); err != nil {
				return result, acted, err
			}
			selfHealedTotal.Inc()
			result = without(result, id)
			continue
		}

		if _, ok := pinned[id]; ok {
			if err := e.Platform.Unpin(ctx, channelID, id); err != nil {
				return result, acted, errors.WrapIfWithDetails(err, "failed to unpin locked message", "message", id)
			}
			acted = true
		}
		if err := e.Platform.Pin(ctx, channelID, id); err != nil {
			return without(result, id), true, errors.WrapIfWithDetails(err, "failed to pin locked message", "message", id)
		}
		acted = true
		repinsTotal.Inc()
		result = moveToHead(result, id)
	}

	lit.Debug("Re-asserted %d locked pins in channel %s", len(plan.Repin), channelID)
	return result, acted, nil
}
