package cascade

import (
	"math/rand"

	"github.com/SeunOnTech/x-clone-backend-sub001/pkg/models"
)

// pickRootAuthor selects who starts the thread. Crisis roots lean toward bot
// accounts in proportion to the crisis bot-amplification factor; organic
// chatter is uniform.
func (g *Generator) pickRootAuthor(pool []models.Actor, req Request) models.Actor {
	if req.Mode != ModeCrisis {
		return pool[rand.Intn(len(pool))]
	}
	return pool[weightedIndex(pool, req.BotAmplification)]
}

// pickReactors samples distinct reacting actors, root author excluded. Crisis
// threads draw 1..MaxReactions with bots weighted by amplification; organic
// threads draw 0..MaxReactions uniformly and may go unanswered.
func (g *Generator) pickReactors(pool []models.Actor, rootAuthorID string, req Request) []models.Actor {
	if req.MaxReactions <= 0 {
		return nil
	}
	candidates := excludeActor(pool, rootAuthorID)
	if len(candidates) == 0 {
		return nil
	}

	var count int
	if req.Mode == ModeCrisis {
		count = 1 + rand.Intn(req.MaxReactions)
	} else {
		count = rand.Intn(req.MaxReactions + 1)
	}
	if count > len(candidates) {
		count = len(candidates)
	}

	botWeight := req.BotAmplification
	if req.Mode != ModeCrisis {
		botWeight = 1
	}

	picked := make([]models.Actor, 0, count)
	for len(picked) < count {
		idx := weightedIndex(candidates, botWeight)
		picked = append(picked, candidates[idx])
		candidates = append(candidates[:idx], candidates[idx+1:]...)
	}
	return picked
}

// pickDistinct samples up to n distinct actors uniformly, excluding one id.
func pickDistinct(pool []models.Actor, excludeID string, n int) []models.Actor {
	candidates := excludeActor(pool, excludeID)
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if n < 0 {
		n = 0
	}
	if n > len(candidates) {
		n = len(candidates)
	}
	return candidates[:n]
}

func excludeActor(pool []models.Actor, id string) []models.Actor {
	out := make([]models.Actor, 0, len(pool))
	for _, a := range pool {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

// weightedIndex draws an index with bots weighted by botWeight (floored at
// 1.0 so amplification never disadvantages bots) and humans at 1.0.
func weightedIndex(pool []models.Actor, botWeight float64) int {
	if botWeight < 1 {
		botWeight = 1
	}
	total := 0.0
	for _, a := range pool {
		total += actorWeight(a, botWeight)
	}
	roll := rand.Float64() * total
	for i, a := range pool {
		roll -= actorWeight(a, botWeight)
		if roll <= 0 {
			return i
		}
	}
	return len(pool) - 1
}

func actorWeight(a models.Actor, botWeight float64) float64 {
	if a.IsBot {
		return botWeight
	}
	return 1
}
