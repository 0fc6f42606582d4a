package scoring

import (
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"grouper/domain/core"
	"grouper/domain/trial"
)

const (
	// confidenceScale is the top of the 1-5 rating scale.
	confidenceScale = 5.0
	// trialsPerBlock is the fixed denominator of the block accuracy rates.
	trialsPerBlock = 6.0
)

func answered(s string) bool {
	return strings.TrimSpace(s) != ""
}

func scaleRating(rating core.NullFloat) core.NullFloat {
	if !rating.Valid {
		return core.Undefined()
	}
	return core.Some(rating.Float64 / confidenceScale)
}

func accuracy(answer, correct string) core.NullFloat {
	if !answered(answer) {
		return core.Undefined()
	}
	if strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(correct)) {
		return core.Some(1)
	}
	return core.Some(0)
}

// ScaleLearningConfidence converts the learning-phase rating to a proportion.
func ScaleLearningConfidence(trials []trial.FaceTrial) []trial.FaceTrial {
	out := make([]trial.FaceTrial, len(trials))
	for i, t := range trials {
		t.LearningConfidence = scaleRating(t.LearningRating)
		out[i] = t
	}
	return out
}

// ScoreRecallTrials derives recall and recognition confidence and accuracy.
// A trial without an answer keeps both its confidence and accuracy undefined,
// whatever rating was recorded.
func ScoreRecallTrials(trials []trial.FaceTrial) []trial.FaceTrial {
	out := make([]trial.FaceTrial, len(trials))
	for i, t := range trials {
		t.RecallTested = true
		t.RecallConfidence, t.RecallAcc = core.Undefined(), core.Undefined()
		if answered(t.RecallAnswer) {
			t.RecallConfidence = scaleRating(t.RecallRating)
			t.RecallAcc = accuracy(t.RecallAnswer, t.CorrectAnswer)
		}
		t.RecogConfidence, t.RecogAcc = core.Undefined(), core.Undefined()
		if answered(t.RecogAnswer) {
			t.RecogConfidence = scaleRating(t.RecogRating)
			t.RecogAcc = accuracy(t.RecogAnswer, t.CorrectAnswer)
		}
		out[i] = t
	}
	return out
}

type trialKey struct {
	subject, block, trial int
}

// MergeFaceTrials folds rows sharing (Subject, Block, Trial) into one, taking
// the first defined value of each field. This joins the learning and recall
// outputs of a subject. Rows keep the order of first appearance.
func MergeFaceTrials(trials []trial.FaceTrial) []trial.FaceTrial {
	index := make(map[trialKey]int, len(trials))
	out := make([]trial.FaceTrial, 0, len(trials))
	for _, t := range trials {
		k := trialKey{t.Subject, t.Block, t.Trial}
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, t)
			continue
		}
		m := &out[i]
		m.LearningConfidence = firstDefined(m.LearningConfidence, t.LearningConfidence)
		m.RecallConfidence = firstDefined(m.RecallConfidence, t.RecallConfidence)
		m.RecogConfidence = firstDefined(m.RecogConfidence, t.RecogConfidence)
		m.RecallAcc = firstDefined(m.RecallAcc, t.RecallAcc)
		m.RecogAcc = firstDefined(m.RecogAcc, t.RecogAcc)
		m.RecallTested = m.RecallTested || t.RecallTested
		if m.CorrectAnswer == "" {
			m.CorrectAnswer = t.CorrectAnswer
		}
	}
	return out
}

func firstDefined(a, b core.NullFloat) core.NullFloat {
	if a.Valid {
		return a
	}
	return b
}

// SummarizeBlocks computes the per-(Subject, Block) metacognition indices.
// Rows come back ordered by Subject then Block.
func SummarizeBlocks(trials []trial.FaceTrial) []trial.BlockSummary {
	byKey := make(map[trial.PartitionKey][]trial.FaceTrial)
	var keys []trial.PartitionKey
	for _, t := range trials {
		k := t.Key()
		if _, ok := byKey[k]; !ok {
			keys = append(keys, k)
		}
		byKey[k] = append(byKey[k], t)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Subject != keys[j].Subject {
			return keys[i].Subject < keys[j].Subject
		}
		return keys[i].Unit < keys[j].Unit
	})

	out := make([]trial.BlockSummary, 0, len(keys))
	for _, k := range keys {
		out = append(out, summarizeBlock(k, byKey[k]))
	}
	return out
}

func summarizeBlock(key trial.PartitionKey, block []trial.FaceTrial) trial.BlockSummary {
	var recallHits, recogHits float64
	tested := false
	var learning []float64
	recallConf := make([]core.NullFloat, len(block))
	recallAcc := make([]core.NullFloat, len(block))
	recogConf := make([]core.NullFloat, len(block))
	recogAcc := make([]core.NullFloat, len(block))

	for i, t := range block {
		tested = tested || t.RecallTested
		if t.RecallAcc.Valid {
			recallHits += t.RecallAcc.Float64
		}
		if t.RecogAcc.Valid {
			recogHits += t.RecogAcc.Float64
		}
		if t.LearningConfidence.Valid {
			learning = append(learning, t.LearningConfidence.Float64)
		}
		recallConf[i], recallAcc[i] = t.RecallConfidence, t.RecallAcc
		recogConf[i], recogAcc[i] = t.RecogConfidence, t.RecogAcc
	}

	s := trial.BlockSummary{
		Subject:    key.Subject,
		Block:      key.Unit,
		Group:      block[0].Group,
		Trials:     len(block),
		RCJ:        GammaComplete(recallConf, recallAcc),
		FOK:        GammaComplete(recogConf, recogAcc),
	}
	// Without recall data the rates are unknown, not zero.
	if tested {
		s.RecallCorr = core.Some(recallHits / trialsPerBlock)
		s.RecogCorr = core.Some(recogHits / trialsPerBlock)
	}
	if len(learning) > 0 {
		s.MeanLearningConfidence = core.Some(stat.Mean(learning, nil))
		if s.RecallCorr.Valid {
			s.JOL = core.Some(s.RecallCorr.Float64 - s.MeanLearningConfidence.Float64)
		}
	}
	return s
}

// GroupMeans averages each index over the blocks of a group, skipping
// undefined values. A metric with no defined value in a group stays
// undefined.
func GroupMeans(rows []trial.BlockSummary) []trial.GroupMetacognition {
	byGroup := make(map[trial.Group][]trial.BlockSummary)
	for _, r := range rows {
		byGroup[r.Group] = append(byGroup[r.Group], r)
	}
	groups := make([]trial.Group, 0, len(byGroup))
	for g := range byGroup {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i] < groups[j] })

	out := make([]trial.GroupMetacognition, 0, len(groups))
	for _, g := range groups {
		blocks := byGroup[g]
		pick := func(f func(trial.BlockSummary) core.NullFloat) core.NullFloat {
			vals := make([]float64, 0, len(blocks))
			for _, b := range blocks {
				if v := f(b); v.Valid {
					vals = append(vals, v.Float64)
				}
			}
			return meanOf(vals)
		}
		out = append(out, trial.GroupMetacognition{
			Group:                  g,
			Blocks:                 len(blocks),
			RecallCorr:             pick(func(b trial.BlockSummary) core.NullFloat { return b.RecallCorr }),
			RecogCorr:              pick(func(b trial.BlockSummary) core.NullFloat { return b.RecogCorr }),
			MeanLearningConfidence: pick(func(b trial.BlockSummary) core.NullFloat { return b.MeanLearningConfidence }),
			JOL:                    pick(func(b trial.BlockSummary) core.NullFloat { return b.JOL }),
			RCJ:                    pick(func(b trial.BlockSummary) core.NullFloat { return b.RCJ }),
			FOK:                    pick(func(b trial.BlockSummary) core.NullFloat { return b.FOK }),
		})
	}
	return out
}

func meanOf(vals []float64) core.NullFloat {
	m, err := stats.Mean(vals)
	if err != nil {
		return core.Undefined()
	}
	return core.Some(m)
}
