package intelligence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-bookrec-be/pkg/recs"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// testCheckpoint builds a tiny hand-crafted model: ranking score reads the
// first component of the book embedding, strategy logits follow the mood
// embedding sign (comfort for positive, challenge for negative).
func testCheckpoint() Checkpoint {
	return Checkpoint{
		Version:       1,
		NumBooks:      2,
		NumMoods:      2,
		NumStrategies: 4,
		EmbeddingDim:  2,
		MoodEmbedDim:  1,
		BookIds:       map[string]int{"known_hi": 0, "known_lo": 1},
		Moods:         map[string]int{"stressed": 0, "curious": 1},
		UserVector:    []float64{0, 0},
		BookEmbeddings: [][]float64{
			{1, 0},
			{0.5, 0},
		},
		MoodEmbeddings: [][]float64{
			{1},
			{-1},
		},
		RankingHead: []Layer{
			{Weight: [][]float64{{0, 0, 1, 0}}, Bias: []float64{0}},
		},
		StrategyHead: []Layer{
			{
				Weight: [][]float64{
					{0, 0, 0},
					{0, 0, 1},
					{0, 0, -1},
					{0, 0, 0},
				},
				Bias: []float64{0, 0, 0, 0},
			},
		},
	}
}

func writeCheckpoint(t *testing.T, ckpt Checkpoint) string {
	t.Helper()
	raw, err := json.Marshal(ckpt)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "personal_model.json")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func TestLoadCheckpointValid(t *testing.T) {
	path := writeCheckpoint(t, testCheckpoint())

	model, err := LoadCheckpoint(path)
	require.NoError(t, err)
	assert.NotNil(t, model)
}

func TestLoadCheckpointMissingFile(t *testing.T) {
	_, err := LoadCheckpoint(filepath.Join(t.TempDir(), "absent.json"))
	assert.ErrorIs(t, err, ErrModelUnavailable)
}

func TestLoadCheckpointRejectsShapeMismatch(t *testing.T) {
	ckpt := testCheckpoint()
	ckpt.UserVector = []float64{0, 0, 0} // disagrees with embedding_dim

	_, err := LoadCheckpoint(writeCheckpoint(t, ckpt))
	assert.ErrorIs(t, err, ErrCorruptCheckpoint)
}

func TestLoadCheckpointRejectsBadHeadWiring(t *testing.T) {
	ckpt := testCheckpoint()
	ckpt.RankingHead = []Layer{
		{Weight: [][]float64{{1, 0}}, Bias: []float64{0}}, // wrong input width
	}

	_, err := LoadCheckpoint(writeCheckpoint(t, ckpt))
	assert.ErrorIs(t, err, ErrCorruptCheckpoint)
}

func TestLoadCheckpointRejectsUnknownVersion(t *testing.T) {
	ckpt := testCheckpoint()
	ckpt.Version = 99

	_, err := LoadCheckpoint(writeCheckpoint(t, ckpt))
	assert.ErrorIs(t, err, ErrCorruptCheckpoint)
}

func TestNewScorerMissingModelFallsBack(t *testing.T) {
	scorer, err := NewScorer(filepath.Join(t.TempDir(), "absent.json"), nopLogger{})
	require.NoError(t, err)
	assert.False(t, scorer.ModelLoaded())
}

func TestNewScorerCorruptModelFails(t *testing.T) {
	ckpt := testCheckpoint()
	ckpt.NumBooks = 5

	_, err := NewScorer(writeCheckpoint(t, ckpt), nopLogger{})
	assert.ErrorIs(t, err, ErrCorruptCheckpoint)
}

func TestScoreBooksModelPathOrders(t *testing.T) {
	scorer, err := NewScorer(writeCheckpoint(t, testCheckpoint()), nopLogger{})
	require.NoError(t, err)
	require.True(t, scorer.ModelLoaded())

	scores := scorer.ScoreBooks([]string{"known_lo", "known_hi"}, "stressed")
	require.Len(t, scores, 2)
	assert.Equal(t, "known_hi", scores[0].BookId)
	assert.Equal(t, "known_lo", scores[1].BookId)
}

func TestScoreBooksUnknownIdsPreserveRank(t *testing.T) {
	scorer := NewFallbackScorer(nopLogger{})

	scores := scorer.ScoreBooks([]string{"a", "b", "c"}, "neutral")
	require.Len(t, scores, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{scores[0].BookId, scores[1].BookId, scores[2].BookId})
	assert.Greater(t, scores[0].Score, scores[1].Score)
	assert.Greater(t, scores[1].Score, scores[2].Score)
}

func TestPredictStrategyContractParity(t *testing.T) {
	// "stressed" must map to comfort through the model path and through
	// the fallback table alike.
	withModel, err := NewScorer(writeCheckpoint(t, testCheckpoint()), nopLogger{})
	require.NoError(t, err)
	withoutModel := NewFallbackScorer(nopLogger{})

	assert.Equal(t, recs.StrategyComfort, withModel.PredictStrategy("stressed"))
	assert.Equal(t, recs.StrategyComfort, withoutModel.PredictStrategy("stressed"))
}

func TestPredictStrategyModelPath(t *testing.T) {
	scorer, err := NewScorer(writeCheckpoint(t, testCheckpoint()), nopLogger{})
	require.NoError(t, err)

	assert.Equal(t, recs.StrategyChallenge, scorer.PredictStrategy("curious"))
}

func TestPredictStrategyFallbackTable(t *testing.T) {
	scorer := NewFallbackScorer(nopLogger{})

	assert.Equal(t, recs.StrategyComfort, scorer.PredictStrategy("anxious"))
	assert.Equal(t, recs.StrategyComfort, scorer.PredictStrategy("sad"))
	assert.Equal(t, recs.StrategyChallenge, scorer.PredictStrategy("excited"))
	assert.Equal(t, recs.StrategyExplore, scorer.PredictStrategy("bored"))
	assert.Equal(t, recs.StrategyStandard, scorer.PredictStrategy("neutral"))
	assert.Equal(t, recs.StrategyStandard, scorer.PredictStrategy("confused"))
}

func TestPredictStrategyUnknownMoodWithModelFallsBack(t *testing.T) {
	scorer, err := NewScorer(writeCheckpoint(t, testCheckpoint()), nopLogger{})
	require.NoError(t, err)

	// Mood not in the checkpoint's mood map uses the fixed table.
	assert.Equal(t, recs.StrategyExplore, scorer.PredictStrategy("bored"))
}
