package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/englishmastery-api/internal/models"
)

type achievementRepoStub struct {
	mu    sync.Mutex
	items []models.Achievement
	err   error
}

func (a *achievementRepoStub) Award(ctx context.Context, achievement *models.Achievement) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return false, a.err
	}
	for _, item := range a.items {
		if item.LearnerID == achievement.LearnerID && item.Code == achievement.Code {
			return false, nil
		}
	}
	achievement.ID = uint(len(a.items) + 1)
	a.items = append(a.items, *achievement)
	return true, nil
}

func (a *achievementRepoStub) ListByLearner(ctx context.Context, learnerID uint) ([]models.Achievement, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.Achievement
	for _, item := range a.items {
		if item.LearnerID == learnerID {
			out = append(out, item)
		}
	}
	return out, nil
}

func codesOf(items []models.Achievement) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Code)
	}
	return out
}

func TestAchievementServiceAwardsMilestonesOnce(t *testing.T) {
	repo := &achievementRepoStub{}
	svc := NewAchievementService(repo, testLogger())
	ctx := context.Background()

	awarded, err := svc.AwardFor(ctx, models.Evaluation{ID: 1, LearnerID: 5, Mode: models.EvaluationModeContentRewrite, Score: 45})
	require.NoError(t, err)
	require.Equal(t, []string{models.AchievementFirstEvaluation}, codesOf(awarded))

	awarded, err = svc.AwardFor(ctx, models.Evaluation{ID: 2, LearnerID: 5, Mode: models.EvaluationModeContentRewrite, Score: 92})
	require.NoError(t, err)
	require.Equal(t, []string{models.AchievementExcellentRewrite, models.AchievementExceptional}, codesOf(awarded))

	awarded, err = svc.AwardFor(ctx, models.Evaluation{ID: 3, LearnerID: 5, Mode: models.EvaluationModeVideoPresentation, Score: 81})
	require.NoError(t, err)
	require.Equal(t, []string{models.AchievementExcellentPresenter}, codesOf(awarded))

	awarded, err = svc.AwardFor(ctx, models.Evaluation{ID: 4, LearnerID: 5, Mode: models.EvaluationModeVideoPresentation, Score: 99})
	require.NoError(t, err)
	require.Empty(t, awarded)

	list, err := svc.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, list, 4)
	require.Equal(t, "First Steps", list[0].Title)
	require.Equal(t, uint(1), list[0].EvaluationID)
}

func TestAchievementServicePropagatesRepositoryErrors(t *testing.T) {
	repo := &achievementRepoStub{err: errors.New("db down")}
	svc := NewAchievementService(repo, testLogger())

	_, err := svc.AwardFor(context.Background(), models.Evaluation{ID: 1, LearnerID: 1, Score: 10})
	require.Error(t, err)
}
