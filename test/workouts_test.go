package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/2beens/splitfit/internal/splits"
	"github.com/2beens/splitfit/internal/workouts"
	"github.com/2beens/splitfit/internal/workouts/progress"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type comparisonResp struct {
	Success bool                     `json:"success"`
	Error   string                   `json:"error,omitempty"`
	Data    *progress.ComparisonData `json:"data,omitempty"`
}

func (s *IntegrationTestSuite) doRequest(
	ctx context.Context, t *testing.T,
	method, path, token string, body any,
) *http.Response {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyJson, err := json.Marshal(body)
		require.NoError(t, err)
		bodyReader = bytes.NewBuffer(bodyJson)
	}

	req, err := http.NewRequestWithContext(ctx, method, serverEndpoint+path, bodyReader)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-SPLITFIT-TOKEN", token)
	}

	resp, err := s.httpClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	respBytes, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out T
	require.NoError(t, json.Unmarshal(respBytes, &out), "body: %s", string(respBytes))
	return out
}

func pushPullLegsPayload() splits.Split {
	return splits.Split{
		Name: "Push Pull Legs",
		Days: []splits.SplitDay{
			{
				Weekday: 0,
				Name:    "Push",
				Exercises: []splits.DayExercise{
					{Name: "Bench Press", MuscleGroup: "Chest", TargetSets: 2, TargetReps: 5, RestSeconds: 120},
					{Name: "Overhead Press", MuscleGroup: `["Shoulders","Triceps"]`, TargetSets: 3, TargetReps: 8, RestSeconds: 90},
				},
			},
			{Weekday: 1, Name: "Rest", IsRest: true},
			{
				Weekday: 2,
				Name:    "Pull",
				Exercises: []splits.DayExercise{
					{Name: "Deadlift", MuscleGroup: "Back", TargetSets: 3, TargetReps: 5, RestSeconds: 180},
				},
			},
		},
	}
}

func (s *IntegrationTestSuite) TestSplits() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// reset the shared login rate limit counter
	require.NoError(t, s.redisDataCleanup(ctx))

	registerUser(ctx, t, "splituser", "split-user-pass")
	login := doLogin(ctx, t, "splituser", "split-user-pass")

	resp := s.doRequest(ctx, t, "POST", "/splits", login.Token, pushPullLegsPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[splits.Split](t, resp)
	assert.NotZero(t, created.ID)
	require.Len(t, created.Days, 3)
	assert.NotZero(t, created.Days[0].Exercises[0].ID)

	t.Run("invalid payload rejected", func(t *testing.T) {
		invalid := pushPullLegsPayload()
		invalid.Days[0].Exercises = nil
		resp := s.doRequest(ctx, t, "POST", "/splits", login.Token, invalid)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("get and list", func(t *testing.T) {
		resp := s.doRequest(ctx, t, "GET", fmt.Sprintf("/splits/%d", created.ID), login.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		gotten := decodeBody[splits.Split](t, resp)
		assert.Equal(t, "Push Pull Legs", gotten.Name)
		require.Len(t, gotten.Days, 3)

		resp = s.doRequest(ctx, t, "GET", "/splits", login.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		listed := decodeBody[[]splits.Split](t, resp)
		require.Len(t, listed, 1)
	})

	t.Run("foreign split is hidden", func(t *testing.T) {
		registerUser(ctx, t, "otheruser", "other-user-pass")
		otherLogin := doLogin(ctx, t, "otheruser", "other-user-pass")

		resp := s.doRequest(ctx, t, "GET", fmt.Sprintf("/splits/%d", created.ID), otherLogin.Token, nil)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("delete", func(t *testing.T) {
		resp := s.doRequest(ctx, t, "DELETE", fmt.Sprintf("/splits/%d", created.ID), login.Token, nil)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = s.doRequest(ctx, t, "GET", fmt.Sprintf("/splits/%d", created.ID), login.Token, nil)
		resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func (s *IntegrationTestSuite) TestWorkoutProgressComparison() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// reset the shared login rate limit counter
	require.NoError(t, s.redisDataCleanup(ctx))

	registerUser(ctx, t, "progressuser", "progress-user-pass")
	login := doLogin(ctx, t, "progressuser", "progress-user-pass")

	resp := s.doRequest(ctx, t, "POST", "/splits", login.Token, pushPullLegsPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	split := decodeBody[splits.Split](t, resp)

	pushDay := split.Days[0]
	require.Equal(t, "Push", pushDay.Name)
	benchPress := pushDay.Exercises[0]
	overheadPress := pushDay.Exercises[1]

	startSession := func(date string) workouts.Session {
		resp := s.doRequest(ctx, t, "POST", "/workouts", login.Token, map[string]any{
			"scheduledDayId": pushDay.ID,
			"date":           date,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		return decodeBody[workouts.Session](t, resp)
	}
	logSet := func(sessionID string, exerciseID, setNumber, reps int, weight float64) {
		resp := s.doRequest(ctx, t, "POST", "/workouts/"+sessionID+"/sets", login.Token, map[string]any{
			"dayExerciseId": exerciseID,
			"setNumber":     setNumber,
			"reps":          reps,
			"weight":        weight,
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	getComparison := func(sessionID string) comparisonResp {
		resp := s.doRequest(ctx, t, "GET", "/workouts/"+sessionID+"/comparison", login.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decodeBody[comparisonResp](t, resp)
	}

	// week one
	firstSession := startSession("2025-03-03")
	logSet(firstSession.ID, benchPress.ID, 1, 5, 170)
	logSet(firstSession.ID, benchPress.ID, 2, 5, 180)
	logSet(firstSession.ID, overheadPress.ID, 1, 8, 40)

	t.Run("first workout has no predecessor", func(t *testing.T) {
		comparison := getComparison(firstSession.ID)
		require.True(t, comparison.Success)
		require.NotNil(t, comparison.Data)
		assert.Equal(t, firstSession.ID, comparison.Data.CurrentWorkout.ID)
		assert.Len(t, comparison.Data.CurrentWorkout.Exercises, 2)
		assert.Nil(t, comparison.Data.PreviousWorkout)
		assert.Nil(t, comparison.Data.ProgressData)
	})

	t.Run("set for an unknown exercise is rejected", func(t *testing.T) {
		resp := s.doRequest(ctx, t, "POST", "/workouts/"+firstSession.ID+"/sets", login.Token, map[string]any{
			"dayExerciseId": 999999,
			"setNumber":     1,
			"reps":          5,
			"weight":        100,
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("set for an exercise of another day is rejected", func(t *testing.T) {
		deadlift := split.Days[2].Exercises[0]
		resp := s.doRequest(ctx, t, "POST", "/workouts/"+firstSession.ID+"/sets", login.Token, map[string]any{
			"dayExerciseId": deadlift.ID,
			"setNumber":     1,
			"reps":          5,
			"weight":        140,
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("set for another users exercise is rejected", func(t *testing.T) {
		registerUser(ctx, t, "sneakyuser", "sneaky-user-pass")
		sneakyLogin := doLogin(ctx, t, "sneakyuser", "sneaky-user-pass")

		resp := s.doRequest(ctx, t, "POST", "/splits", sneakyLogin.Token, pushPullLegsPayload())
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		sneakySplit := decodeBody[splits.Split](t, resp)

		resp = s.doRequest(ctx, t, "POST", "/workouts", sneakyLogin.Token, map[string]any{
			"scheduledDayId": sneakySplit.Days[0].ID,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		sneakySession := decodeBody[workouts.Session](t, resp)

		// the exercise ID belongs to another user's split, attaching it
		// must not leak that exercise into this user's snapshots
		resp = s.doRequest(ctx, t, "POST", "/workouts/"+sneakySession.ID+"/sets", sneakyLogin.Token, map[string]any{
			"dayExerciseId": benchPress.ID,
			"setNumber":     1,
			"reps":          5,
			"weight":        100,
		})
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	// week two
	secondSession := startSession("2025-03-10")
	logSet(secondSession.ID, benchPress.ID, 1, 5, 175)
	logSet(secondSession.ID, benchPress.ID, 2, 5, 185)

	t.Run("second workout compared against the first", func(t *testing.T) {
		comparison := getComparison(secondSession.ID)
		require.True(t, comparison.Success)
		require.NotNil(t, comparison.Data)
		require.NotNil(t, comparison.Data.PreviousWorkout)
		require.NotNil(t, comparison.Data.ProgressData)

		assert.Equal(t, secondSession.ID, comparison.Data.CurrentWorkout.ID)
		assert.Equal(t, firstSession.ID, comparison.Data.PreviousWorkout.ID)
		assert.Equal(t, "Push Pull Legs", comparison.Data.CurrentWorkout.SplitName)
		assert.Equal(t, "Push", comparison.Data.CurrentWorkout.DayName)

		// overhead press was not logged in the second session, so only
		// bench press makes it into the report
		report := comparison.Data.ProgressData
		require.Len(t, report.Exercises, 1)

		bench := report.Exercises[0]
		assert.Equal(t, benchPress.ID, bench.ExerciseID)
		assert.Equal(t, "chest", bench.MuscleGroup)
		require.Len(t, bench.Sets, 2)
		assert.Equal(t, float64(5), bench.Sets[0].WeightChange)
		assert.InDelta(t, 2.94, bench.Sets[0].WeightChangePercent, 0.01)
		assert.Equal(t, float64(5), bench.Sets[1].WeightChange)
		assert.InDelta(t, 2.78, bench.Sets[1].WeightChangePercent, 0.01)
		assert.Equal(t, float64(50), bench.TotalWeightChange)
		assert.InDelta(t, 2.86, bench.TotalWeightChangePercent, 0.01)

		assert.Equal(t, float64(50), report.OverallProgress.TotalWeightChange)
		assert.InDelta(t, 2.86, report.OverallProgress.TotalWeightChangePercent, 0.01)
	})

	t.Run("muscle group json array is normalized", func(t *testing.T) {
		comparison := getComparison(firstSession.ID)
		require.True(t, comparison.Success)
		require.Len(t, comparison.Data.CurrentWorkout.Exercises, 2)
		assert.Equal(t, "shoulders, triceps", comparison.Data.CurrentWorkout.Exercises[1].MuscleGroup)
	})

	t.Run("comparison of a foreign workout is forbidden", func(t *testing.T) {
		registerUser(ctx, t, "nosyuser", "nosy-user-pass")
		nosyLogin := doLogin(ctx, t, "nosyuser", "nosy-user-pass")

		resp := s.doRequest(ctx, t, "GET", "/workouts/"+secondSession.ID+"/comparison", nosyLogin.Token, nil)
		require.Equal(t, http.StatusForbidden, resp.StatusCode)
		comparison := decodeBody[comparisonResp](t, resp)
		assert.False(t, comparison.Success)
		assert.NotEmpty(t, comparison.Error)
	})

	t.Run("history listing", func(t *testing.T) {
		resp := s.doRequest(ctx, t, "GET", "/workouts?page=1&size=10", login.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		listResp := decodeBody[struct {
			Sessions []workouts.Session `json:"sessions"`
			Total    int                `json:"total"`
		}](t, resp)
		require.Equal(t, 2, listResp.Total)
		require.Len(t, listResp.Sessions, 2)
		// newest first
		assert.Equal(t, secondSession.ID, listResp.Sessions[0].ID)
	})

	t.Run("deleting the predecessor removes the comparison", func(t *testing.T) {
		resp := s.doRequest(ctx, t, "DELETE", "/workouts/"+firstSession.ID, login.Token, nil)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		comparison := getComparison(secondSession.ID)
		require.True(t, comparison.Success)
		assert.Nil(t, comparison.Data.PreviousWorkout)
		assert.Nil(t, comparison.Data.ProgressData)
	})

	t.Run("unknown workout", func(t *testing.T) {
		resp := s.doRequest(ctx, t, "GET", "/workouts/no-such-session/comparison", login.Token, nil)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
		comparison := decodeBody[comparisonResp](t, resp)
		assert.False(t, comparison.Success)
	})
}
