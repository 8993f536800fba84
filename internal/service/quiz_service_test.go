package service

import (
	"testing"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newQuizService(db *gorm.DB) *QuizService {
	return NewQuizService(
		repository.NewQuizRepository(db),
		repository.NewTaskRepository(db),
	)
}

func seedQuestions(t *testing.T, db *gorm.DB, taskID uint, correctOptions ...int) []model.QuizQuestion {
	t.Helper()
	questions := make([]model.QuizQuestion, 0, len(correctOptions))
	for i, correct := range correctOptions {
		q := model.QuizQuestion{
			TaskID:        taskID,
			Text:          "第几题",
			Options:       []string{"A", "B", "C", "D"},
			CorrectOption: correct,
			Order:         i,
		}
		require.NoError(t, db.Create(&q).Error)
		questions = append(questions, q)
	}
	return questions
}

func TestQuizSubmitScoring(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	task := seedTask(t, db, model.TaskPublished)
	task.PassingScore = 75
	require.NoError(t, db.Save(task).Error)
	questions := seedQuestions(t, db, task.ID, 0, 1, 2, 3)

	// 4题对3题：75分，恰好踩线及格
	result, err := svc.Submit(42, &QuizSubmissionRequest{
		TaskID: task.ID,
		Answers: []QuizAnswer{
			{QuestionID: questions[0].ID, SelectedIndex: 0},
			{QuestionID: questions[1].ID, SelectedIndex: 1},
			{QuestionID: questions[2].ID, SelectedIndex: 2},
			{QuestionID: questions[3].ID, SelectedIndex: 0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 75, result.Score)
	assert.True(t, result.Passed)
	assert.Equal(t, 3, result.CorrectAnswers)
	assert.Equal(t, 4, result.TotalQuestions)
	assert.Equal(t, 1, result.Attempt)
}

func TestQuizSubmitRounding(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	task := seedTask(t, db, model.TaskPublished)
	questions := seedQuestions(t, db, task.ID, 0, 0, 0)

	// 3题对2题：66.67 四舍五入到67
	result, err := svc.Submit(42, &QuizSubmissionRequest{
		TaskID: task.ID,
		Answers: []QuizAnswer{
			{QuestionID: questions[0].ID, SelectedIndex: 0},
			{QuestionID: questions[1].ID, SelectedIndex: 0},
			{QuestionID: questions[2].ID, SelectedIndex: 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 67, result.Score)
}

func TestQuizDuplicateAnswersCountOnce(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	task := seedTask(t, db, model.TaskPublished)
	task.PassingScore = 75
	require.NoError(t, db.Save(task).Error)
	questions := seedQuestions(t, db, task.ID, 0, 1, 2, 3)

	// 同一道会做的题重复提交4遍：仍然只算对1题，凑不出及格分
	result, err := svc.Submit(42, &QuizSubmissionRequest{
		TaskID: task.ID,
		Answers: []QuizAnswer{
			{QuestionID: questions[0].ID, SelectedIndex: 0},
			{QuestionID: questions[0].ID, SelectedIndex: 0},
			{QuestionID: questions[0].ID, SelectedIndex: 0},
			{QuestionID: questions[0].ID, SelectedIndex: 0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 25, result.Score)
	assert.False(t, result.Passed)
	assert.Equal(t, 1, result.CorrectAnswers)
	assert.Equal(t, 4, result.TotalQuestions)

	// 条目数超过题目数、夹带不存在的题目ID，得分也不会超过100
	overstuffed := make([]QuizAnswer, 0, 12)
	for i := 0; i < 2; i++ {
		for j, q := range questions {
			overstuffed = append(overstuffed, QuizAnswer{QuestionID: q.ID, SelectedIndex: j})
		}
	}
	overstuffed = append(overstuffed,
		QuizAnswer{QuestionID: 9999, SelectedIndex: 0},
		QuizAnswer{QuestionID: 8888, SelectedIndex: 1},
	)
	result, err = svc.Submit(42, &QuizSubmissionRequest{TaskID: task.ID, Answers: overstuffed})
	require.NoError(t, err)
	assert.Equal(t, 100, result.Score)
	assert.Equal(t, 4, result.CorrectAnswers)

	// 同一题先对后错，以最后一次作答为准
	result, err = svc.Submit(42, &QuizSubmissionRequest{
		TaskID: task.ID,
		Answers: []QuizAnswer{
			{QuestionID: questions[0].ID, SelectedIndex: 0},
			{QuestionID: questions[0].ID, SelectedIndex: 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Score)
	assert.Equal(t, 0, result.CorrectAnswers)
}

func TestQuizUnansweredCountsWrong(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	task := seedTask(t, db, model.TaskPublished)
	questions := seedQuestions(t, db, task.ID, 0, 0, 0, 0)

	result, err := svc.Submit(42, &QuizSubmissionRequest{
		TaskID: task.ID,
		Answers: []QuizAnswer{
			{QuestionID: questions[0].ID, SelectedIndex: 0},
			{QuestionID: questions[1].ID, SelectedIndex: 0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 50, result.Score)
	assert.Equal(t, 4, result.TotalQuestions)
}

func TestQuizAttemptsAccumulate(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	task := seedTask(t, db, model.TaskPublished)
	questions := seedQuestions(t, db, task.ID, 0, 0)

	correct := &QuizSubmissionRequest{
		TaskID: task.ID,
		Answers: []QuizAnswer{
			{QuestionID: questions[0].ID, SelectedIndex: 0},
			{QuestionID: questions[1].ID, SelectedIndex: 0},
		},
	}
	wrong := &QuizSubmissionRequest{
		TaskID: task.ID,
		Answers: []QuizAnswer{
			{QuestionID: questions[0].ID, SelectedIndex: 1},
			{QuestionID: questions[1].ID, SelectedIndex: 1},
		},
	}

	first, err := svc.Submit(42, wrong)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Attempt)
	assert.False(t, first.Passed)

	// 不限重考次数，之前的不及格不影响再考
	second, err := svc.Submit(42, correct)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Attempt)
	assert.True(t, second.Passed)

	// 其他用户的计数互不干扰
	other, err := svc.Submit(43, correct)
	require.NoError(t, err)
	assert.Equal(t, 1, other.Attempt)

	subs, err := svc.Submissions(task.ID, 42)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, 0, subs[0].Score)
	assert.Equal(t, 100, subs[1].Score)
}

func TestQuizPassedFrozenAtSubmission(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	task := seedTask(t, db, model.TaskPublished)
	task.PassingScore = 50
	require.NoError(t, db.Save(task).Error)
	questions := seedQuestions(t, db, task.ID, 0, 0)

	req := &QuizSubmissionRequest{
		TaskID: task.ID,
		Answers: []QuizAnswer{
			{QuestionID: questions[0].ID, SelectedIndex: 0},
			{QuestionID: questions[1].ID, SelectedIndex: 1},
		},
	}

	first, err := svc.Submit(42, req)
	require.NoError(t, err)
	assert.Equal(t, 50, first.Score)
	assert.True(t, first.Passed)

	// 提高及格线后，历史提交的及格结论不回算，新提交按新线判定
	require.NoError(t, db.Model(task).Update("passing_score", 90).Error)

	second, err := svc.Submit(42, req)
	require.NoError(t, err)
	assert.Equal(t, 50, second.Score)
	assert.False(t, second.Passed)

	subs, err := svc.Submissions(task.ID, 42)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.True(t, subs[0].Passed)
	assert.False(t, subs[1].Passed)
}

func TestQuizSubmitPreconditions(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)

	draft := seedTask(t, db, model.TaskDraft)
	seedQuestions(t, db, draft.ID, 0)
	noQuiz := seedTask(t, db, model.TaskPublished)

	_, err := svc.Submit(42, &QuizSubmissionRequest{TaskID: 9999})
	assert.ErrorIs(t, err, util.ErrTaskNotFound)

	_, err = svc.Submit(42, &QuizSubmissionRequest{TaskID: draft.ID})
	assert.ErrorIs(t, err, util.ErrTaskNotPublished)

	_, err = svc.Submit(42, &QuizSubmissionRequest{TaskID: noQuiz.ID})
	assert.ErrorIs(t, err, util.ErrTaskHasNoQuiz)

	var count int64
	require.NoError(t, db.Model(&model.QuizSubmission{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestQuizQuestionsRequirePublished(t *testing.T) {
	db := newTestDB(t)
	svc := newQuizService(db)
	draft := seedTask(t, db, model.TaskDraft)
	seedQuestions(t, db, draft.ID, 0, 1)

	_, err := svc.Questions(draft.ID)
	assert.ErrorIs(t, err, util.ErrTaskNotPublished)

	require.NoError(t, db.Model(draft).Update("status", model.TaskPublished).Error)
	questions, err := svc.Questions(draft.ID)
	require.NoError(t, err)
	assert.Len(t, questions, 2)
}
