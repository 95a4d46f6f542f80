package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldDistinguishesAbsentNullAndValue(t *testing.T) {
	var p struct {
		Title       Field[string] `json:"title"`
		Description Field[string] `json:"description"`
		Priority    Field[string] `json:"priority"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"description":null,"priority":"high"}`), &p))

	assert.False(t, p.Title.Set)
	assert.True(t, p.Description.Set)
	assert.False(t, p.Description.Valid)
	assert.Nil(t, p.Description.Ptr())
	assert.Equal(t, Value("high"), p.Priority)
	assert.Equal(t, "high", *p.Priority.Ptr())
}

func TestFieldRejectsWrongType(t *testing.T) {
	var f Field[int]
	assert.Error(t, json.Unmarshal([]byte(`"seven"`), &f))
}

func TestTaskPatchValidate(t *testing.T) {
	assert.True(t, TaskPatch{}.Empty())
	assert.NoError(t, TaskPatch{Description: Null[string]()}.Validate())

	err := TaskPatch{Title: Value("  "), Priority: Value("urgent")}.Validate()
	require.Error(t, err)
	var appErr *AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, KindValidation, appErr.Kind)
	assert.Len(t, appErr.Fields, 2)

	assert.Error(t, TaskPatch{Title: Null[string]()}.Validate())
}

func TestAppErrorMatching(t *testing.T) {
	err := NotFound("Board not found")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, err, NotFound("Board not found"))
	assert.NotErrorIs(t, err, NotFound("Task not found"))
	assert.Equal(t, KindConflict, KindOf(Conflict("taken")))
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}

func TestTemplateColumns(t *testing.T) {
	titles, ok := TemplateColumns(TemplateKanban)
	require.True(t, ok)
	assert.Equal(t, []string{"To Do", "In Progress", "Done"}, titles)

	titles, ok = TemplateColumns(TemplateBlank)
	assert.True(t, ok)
	assert.Empty(t, titles)

	_, ok = TemplateColumns("scrum")
	assert.False(t, ok)
}
