package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onswift/backend/internal/handlers/testutil"
)

type projectPayload struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	DueDate        *string `json:"due_date"`
	TaskCount      int64   `json:"task_count"`
	CompletedTasks int64   `json:"completed_tasks"`
}

type taskPayload struct {
	ID         string  `json:"id"`
	ProjectID  string  `json:"project_id"`
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	AssigneeID *string `json:"assignee_id"`
	Deadline   *string `json:"deadline"`
}

type deliverablePayload struct {
	ID            string `json:"id"`
	TaskID        string `json:"task_id"`
	Status        string `json:"status"`
	Feedback      string `json:"feedback"`
	RevisionCount int    `json:"revision_count"`
	Files         []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"files"`
}

func createProject(t *testing.T, env *testutil.Env, token string, body map[string]any) projectPayload {
	t.Helper()
	resp := env.Request(http.MethodPost, "/api/projects", body, token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var project projectPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &project)
	return project
}

func TestProjectHandler_CRUD(t *testing.T) {
	env := testutil.NewEnv(t)
	creator := env.Signup("creator", "Cora Lens", nil)
	rival := env.Signup("creator", "Rita Rival", nil)
	talent := env.Signup("talent", "Tara Quill", nil)

	project := createProject(t, env, creator.Token, map[string]any{
		"name":     "Launch Video",
		"due_date": "2030-01-15",
	})
	require.Equal(t, "pending", project.Status)
	require.NotNil(t, project.DueDate)
	require.Contains(t, *project.DueDate, "2030-01-15")

	forbidden := env.Request(http.MethodGet, "/api/projects", nil, talent.Token)
	require.Equal(t, http.StatusForbidden, forbidden.Code)

	hidden := env.Request(http.MethodGet, "/api/projects/"+project.ID, nil, rival.Token)
	require.Equal(t, http.StatusNotFound, hidden.Code)

	update := env.Request(http.MethodPatch, "/api/projects/"+project.ID, map[string]any{
		"status":   "in-progress",
		"due_date": nil,
	}, creator.Token)
	require.Equal(t, http.StatusOK, update.Code, update.Body.String())
	testutil.DecodeInto(t, testutil.DecodeResponse(t, update).Data, &project)
	require.Equal(t, "in-progress", project.Status)
	require.Nil(t, project.DueDate)

	badStatus := env.Request(http.MethodPatch, "/api/projects/"+project.ID, map[string]any{"status": "done"}, creator.Token)
	require.Equal(t, http.StatusBadRequest, badStatus.Code)

	sample := env.Request(http.MethodPost, "/api/projects/"+project.ID+"/samples", map[string]any{
		"name": "Reference cut",
		"url":  "https://example.com/ref.mp4",
	}, creator.Token)
	require.Equal(t, http.StatusCreated, sample.Code, sample.Body.String())
	var created struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, sample).Data, &created)
	require.Equal(t, "link", created.Type)

	rivalDelete := env.Request(http.MethodDelete, "/api/project-samples/"+created.ID, nil, rival.Token)
	require.Equal(t, http.StatusNotFound, rivalDelete.Code)

	del := env.Request(http.MethodDelete, "/api/project-samples/"+created.ID, nil, creator.Token)
	require.Equal(t, http.StatusOK, del.Code, del.Body.String())

	list := env.Request(http.MethodGet, "/api/projects", nil, creator.Token)
	var projects []projectPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, list).Data, &projects)
	require.Len(t, projects, 1)

	remove := env.Request(http.MethodDelete, "/api/projects/"+project.ID, nil, creator.Token)
	require.Equal(t, http.StatusOK, remove.Code)
	gone := env.Request(http.MethodGet, "/api/projects/"+project.ID, nil, creator.Token)
	require.Equal(t, http.StatusNotFound, gone.Code)
}

func TestTaskAndDeliverableFlow(t *testing.T) {
	env := testutil.NewEnv(t)
	creator := env.Signup("creator", "Cora Lens", nil)
	talent := env.Signup("talent", "Tara Quill", nil)
	stranger := env.Signup("talent", "Sam Stranger", nil)
	env.Hire(creator, talent)

	project := createProject(t, env, creator.Token, map[string]any{"name": "Series"})

	notOnTeam := env.Request(http.MethodPost, "/api/projects/"+project.ID+"/tasks", map[string]any{
		"name":        "Edit episode 1",
		"assignee_id": stranger.User.ID,
	}, creator.Token)
	require.Equal(t, http.StatusBadRequest, notOnTeam.Code, notOnTeam.Body.String())
	require.Equal(t, "ASSIGNEE_NOT_ON_TEAM", testutil.DecodeResponse(t, notOnTeam).Error.Code)

	resp := env.Request(http.MethodPost, "/api/projects/"+project.ID+"/tasks", map[string]any{
		"name":        "Edit episode 1",
		"assignee_id": talent.User.ID,
		"deadline":    "2030-02-01",
	}, creator.Token)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var task taskPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &task)
	require.Equal(t, "planning", task.Status)
	require.NotNil(t, task.AssigneeID)

	mine := env.Request(http.MethodGet, "/api/my-tasks", nil, talent.Token)
	require.Equal(t, http.StatusOK, mine.Code)
	var assigned []taskPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, mine).Data, &assigned)
	require.Len(t, assigned, 1)

	// The assignee can read the task; strangers cannot.
	require.Equal(t, http.StatusOK, env.Request(http.MethodGet, "/api/tasks/"+task.ID, nil, talent.Token).Code)
	require.Equal(t, http.StatusNotFound, env.Request(http.MethodGet, "/api/tasks/"+task.ID, nil, stranger.Token).Code)

	// Only the creator edits tasks.
	require.Equal(t, http.StatusForbidden, env.Request(http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{"status": "completed"}, talent.Token).Code)

	submit := env.Request(http.MethodPost, "/api/deliverables", map[string]any{
		"task_id": task.ID,
		"title":   "First cut",
		"files": []map[string]any{
			{"name": "cut.mp4", "url": "https://files.example.com/cut.mp4", "size": 1024, "file_type": "video/mp4"},
		},
	}, talent.Token)
	require.Equal(t, http.StatusCreated, submit.Code, submit.Body.String())
	var deliverable deliverablePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, submit).Data, &deliverable)
	require.Equal(t, "pending", deliverable.Status)
	require.Len(t, deliverable.Files, 1)

	strangerSubmit := env.Request(http.MethodPost, "/api/deliverables", map[string]any{
		"task_id": task.ID,
		"title":   "Not mine",
	}, stranger.Token)
	require.NotEqual(t, http.StatusCreated, strangerSubmit.Code)

	revision := env.Request(http.MethodPost, "/api/deliverables/"+deliverable.ID+"/review", map[string]any{
		"status":   "revision",
		"feedback": "Tighten the intro",
	}, creator.Token)
	require.Equal(t, http.StatusOK, revision.Code, revision.Body.String())
	testutil.DecodeInto(t, testutil.DecodeResponse(t, revision).Data, &deliverable)
	require.Equal(t, "revision", deliverable.Status)
	require.Equal(t, 1, deliverable.RevisionCount)
	require.Equal(t, "Tighten the intro", deliverable.Feedback)

	filtered := env.Request(http.MethodGet, "/api/deliverables?status=revision", nil, talent.Token)
	require.Equal(t, http.StatusOK, filtered.Code)
	var items []deliverablePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, filtered).Data, &items)
	require.Len(t, items, 1)

	strangerList := env.Request(http.MethodGet, "/api/deliverables", nil, stranger.Token)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, strangerList).Data, &items)
	require.Empty(t, items)

	approve := env.Request(http.MethodPost, "/api/deliverables/"+deliverable.ID+"/review", map[string]any{"status": "approved"}, creator.Token)
	require.Equal(t, http.StatusOK, approve.Code, approve.Body.String())

	locked := env.Request(http.MethodPatch, "/api/deliverables/"+deliverable.ID, map[string]any{"title": "Too late"}, talent.Token)
	require.Equal(t, http.StatusBadRequest, locked.Code)
	require.Equal(t, "DELIVERABLE_LOCKED", testutil.DecodeResponse(t, locked).Error.Code)

	unassign := env.Request(http.MethodPatch, "/api/tasks/"+task.ID, map[string]any{
		"assignee_id": nil,
		"deadline":    nil,
		"status":      "completed",
	}, creator.Token)
	require.Equal(t, http.StatusOK, unassign.Code, unassign.Body.String())
	testutil.DecodeInto(t, testutil.DecodeResponse(t, unassign).Data, &task)
	require.Nil(t, task.AssigneeID)
	require.Nil(t, task.Deadline)
	require.Equal(t, "completed", task.Status)

	got := env.Request(http.MethodGet, "/api/projects/"+project.ID, nil, creator.Token)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, got).Data, &project)
	require.EqualValues(t, 1, project.TaskCount)
	require.EqualValues(t, 1, project.CompletedTasks)

	require.Equal(t, http.StatusOK, env.Request(http.MethodDelete, "/api/tasks/"+task.ID, nil, creator.Token).Code)
	require.Equal(t, http.StatusNotFound, env.Request(http.MethodGet, "/api/tasks/"+task.ID, nil, creator.Token).Code)
}
