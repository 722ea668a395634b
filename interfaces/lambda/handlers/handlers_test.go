package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"minicourse-backend/application/services"
	"minicourse-backend/domain/minicourse"
	"minicourse-backend/infrastructure/persistence"
	"minicourse-backend/infrastructure/persistence/dynamodb"
	dynamomocks "minicourse-backend/infrastructure/persistence/dynamodb/mocks"
	storagemocks "minicourse-backend/infrastructure/storage/mocks"
	"minicourse-backend/interfaces/lambda/pipeline"
	"minicourse-backend/pkg/auth"
	"minicourse-backend/pkg/common"
)

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   *common.ErrorInfo `json:"error"`
}

func decode(t *testing.T, resp events.APIGatewayProxyResponse) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &env))
	return env
}

type world struct {
	api         *dynamomocks.MemoryAPI
	store       *storagemocks.URLStore
	minicourses *persistence.Repository[minicourse.Minicourse]
	categories  *persistence.Repository[minicourse.Category]
	videos      *persistence.Repository[minicourse.Video]
	pre         *pipeline.Preprocessor
}

func newWorld(t *testing.T) *world {
	t.Helper()
	api := dynamomocks.NewMemoryAPI()
	store := storagemocks.NewURLStore()
	return &world{
		api:         api,
		store:       store,
		minicourses: newRepo[minicourse.Minicourse](api, store, "minicourse", "minicourses"),
		categories:  newRepo[minicourse.Category](api, store, "category", "categories"),
		videos:      newRepo[minicourse.Video](api, store, "video", "videos"),
		pre:         pipeline.NewPreprocessor(auth.NewUnverifiedJWTReader(), nil),
	}
}

func newRepo[T any](api dynamodb.API, store persistence.ObjectStore, resource, table string) *persistence.Repository[T] {
	return persistence.NewRepository[T](resource, dynamodb.NewTable(api, table, nil), nil,
		persistence.WithObjectStore[T](store))
}

func (w *world) minicourseHandler() *MinicourseHandler {
	svc := services.NewMinicourseService(w.minicourses, w.categories, services.MinicourseConfig{
		CategoryIndex:       "category_id-index",
		ThumbUploadExpire:   300 * time.Second,
		ThumbDownloadExpire: 60 * time.Second,
		RetrievalLimit:      5,
	}, nil)
	return NewMinicourseHandler(svc, pipeline.IgnoreUnknown, nil)
}

func request(t *testing.T, body any, headers map[string]string) events.APIGatewayProxyRequest {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return events.APIGatewayProxyRequest{Body: string(raw), Headers: headers}
}

func bearer(t *testing.T, username string) map[string]string {
	t.Helper()
	token, err := auth.EncodeUnsigned(auth.Claims{auth.UsernameClaim: username})
	require.NoError(t, err)
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestGetMinicourse_AnonymousEndToEnd(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, w.minicourses.Save(context.Background(), &minicourse.Minicourse{
		ID: "m1", Name: "Go", ThumbExt: "png", CategoryID: "cat1",
	}, false))
	handler := w.pre.Wrap(w.minicourseHandler().Get(), pipeline.IncludeRepos(w.minicourses))

	resp, err := handler(context.Background(), request(t, map[string]any{
		"action": "get_minicourse",
		"params": map[string]any{"id": "m1"},
	}, map[string]string{}))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	env := decode(t, resp)
	require.True(t, env.Success)

	var got services.MinicourseWithThumb
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "m1", got.Minicourse.ID)
	assert.Equal(t, "Go", got.Minicourse.Name)
	assert.Equal(t, "cat1", got.Minicourse.CategoryID)
	assert.Equal(t, storagemocks.URL("get", services.ThumbsFolder, "m1.png", 60*time.Second), got.ThumbDownloadURL)
	assert.Empty(t, w.minicourses.Username())
}

func TestCreateMinicourse_StampsCaller(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, w.categories.Save(context.Background(), &minicourse.Category{ID: "cat1", Name: "c"}, false))
	handler := w.pre.Wrap(w.minicourseHandler().Create, pipeline.IncludeRepos(w.minicourses, w.categories))

	resp, err := handler(context.Background(), request(t, map[string]any{
		"name": "test_minicourse", "thumb_ext": "png", "category_id": "cat1",
	}, bearer(t, "alice@example.com")))

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created services.CreatedMinicourse
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &created))
	assert.Equal(t, "alice@example.com", created.Minicourse.CreatedBy)
	assert.NotEmpty(t, created.ThumbUploadURL)
}

func TestCreateMinicourse_InvalidBody(t *testing.T) {
	w := newWorld(t)
	handler := w.pre.Wrap(w.minicourseHandler().Create)

	resp, err := handler(context.Background(), request(t, map[string]any{"name": "x"}, nil))

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	env := decode(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, common.StandardErrorMessage, env.Error.Message)
	assert.Empty(t, w.api.Items("minicourses"))
}

func TestMinicourseActions(t *testing.T) {
	w := newWorld(t)
	for _, m := range []minicourse.Minicourse{
		{ID: "cat1-a", ThumbExt: "png", CategoryID: "cat1"},
		{ID: "cat1-b", ThumbExt: "png", CategoryID: "cat1"},
	} {
		require.NoError(t, w.minicourses.Save(context.Background(), &m, false))
	}
	get := w.pre.Wrap(w.minicourseHandler().Get())

	tests := []struct {
		name   string
		action string
		params map[string]any
		key    string
	}{
		{"multiple", ActionGetMultipleMinicourses, map[string]any{"ids": []string{"cat1-b", "cat1-a"}}, "minicourses"},
		{"thumb upload", ActionGetThumbUploadURL, map[string]any{"id": "cat1-a"}, "thumb_upload_url"},
		{"by category", ActionGetCategoryMinicourses, map[string]any{"category_id": "cat1"}, "minicourses"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := get(context.Background(), request(t, map[string]any{"action": tt.action, "params": tt.params}, nil))
			require.NoError(t, err)
			require.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)

			var data map[string]json.RawMessage
			require.NoError(t, json.Unmarshal(decode(t, resp).Data, &data))
			assert.Contains(t, data, tt.key)
		})
	}
}

func TestMinicourseActions_UnknownIgnored(t *testing.T) {
	w := newWorld(t)
	get := w.pre.Wrap(w.minicourseHandler().Get())

	resp, err := get(context.Background(), request(t, map[string]any{"action": "nope"}, nil))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true}`, resp.Body)
}

func TestUpdateMinicourse_KeepsID(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, w.minicourses.Save(context.Background(), &minicourse.Minicourse{ID: "m1", Name: "Go", ThumbExt: "png"}, false))
	handler := w.pre.Wrap(w.minicourseHandler().Update, pipeline.IncludeRepos(w.minicourses))

	resp, err := handler(context.Background(), request(t, map[string]any{"id": "m1", "name": "Go 2"}, bearer(t, "bob")))

	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stored, err := w.minicourses.GetItemByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "Go 2", stored.Name)
	assert.Equal(t, "bob", stored.UpdatedBy)
}

func TestDeleteMinicourse(t *testing.T) {
	w := newWorld(t)
	require.NoError(t, w.minicourses.Save(context.Background(), &minicourse.Minicourse{ID: "m1"}, false))
	handler := w.pre.Wrap(w.minicourseHandler().Delete)

	resp, err := handler(context.Background(), request(t, map[string]any{"id": "m1"}, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, w.api.Items("minicourses"))

	resp, err = handler(context.Background(), request(t, map[string]any{"id": "m1"}, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestCategoryHandler(t *testing.T) {
	w := newWorld(t)
	h := NewCategoryHandler(services.NewCategoryService(w.categories, nil), pipeline.RejectUnknown, nil)

	resp, err := w.pre.Wrap(h.Create)(context.Background(), request(t, map[string]any{"name": "Programming"}, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created minicourse.Category
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &created))

	get := w.pre.Wrap(h.Get())
	resp, err = get(context.Background(), request(t, map[string]any{"action": ActionGetAllCategories}, nil))
	require.NoError(t, err)
	var all services.CategoryList
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &all))
	assert.Equal(t, []minicourse.Category{created}, all.Categories)

	resp, err = w.pre.Wrap(h.Update)(context.Background(), request(t, map[string]any{"id": created.ID, "description": "code"}, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = get(context.Background(), request(t, map[string]any{"action": "get_everything"}, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	resp, err = w.pre.Wrap(h.Delete)(context.Background(), request(t, map[string]any{"id": created.ID}, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, w.api.Items("categories"))
}

func TestVideoHandler(t *testing.T) {
	w := newWorld(t)
	svc := services.NewVideoService(w.videos, services.VideoConfig{
		MinicourseIndex: "minicourse_id-index",
		UploadExpire:    time.Minute,
		DownloadExpire:  time.Minute,
	}, nil)
	h := NewVideoHandler(svc, pipeline.IgnoreUnknown, nil)

	resp, err := w.pre.Wrap(h.Create)(context.Background(), request(t, map[string]any{
		"name": "intro", "ext": ".mp4", "minicourse_id": "m1",
	}, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var created services.CreatedVideo
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &created))
	assert.Equal(t, "mp4", created.Video.Ext)

	resp, err = w.pre.Wrap(h.Get())(context.Background(), request(t, map[string]any{
		"action": ActionGetMinicourseVideos, "params": map[string]any{"minicourse_id": "m1"},
	}, nil))
	require.NoError(t, err)
	var list services.VideoList
	require.NoError(t, json.Unmarshal(decode(t, resp).Data, &list))
	require.Len(t, list.Videos, 1)
	assert.Equal(t, created.Video.ID, list.Videos[0].ID)

	resp, err = w.pre.Wrap(h.Delete)(context.Background(), request(t, map[string]any{"id": created.Video.ID}, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendHTML(ctx context.Context, source string, to []string, subject, html string) (string, error) {
	args := m.Called(source, to, subject)
	return args.String(0), args.Error(1)
}

func (m *mockMailer) VerifyAddress(ctx context.Context, address string) error {
	return m.Called(address).Error(0)
}

func TestQuestionHandler(t *testing.T) {
	mailer := new(mockMailer)
	mailer.On("SendHTML", "student@example.com", []string{"expert@example.com"}, "New message from student student@example.com").
		Return("msg-1", nil).Once()
	handler := newWorld(t).pre.Wrap(NewQuestionHandler(services.NewQuestionService(mailer, nil), nil).Send)
	body := map[string]any{"expert_email": "expert@example.com", "message": "help"}

	resp, err := handler(context.Background(), request(t, body, bearer(t, "student@example.com")))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = handler(context.Background(), request(t, body, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	mailer.AssertExpectations(t)
}
