package search

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/dmoreno/shopfront/internal/catalog"
	pkgerrors "github.com/dmoreno/shopfront/pkg/errors"
	"github.com/dmoreno/shopfront/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	responses map[string]string
	err       error
	lastPath  string
	lastBody  any
}

func (f *fakeAPI) Post(ctx context.Context, path string, body, out any) error {
	f.lastPath = path
	f.lastBody = body
	if f.err != nil {
		return f.err
	}
	return json.Unmarshal([]byte(f.responses[path]), out)
}

type fakeFilters struct {
	set     int
	results []catalog.Product
}

func (f *fakeFilters) SetAIResults(results []catalog.Product) {
	f.set++
	f.results = results
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "search-test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func TestSemanticInstallsOverride(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{responses: map[string]string{
		"/api/search-ai": `{"products":[{"id":"p1","title":"Mango Habanero"}]}`,
	}}
	filters := &fakeFilters{}
	svc, err := NewService(api, filters, testLogger())
	require.NoError(t, err)

	results, err := svc.Semantic(context.Background(), " something fruity and hot ")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "p1", results[0].ID)

	assert.Equal(t, 1, filters.set)
	assert.Equal(t, results, filters.results)
	assert.Equal(t, semanticRequest{Query: "something fruity and hot"}, api.lastBody)
}

func TestSemanticEmptyResultStillOverrides(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{responses: map[string]string{
		"/api/search-ai": `{"products":null}`,
	}}
	filters := &fakeFilters{}
	svc, err := NewService(api, filters, testLogger())
	require.NoError(t, err)

	results, err := svc.Semantic(context.Background(), "query")
	require.NoError(t, err)
	require.NotNil(t, results)
	assert.Empty(t, results)
	assert.NotNil(t, filters.results, "empty override still installs")
}

func TestSemanticValidatesQuery(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&fakeAPI{}, &fakeFilters{}, testLogger())
	require.NoError(t, err)

	_, err = svc.Semantic(context.Background(), "   ")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestSemanticErrorLeavesFiltersAlone(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{err: pkgerrors.New(pkgerrors.CodeDependency, "down")}
	filters := &fakeFilters{}
	svc, err := NewService(api, filters, testLogger())
	require.NoError(t, err)

	_, err = svc.Semantic(context.Background(), "query")
	require.Error(t, err)
	assert.Zero(t, filters.set)
}

func TestChat(t *testing.T) {
	t.Parallel()

	api := &fakeAPI{responses: map[string]string{
		"/api/chatbot": `{"reply":"try the ghost pepper jerky"}`,
	}}
	filters := &fakeFilters{}
	svc, err := NewService(api, filters, testLogger())
	require.NoError(t, err)

	reply, err := svc.Chat(context.Background(), "what is spicy?")
	require.NoError(t, err)
	assert.Equal(t, "try the ghost pepper jerky", reply)
	assert.Equal(t, "/api/chatbot", api.lastPath)
	assert.Zero(t, filters.set, "chat never touches filters")
}

func TestChatValidatesMessage(t *testing.T) {
	t.Parallel()

	svc, err := NewService(&fakeAPI{}, &fakeFilters{}, testLogger())
	require.NoError(t, err)

	_, err = svc.Chat(context.Background(), "")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}
