package mapper

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"watchfolio-be/internal/entity"
	"watchfolio-be/pkg/store"
)

func TestAssistantMapper_RoundTrip(t *testing.T) {
	m := NewAssistantMapper()
	updated := time.Now().Truncate(time.Second)

	e := &entity.AssistantSession{
		Id:     "session_1700000000000_abc123def456",
		UserId: uuid.New(),
		Mode:   store.ModeRecommendation,
		Title:  "moody sci-fi like Arrival",
		Messages: []store.Turn{
			{Role: store.TurnRoleUser, Content: "moody sci-fi like Arrival", Timestamp: updated},
		},
		Results: &store.ResultSet{
			SessionID: "session_1700000000000_abc123def456",
			Query:     "moody sci-fi like Arrival",
			Items: []store.ContentRef{
				{ID: "tt2543164", Title: "Arrival", MediaType: "movie", Year: 2016},
			},
		},
		Metadata:  map[string]interface{}{"source": "smoke"},
		CreatedAt: updated,
		UpdatedAt: &updated,
	}

	model, err := m.SessionToModel(e)
	require.NoError(t, err)
	assert.Equal(t, e.Id, model.Id)
	assert.Equal(t, string(store.ModeRecommendation), model.Mode)
	assert.NotEmpty(t, model.Messages)

	back, err := m.SessionToEntity(model)
	require.NoError(t, err)
	assert.Equal(t, e.Id, back.Id)
	assert.Equal(t, e.Mode, back.Mode)
	require.Len(t, back.Messages, 1)
	assert.Equal(t, "moody sci-fi like Arrival", back.Messages[0].Content)
	require.NotNil(t, back.Results)
	assert.Equal(t, e.Results.SessionID, back.Results.SessionID)
	require.Len(t, back.Results.Items, 1)
	assert.Equal(t, "Arrival", back.Results.Items[0].Title)
	assert.Equal(t, "smoke", back.Metadata["source"])
}

func TestAssistantMapper_NilGuards(t *testing.T) {
	m := NewAssistantMapper()

	e, err := m.SessionToEntity(nil)
	require.NoError(t, err)
	assert.Nil(t, e)

	model, err := m.SessionToModel(nil)
	require.NoError(t, err)
	assert.Nil(t, model)
}

func TestAssistantMapper_SoftDelete(t *testing.T) {
	m := NewAssistantMapper()
	deletedAt := time.Now()

	e := &entity.AssistantSession{
		Id:        "session_1700000000001_def456abc123",
		UserId:    uuid.New(),
		Mode:      store.ModeInformation,
		DeletedAt: &deletedAt,
	}

	model, err := m.SessionToModel(e)
	require.NoError(t, err)
	assert.True(t, model.DeletedAt.Valid)

	back, err := m.SessionToEntity(model)
	require.NoError(t, err)
	assert.True(t, back.IsDeleted)
	require.NotNil(t, back.DeletedAt)
}

func TestAssistantMapper_MalformedColumns(t *testing.T) {
	m := NewAssistantMapper()

	model, err := m.SessionToModel(&entity.AssistantSession{
		Id:     "session_1700000000002_aaa111bbb222",
		UserId: uuid.New(),
		Mode:   store.ModeInformation,
	})
	require.NoError(t, err)

	model.Messages = datatypes.JSON([]byte("{not json"))
	_, err = m.SessionToEntity(model)
	assert.Error(t, err)
}

func TestAssistantMapper_IsDeletedWithoutTimestamp(t *testing.T) {
	m := NewAssistantMapper()

	model, err := m.SessionToModel(&entity.AssistantSession{
		Id:        "session_1700000000003_ccc333ddd444",
		UserId:    uuid.New(),
		Mode:      store.ModeInformation,
		IsDeleted: true,
	})
	require.NoError(t, err)
	assert.True(t, model.DeletedAt.Valid)
	assert.NotEqual(t, gorm.DeletedAt{}, model.DeletedAt)
}
