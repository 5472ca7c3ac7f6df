package classification

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobranca/backend/internal/domain/shared"
)

func TestObservation_CanDelete(t *testing.T) {
	author := Author{ID: uuid.New(), Name: "maria"}
	other := Author{ID: uuid.New(), Name: "joao"}
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	obs := Observation{ID: uuid.New(), AuthorID: author.ID, CreatedAt: created}

	tests := []struct {
		name    string
		caller  Author
		elapsed time.Duration
		wantErr bool
	}{
		{"author within window", author, 30 * time.Second, false},
		{"author at window edge", author, 120 * time.Second, false},
		{"author past window", author, 121 * time.Second, true},
		{"other author within window", other, 30 * time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := obs.CanDelete(tt.caller, created.Add(tt.elapsed))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, shared.IsPermissionError(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPatch_Validate(t *testing.T) {
	feeling := FeelingBoa
	badFeeling := Feeling("MARAVILHOSA")
	status := StatusAcordo

	assert.Error(t, Patch{}.Validate(), "empty patch is rejected")
	assert.NoError(t, Patch{Feeling: &feeling}.Validate())
	assert.NoError(t, Patch{Status: &status}.Validate())
	assert.Error(t, Patch{Feeling: &badFeeling}.Validate())
}

func TestAnnotation_ApplyIsPartialMerge(t *testing.T) {
	status := StatusProtesto
	a := Annotation{CodigoCliente: "100", Status: &status}

	feeling := FeelingRuim
	author := Author{ID: uuid.New(), Name: "maria"}
	now := time.Now()
	a.Apply(Patch{Feeling: &feeling}, author, now)

	require.NotNil(t, a.Feeling)
	assert.Equal(t, FeelingRuim, *a.Feeling)
	require.NotNil(t, a.Status, "updating only feeling must not erase status")
	assert.Equal(t, StatusProtesto, *a.Status)
	assert.Equal(t, "maria", a.UpdatedBy)
	assert.Equal(t, now, a.UpdatedAt)
}

func TestSnapshot(t *testing.T) {
	feeling := FeelingBoa
	annotations := []Annotation{
		{CodigoCliente: "1", Feeling: &feeling},
		{CodigoCliente: "2"},
	}

	byClient := Snapshot(annotations)
	require.Len(t, byClient, 2)
	assert.Same(t, &annotations[0], byClient["1"])
	assert.Nil(t, byClient["3"])
}
