package postulacion

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/impulsalab/convoca/internal/app/models"
)

func postulacionRows(p *models.Postulacion) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"id", "convocatoria_id", "startup_id", "estado", "respuestas", "created_at", "updated_at"}).
		AddRow(p.ID, p.ConvocatoriaID, p.StartupID, p.Estado, p.Respuestas, p.CreatedAt, p.UpdatedAt)
}

func TestSubmitTransaction(t *testing.T) {
	ctx := context.Background()

	questions := []models.ImpactQuestion{
		{Criterio: models.CriterioImpactoSocial, Pregunta: "q1"},
		{Criterio: models.CriterioEquipo, Pregunta: "q2"},
	}

	input := &models.Postulacion{
		ConvocatoriaID: uuid.New(),
		StartupID:      uuid.New(),
		Estado:         models.PostulacionEnviada,
		Respuestas:     json.RawMessage(`{}`),
	}

	t.Run("CommitsPostulacionAndQuestionnaire", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresPostulacionRepo(mockPool, zap.NewNop())

		created := &models.Postulacion{
			ID:             uuid.New(),
			ConvocatoriaID: input.ConvocatoriaID,
			StartupID:      input.StartupID,
			Estado:         models.PostulacionEnviada,
			Respuestas:     json.RawMessage(`{}`),
			CreatedAt:      time.Now(),
		}

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(`INSERT INTO postulaciones`).
			WithArgs(input.ConvocatoriaID, input.StartupID, input.Estado, input.Respuestas).
			WillReturnRows(postulacionRows(created))
		for _, q := range questions {
			mockPool.ExpectExec(`INSERT INTO impact_responses`).
				WithArgs(created.ID, q.Criterio, q.Pregunta).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}
		mockPool.ExpectCommit()
		mockPool.ExpectRollback()

		got, err := repo.Submit(ctx, input, questions)

		assert.NoError(t, err)
		assert.Equal(t, created.ID, got.ID)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("DuplicateSubmissionIsConflict", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresPostulacionRepo(mockPool, zap.NewNop())

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(`INSERT INTO postulaciones`).
			WithArgs(input.ConvocatoriaID, input.StartupID, input.Estado, input.Respuestas).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "postulaciones_convocatoria_id_startup_id_key"})
		mockPool.ExpectRollback()

		_, err = repo.Submit(ctx, input, questions)

		assert.ErrorIs(t, err, models.ErrConflict)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("QuestionSeedFailureRollsBack", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()

		repo := NewPostgresPostulacionRepo(mockPool, zap.NewNop())

		created := &models.Postulacion{
			ID:             uuid.New(),
			ConvocatoriaID: input.ConvocatoriaID,
			StartupID:      input.StartupID,
			Estado:         models.PostulacionEnviada,
			Respuestas:     json.RawMessage(`{}`),
			CreatedAt:      time.Now(),
		}

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(`INSERT INTO postulaciones`).
			WithArgs(input.ConvocatoriaID, input.StartupID, input.Estado, input.Respuestas).
			WillReturnRows(postulacionRows(created))
		mockPool.ExpectExec(`INSERT INTO impact_responses`).
			WithArgs(created.ID, questions[0].Criterio, questions[0].Pregunta).
			WillReturnError(assert.AnError)
		mockPool.ExpectRollback()

		_, err = repo.Submit(ctx, input, questions)

		assert.Error(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
