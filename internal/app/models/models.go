package models

import (
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the signed session payload carried by the auth_token cookie.
// It travels with the request; nothing about the session lives in server memory.
type Claims struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	IsRegistered   bool   `json:"is_registered"`
	PolicyAccepted bool   `json:"policy_accepted"`
	jwt.RegisteredClaims
}

// User is the persistent identity record, created lazily on first login.
type User struct {
	ID             uuid.UUID  `json:"id"`
	Email          string     `json:"email"`
	Nombre         string     `json:"nombre"`
	Role           Role       `json:"role"`
	IsRegistered   bool       `json:"is_registered"`
	PolicyAccepted bool       `json:"policy_accepted"`
	Telefono       *string    `json:"telefono,omitempty"`
	LinkedinURL    *string    `json:"linkedin_url,omitempty"`
	PasswordHash   *string    `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type Startup struct {
	ID                uuid.UUID  `json:"id"`
	OwnerID           uuid.UUID  `json:"owner_id"`
	Nombre            string     `json:"nombre"`
	NombreNormalizado string     `json:"-"`
	Descripcion       string     `json:"descripcion"`
	Sector            string     `json:"sector"`
	SitioWeb          *string    `json:"sitio_web,omitempty"`
	FechaFundacion    *time.Time `json:"fecha_fundacion,omitempty"`
	Etapa             string     `json:"etapa"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// Convocatoria is a time-bounded call for startup submissions.
type Convocatoria struct {
	ID          uuid.UUID  `json:"id"`
	Nombre      string     `json:"nombre"`
	Descripcion string     `json:"descripcion"`
	FechaInicio time.Time  `json:"fecha_inicio"`
	FechaFin    time.Time  `json:"fecha_fin"`
	Estado      string     `json:"estado"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

// Convocatoria states.
const (
	ConvocatoriaBorrador = "borrador"
	ConvocatoriaAbierta  = "abierta"
	ConvocatoriaCerrada  = "cerrada"
)

// Postulacion is a startup's submission to a given convocatoria.
type Postulacion struct {
	ID             uuid.UUID       `json:"id"`
	ConvocatoriaID uuid.UUID       `json:"convocatoria_id"`
	StartupID      uuid.UUID       `json:"startup_id"`
	Estado         string          `json:"estado"`
	Respuestas     json.RawMessage `json:"respuestas"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty"`
}

// Postulacion states.
const (
	PostulacionEnviada    = "enviada"
	PostulacionEnRevision = "en_revision"
	PostulacionAceptada   = "aceptada"
	PostulacionRechazada  = "rechazada"
)

// ImpactResponse is a questionnaire answer tied to an evaluation criterion.
type ImpactResponse struct {
	ID            uuid.UUID `json:"id"`
	PostulacionID uuid.UUID `json:"postulacion_id"`
	Criterio      string    `json:"criterio"`
	Pregunta      string    `json:"pregunta"`
	Respuesta     string    `json:"respuesta"`
	CreatedAt     time.Time `json:"created_at"`
}

// CriterionScore is one entry of the AI score breakdown.
type CriterionScore struct {
	Criterio      string  `json:"criterio"`
	Puntaje       int     `json:"puntaje"`
	Justificacion string  `json:"justificacion"`
	Confianza     float64 `json:"confianza"`
}

// Evaluacion is the scored outcome of reviewing a postulación.
type Evaluacion struct {
	ID            uuid.UUID        `json:"id"`
	PostulacionID uuid.UUID        `json:"postulacion_id"`
	ModelName     string           `json:"model_name"`
	Criterios     []CriterionScore `json:"criterios"`
	PuntajeTotal  int              `json:"puntaje_total"`
	Umbral        int              `json:"umbral"`
	Aprobada      bool             `json:"aprobada"`
	GeneradaPor   uuid.UUID        `json:"generada_por"`
	CreatedAt     time.Time        `json:"created_at"`
}

// Document is the metadata row for an uploaded pitch deck; the bytes live in S3.
type Document struct {
	ID          uuid.UUID `json:"id"`
	StartupID   uuid.UUID `json:"startup_id"`
	S3Key       string    `json:"-"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// Statistics is the admin dashboard summary.
type Statistics struct {
	TotalUsuarios       int64            `json:"total_usuarios"`
	TotalStartups       int64            `json:"total_startups"`
	PostulacionesEstado map[string]int64 `json:"postulaciones_por_estado"`
	PorConvocatoria     map[string]int64 `json:"postulaciones_por_convocatoria"`
}
