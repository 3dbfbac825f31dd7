package models

// ImpactQuestion is one questionnaire prompt tied to a scoring criterion.
type ImpactQuestion struct {
	Criterio string `json:"criterio"`
	Pregunta string `json:"pregunta"`
}

// Evaluation criteria. Scores per criterion are 0 to 20, so a perfect
// questionnaire totals 100.
const (
	CriterioImpactoSocial  = "impacto_social"
	CriterioInnovacion     = "innovacion"
	CriterioEscalabilidad  = "escalabilidad"
	CriterioEquipo         = "equipo"
	CriterioSostenibilidad = "sostenibilidad_financiera"
)

// ImpactQuestionnaire is the fixed question set seeded for every new
// postulación. Answers start empty and are filled in by the founder.
var ImpactQuestionnaire = []ImpactQuestion{
	{Criterio: CriterioImpactoSocial, Pregunta: "¿Qué problema social o ambiental resuelve la startup y a quiénes beneficia?"},
	{Criterio: CriterioImpactoSocial, Pregunta: "¿Cómo miden el impacto generado hasta hoy?"},
	{Criterio: CriterioInnovacion, Pregunta: "¿Qué hace distinta a su solución frente a las alternativas existentes?"},
	{Criterio: CriterioEscalabilidad, Pregunta: "¿Cómo planean crecer a nuevos mercados o segmentos en los próximos dos años?"},
	{Criterio: CriterioEquipo, Pregunta: "¿Quiénes integran el equipo fundador y qué experiencia aportan?"},
	{Criterio: CriterioSostenibilidad, Pregunta: "¿Cuál es el modelo de ingresos y cuándo esperan alcanzar el punto de equilibrio?"},
}

// Criterios returns the distinct criteria in questionnaire order.
func Criterios() []string {
	seen := make(map[string]bool)
	var out []string
	for _, q := range ImpactQuestionnaire {
		if !seen[q.Criterio] {
			seen[q.Criterio] = true
			out = append(out, q.Criterio)
		}
	}
	return out
}
