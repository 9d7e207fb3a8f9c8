package models

/************************************************
/**** MARK: EXPEDIENTE ESTADOS ****/
/************************************************/
const EXPEDIENTE_EN_TRAMITE = "En trámite"
const EXPEDIENTE_FINALIZADO = "Finalizado"
const EXPEDIENTE_ARCHIVADO = "Archivado"
const EXPEDIENTE_PENDIENTE = "Pendiente"

const PRIORIDAD_ALTA = "Alta"
const PRIORIDAD_MEDIA = "Media"
const PRIORIDAD_BAJA = "Baja"

func IsExpedienteEstado(s string) bool {
	switch s {
	case EXPEDIENTE_EN_TRAMITE, EXPEDIENTE_FINALIZADO, EXPEDIENTE_ARCHIVADO, EXPEDIENTE_PENDIENTE:
		return true
	}
	return false
}

func IsPrioridad(s string) bool {
	return s == PRIORIDAD_ALTA || s == PRIORIDAD_MEDIA || s == PRIORIDAD_BAJA
}

type Expediente struct {
	ID               string         `json:"id"`
	Numero           string         `json:"numero"`
	Descripcion      string         `json:"descripcion"`
	Estado           string         `json:"estado"`
	Prioridad        string         `json:"prioridad"`
	Ubicacion        string         `json:"ubicacion"`
	Observacion      string         `json:"observacion"`
	FechaInicio      string         `json:"fecha_inicio"`
	UltimoMovimiento string         `json:"ultimo_movimiento"`
	Tenant           string         `json:"tenant"`
	CreatedBy        string         `json:"created_by"`
	Created          string         `json:"created"`
	Updated          string         `json:"updated"`
	Expand           map[string]any `json:"expand,omitempty"`
}

type Ubicacion struct {
	ID          string `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
	Tenant      string `json:"tenant"`
}

type ExpedienteStats struct {
	Total       int `json:"total"`
	Activos     int `json:"activos"`
	Finalizados int `json:"finalizados"`
	Archivados  int `json:"archivados"`
	Pendientes  int `json:"pendientes"`
}
