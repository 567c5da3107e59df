package models

import "encoding/json"

// Envelope — канонический конверт ответа Taskmarket API.
// Все эндпоинты возвращают success-флаг на верхнем уровне;
// data и errors опциональны.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    json.RawMessage   `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// HasNext reports whether pages remain after this one.
func (p Pagination) HasNext() bool {
	return p.Page < p.TotalPages
}
