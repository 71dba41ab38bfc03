package model

type ErrorResponse struct {
	Error string `json:"error"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type PingResponse struct {
	Message string `json:"message"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// KeywordListResponse - 장애 키워드 목록 응답
type KeywordListResponse struct {
	Status string   `json:"status"`
	Data   []string `json:"data"`
}

// KeywordRequest - 장애 키워드 추가 요청
type KeywordRequest struct {
	Keywords []string `json:"keywords"`
}

// KeywordMutationResponse - 추가/삭제 응답
type KeywordMutationResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}
