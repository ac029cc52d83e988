// Package server
package server

import (
	"net/http"

	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/jobs"
	"github.com/logiflydevelopers-cloud/pinecone-store-api/packages/worker"
)

// Server is the HTTP boundary: submit an ingestion, poll its job. The core
// behind it only sees validated tasks.
type Server struct {
	router     *http.ServeMux
	jobs       jobs.Repo
	dispatcher worker.Dispatcher
	maxUpload  int64
}

func New(repo jobs.Repo, dispatcher worker.Dispatcher, maxUpload int64) *Server {
	s := &Server{
		router:     http.NewServeMux(),
		jobs:       repo,
		dispatcher: dispatcher,
		maxUpload:  maxUpload,
	}
	s.router.HandleFunc("POST /v1/ingest", s.handleIngest)
	s.router.HandleFunc("POST /v1/ingest/pdf", s.handleIngestPDF)
	s.router.HandleFunc("GET /v1/jobs/{id}", s.handleJobStatus)
	s.router.HandleFunc("GET /", s.handleHealth)
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start(addr string) error {
	return http.ListenAndServe(addr, s.router)
}
