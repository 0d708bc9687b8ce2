package service

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/darwinzer0/datahub-learn/celo"
	"github.com/darwinzer0/datahub-learn/token"
)

// Service is the main application struct containing the Celo client, the
// transaction submitter, the http server and logger. It can be called to
// start and stop.
type Service struct {
	client    celo.Client
	submitter *celo.Submitter
	server    *hTTPService
	logger    *logrus.Entry

	mu  sync.RWMutex
	tok *token.Token // bound GoldToken instance, nil until configured or deployed
}

// New constructs a Service with celo client, submitter, logger and http
// server. tok may be nil when no token has been deployed yet.
func New(port int, l *logrus.Entry, client celo.Client, submitter *celo.Submitter, tok *token.Token) *Service {
	srv := &Service{
		client:    client,
		submitter: submitter,
		logger:    l,
		tok:       tok,
	}
	httpSrv := NewHTTPService(port, makeServiceAPIs(srv), l)
	srv.server = httpSrv
	return srv
}

func (s *Service) boundToken() *token.Token {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tok
}

func (s *Service) bindToken(tok *token.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tok = tok
}

// Start creates the HTTP server.
func (s *Service) Start() {
	s.logger.WithFields(logrus.Fields{
		"compilationDate": date,
		"gitCommit":       gitCommitHash,
	}).Infof("starting %v service", ServiceName)
	s.server.Start()

	s.logger.Infof("listening on port %v", s.server.Addr())
}

// Stop gracefully shuts down the HTTP server.
func (s *Service) Stop(sig os.Signal) {
	s.logger.WithFields(logrus.Fields{"signal": sig}).Infof("stopping %v service", ServiceName)

	if err := s.server.Stop(); err != nil {
		s.logger.WithFields(logrus.Fields{"error": err}).Error("error stopping server")
	}
}

// Server exposes the http server externally.
func (s *Service) Server() *hTTPService {
	return s.server
}
