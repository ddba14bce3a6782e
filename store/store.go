package store

import (
	"context"
)

type Store struct {
	ctx           context.Context
	evaluatedChan chan *EvaluatedOpportunity
	committedChan chan *CommittedTrade
	failedChan    chan *FailedAttempt
	dao           *Dao
}

func NewStore(ctx context.Context, url, scheme, user, passwd string) *Store {
	s := &Store{
		ctx:           ctx,
		evaluatedChan: make(chan *EvaluatedOpportunity, 32),
		committedChan: make(chan *CommittedTrade, 32),
		failedChan:    make(chan *FailedAttempt, 32),
	}
	s.dao = NewDao(url, scheme, user, passwd)
	return s
}

func (s *Store) Start() {
	go s.store()
}

func (s *Store) Stop() {

}

func (s *Store) store() {
	for {
		select {
		case opp := <-s.evaluatedChan:
			s.dao.SaveEvaluatedOpportunity(opp)
		case trade := <-s.committedChan:
			s.dao.SaveCommittedTrade(trade)
		case attempt := <-s.failedChan:
			s.dao.SaveFailedAttempt(attempt)
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Store) StoreEvaluatedOpportunity(opp *EvaluatedOpportunity) {
	s.evaluatedChan <- opp
}

func (s *Store) StoreCommittedTrade(trade *CommittedTrade) {
	s.committedChan <- trade
}

func (s *Store) StoreFailedAttempt(attempt *FailedAttempt) {
	s.failedChan <- attempt
}

func (s *Store) GetEvaluatedOpportunity(id uint64) ([]*EvaluatedOpportunity, error) {
	return s.dao.SelectEvaluatedOpportunity(id)
}

func (s *Store) GetCommittedTrade(id uint64) ([]*CommittedTrade, error) {
	return s.dao.SelectCommittedTrade(id)
}

func (s *Store) GetFailedAttempt(id uint64) ([]*FailedAttempt, error) {
	return s.dao.SelectFailedAttempt(id)
}
