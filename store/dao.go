package store

import (
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Dao struct {
	db *gorm.DB
}

func NewDao(url, scheme, user, passwd string) *Dao {
	dao := &Dao{}
	Logger := logger.Default
	Logger = Logger.LogMode(logger.Info)
	db, err := gorm.Open(mysql.Open(user+":"+passwd+"@tcp("+url+")/"+
		scheme+"?charset=utf8"), &gorm.Config{Logger: Logger})
	if err != nil {
		panic(err)
	}
	err = db.Debug().AutoMigrate(&EvaluatedOpportunity{}, &CommittedTrade{}, &CommittedTradeLeg{}, &FailedAttempt{})
	if err != nil {
		panic(err)
	}
	dao.db = db
	return dao
}

func (dao *Dao) SaveEvaluatedOpportunity(opp *EvaluatedOpportunity) error {
	return dao.db.Create(opp).Error
}

func (dao *Dao) SaveCommittedTrade(trade *CommittedTrade) error {
	return dao.db.Create(trade).Error
}

func (dao *Dao) SaveFailedAttempt(attempt *FailedAttempt) error {
	return dao.db.Create(attempt).Error
}

func (dao *Dao) SelectEvaluatedOpportunity(id uint64) ([]*EvaluatedOpportunity, error) {
	opps := make([]*EvaluatedOpportunity, 0)
	res := dao.db.Where("id = ?", id).Find(&opps)
	return opps, res.Error
}

func (dao *Dao) SelectCommittedTrade(id uint64) ([]*CommittedTrade, error) {
	trades := make([]*CommittedTrade, 0)
	res := dao.db.Where("id = ?", id).Preload("CommittedTradeLegs").Find(&trades)
	return trades, res.Error
}

func (dao *Dao) SelectFailedAttempt(id uint64) ([]*FailedAttempt, error) {
	attempts := make([]*FailedAttempt, 0)
	res := dao.db.Where("id = ?", id).Find(&attempts)
	return attempts, res.Error
}
